package playback

import (
	"math"
	"sync"

	"nirmana-assistant/internal/service/audio"
)

// Mixer is a software Output. Its clock is the number of frames rendered so
// far, so time only advances when a driver pulls samples through Render.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	position   int64
	voices     []*voice
	closed     bool
}

// NewMixer creates a mono mixer at sampleRate.
func NewMixer(sampleRate int) *Mixer {
	return &Mixer{sampleRate: sampleRate}
}

// SampleRate returns the mixer's output rate.
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// Now returns the rendered position in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.position) / float64(m.sampleRate)
}

// NewSource wraps buf for scheduling. Multi-channel buffers play their first
// channel.
func (m *Mixer) NewSource(buf *audio.Buffer) Source {
	return &voice{mixer: m, buf: buf}
}

// Active returns the number of started, unfinished sources.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Render mixes the next len(out) frames into out and advances the clock.
// Ended callbacks run after the mixer lock is released.
func (m *Mixer) Render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	begin := m.position
	n := int64(len(out))

	var finished []func()
	kept := m.voices[:0]
	for _, v := range m.voices {
		data := v.samples()
		off := v.start - begin
		if off < 0 {
			off = 0
		}
		for i := off; i < n && v.pos < len(data); i++ {
			out[i] += data[v.pos]
			v.pos++
		}
		if v.pos >= len(data) {
			v.ended = true
			if v.onEnded != nil {
				finished = append(finished, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = kept
	m.position += n
	m.mu.Unlock()

	for _, fn := range finished {
		fn()
	}
}

// Close silences every source. Later Renders produce silence.
func (m *Mixer) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var finished []func()
	for _, v := range m.voices {
		v.ended = true
		if v.onEnded != nil {
			finished = append(finished, v.onEnded)
		}
	}
	m.voices = nil
	m.mu.Unlock()

	for _, fn := range finished {
		fn()
	}
	return nil
}

type voice struct {
	mixer   *Mixer
	buf     *audio.Buffer
	start   int64
	pos     int
	started bool
	ended   bool
	onEnded func()
}

func (v *voice) samples() []float32 {
	if v.buf == nil || len(v.buf.Data) == 0 {
		return nil
	}
	return v.buf.Data[0]
}

func (v *voice) Start(at float64) {
	m := v.mixer
	m.mu.Lock()
	if v.started || v.ended || m.closed {
		m.mu.Unlock()
		return
	}
	v.started = true
	v.start = int64(math.Round(at * float64(m.sampleRate)))
	if v.start < m.position {
		v.start = m.position
	}
	m.voices = append(m.voices, v)
	m.mu.Unlock()
}

func (v *voice) Stop() {
	m := v.mixer
	m.mu.Lock()
	if v.ended {
		m.mu.Unlock()
		return
	}
	v.ended = true
	for i, o := range m.voices {
		if o == v {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			break
		}
	}
	fn := v.onEnded
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (v *voice) OnEnded(fn func()) {
	v.mixer.mu.Lock()
	v.onEnded = fn
	v.mixer.mu.Unlock()
}
