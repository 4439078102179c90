package playback

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/audio"
)

// PacedWriter renders a Mixer in real time and writes the result to an
// io.Writer as 16-bit PCM. It stands in for a speaker when replies are
// recorded to a file.
type PacedWriter struct {
	*Mixer

	w        io.Writer
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	written int64
	err     error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewPacedWriter starts rendering immediately. interval is the render
// period; zero selects 20ms.
func NewPacedWriter(w io.Writer, sampleRate int, interval time.Duration) *PacedWriter {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	p := &PacedWriter{
		Mixer:    NewMixer(sampleRate),
		w:        w,
		interval: interval,
		log:      logging.WithComponent("playback.paced"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// PacedWriterOpener adapts NewPacedWriter to an OutputOpener.
func PacedWriterOpener(w io.Writer) OutputOpener {
	return func(sampleRate, channels int) (Output, error) {
		return NewPacedWriter(w, sampleRate, 0), nil
	}
}

func (p *PacedWriter) run() {
	defer close(p.done)

	frames := int(p.interval.Seconds() * float64(p.SampleRate()))
	buf := make([]float32, frames)
	out := make([]byte, frames*2)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-t.C:
		}
		p.Render(buf)
		audio.PutPCM16(out, buf)
		n, err := p.w.Write(out)

		p.mu.Lock()
		p.written += int64(n)
		if err != nil && p.err == nil {
			p.err = err
			p.log.Error().Err(err).Msg("Failed to write rendered audio")
		}
		p.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// Written returns the number of bytes written so far.
func (p *PacedWriter) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Close stops rendering and waits for the render goroutine. It returns the
// first write error, if any.
func (p *PacedWriter) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done
		p.Mixer.Close()
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
