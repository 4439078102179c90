// Package mock provides a simulated live model for tests and offline runs.
// Each turn is triggered after a number of capture frames, emits progressive
// transcript deltas and a short tone as reply audio, then completes the turn.
package mock

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"nirmana-assistant/internal/service/audio"
	"nirmana-assistant/internal/service/live"
)

// Turn is one simulated exchange.
type Turn struct {
	AfterFrames int      // capture frames to receive before the turn starts
	Input       []string // user transcript deltas
	Output      []string // model transcript deltas
	AudioChunks int      // reply audio chunks
	Audio       [][]byte // raw PCM chunks sent after the generated ones
	Interrupt   bool     // emit an interruption after the audio
	Fail        error    // end the session with this error instead of completing
}

// DefaultTurns cycle through a short scripted conversation.
var DefaultTurns = []Turn{
	{
		AfterFrames: 8,
		Input:       []string{"Hel", "lo"},
		Output:      []string{"Hi ", "there"},
		AudioChunks: 3,
	},
	{
		AfterFrames: 8,
		Input:       []string{"What can ", "you do?"},
		Output:      []string{"I can chat, ", "search and ", "draw pictures."},
		AudioChunks: 4,
	},
	{
		AfterFrames: 8,
		Input:       []string{"Thank ", "you"},
		Output:      []string{"You're ", "welcome!"},
		AudioChunks: 2,
	},
}

// Options tune a mock transport.
type Options struct {
	Turns        []Turn
	OpenDelay    time.Duration
	ChunkMillis  int  // reply audio chunk length, default 100
	CloseAtEnd   bool // close cleanly after the last turn instead of idling
	ConnectError error
}

// Transport implements live.Transport with scripted responses.
type Transport struct {
	opts Options

	mu       sync.Mutex
	frames   int
	sessions int
	last     live.Config
}

// New creates a mock transport. Zero options play DefaultTurns once.
func New(opts Options) *Transport {
	if opts.Turns == nil {
		opts.Turns = DefaultTurns
	}
	if opts.ChunkMillis <= 0 {
		opts.ChunkMillis = 100
	}
	return &Transport{opts: opts}
}

// Connect opens a simulated session.
func (t *Transport) Connect(ctx context.Context, cfg live.Config) (live.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.opts.ConnectError != nil {
		return nil, t.opts.ConnectError
	}

	t.mu.Lock()
	t.sessions++
	t.last = cfg
	t.mu.Unlock()

	s := &Session{
		transport: t,
		stream:    live.NewEventStream(32),
		notify:    make(chan struct{}, 1),
	}
	s.outbox = live.NewOutbox(cfg.SendQueue, s.receiveFrame, s.stream.Fail)
	go s.run()
	return s, nil
}

// FramesReceived returns how many capture frames reached the simulated model.
func (t *Transport) FramesReceived() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Sessions returns how many sessions were opened.
func (t *Transport) Sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions
}

// LastConfig returns the configuration of the most recent Connect.
func (t *Transport) LastConfig() live.Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Session is a simulated live session.
type Session struct {
	transport *Transport
	stream    *live.EventStream
	outbox    *live.Outbox

	mu       sync.Mutex
	received int
	notify   chan struct{}
}

var _ live.Session = (*Session)(nil)

// Send enqueues a capture frame.
func (s *Session) Send(frame []int16) error {
	return s.outbox.Push(frame)
}

// Events returns the simulated event stream.
func (s *Session) Events() <-chan live.Event {
	return s.stream.Events()
}

// Close ends the session. Idempotent.
func (s *Session) Close() error {
	s.outbox.Close()
	s.stream.Stop()
	return nil
}

func (s *Session) receiveFrame([]int16) error {
	s.mu.Lock()
	s.received++
	s.mu.Unlock()

	s.transport.mu.Lock()
	s.transport.frames++
	s.transport.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// waitFrames blocks until n frames arrived since the last call.
func (s *Session) waitFrames(n int) bool {
	for {
		s.mu.Lock()
		if s.received >= n {
			s.received -= n
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.stream.Stopped():
			return false
		}
	}
}

func (s *Session) run() {
	opts := s.transport.opts

	if opts.OpenDelay > 0 {
		select {
		case <-time.After(opts.OpenDelay):
		case <-s.stream.Stopped():
			s.stream.Finish(nil)
			return
		}
	}
	if !s.stream.Emit(live.Event{Kind: live.EventOpened}) {
		s.stream.Finish(nil)
		return
	}

	for _, turn := range opts.Turns {
		if !s.waitFrames(turn.AfterFrames) {
			s.stream.Finish(nil)
			return
		}
		if turn.Fail != nil {
			s.stream.Fail(turn.Fail)
			s.stream.Finish(nil)
			return
		}
		s.playTurn(turn, opts.ChunkMillis)
	}

	if !opts.CloseAtEnd {
		<-s.stream.Stopped()
	}
	s.stream.Finish(nil)
}

func (s *Session) playTurn(turn Turn, chunkMillis int) {
	for _, d := range turn.Input {
		s.stream.Emit(live.Event{Kind: live.EventInputTranscript, Text: d})
	}
	for _, d := range turn.Output {
		s.stream.Emit(live.Event{Kind: live.EventOutputTranscript, Text: d})
	}
	for i := 0; i < turn.AudioChunks; i++ {
		s.stream.Emit(live.Event{Kind: live.EventAudio, Audio: Tone(440, chunkMillis, i)})
	}
	for _, chunk := range turn.Audio {
		s.stream.Emit(live.Event{Kind: live.EventAudio, Audio: chunk})
	}
	if turn.Interrupt {
		s.stream.Emit(live.Event{Kind: live.EventInterrupted})
	}
	s.stream.Emit(live.Event{Kind: live.EventTurnComplete})
}

// Tone renders a sine chunk of the given length at the live output rate.
// seq offsets the phase so consecutive chunks join without clicks.
func Tone(freq float64, millis, seq int) []byte {
	n := audio.OutputSampleRate * millis / 1000
	out := make([]byte, n*2)
	offset := seq * n
	for i := 0; i < n; i++ {
		v := 0.2 * math.Sin(2*math.Pi*freq*float64(offset+i)/audio.OutputSampleRate)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*32767)))
	}
	return out
}
