package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/capture"
	"nirmana-assistant/internal/service/conversation"
	"nirmana-assistant/internal/service/live"
	"nirmana-assistant/internal/service/playback"
)

// VoiceSession owns every resource of one listening period. Resources are
// attached once acquisition succeeds and released exactly once by teardown.
type VoiceSession struct {
	lifecycle  *Lifecycle
	startedAt  time.Time
	transcript conversation.TranscriptAccumulator
	log        zerolog.Logger
	done       chan struct{}

	// acquired is closed once Start has attached or released the resources
	// it was acquiring.
	acquired chan struct{}

	mu        sync.Mutex
	cancel    context.CancelFunc
	transport live.Session
	capture   *capture.Handle
	output    playback.Output
	scheduler *playback.Scheduler
}

func newVoiceSession(id string) *VoiceSession {
	return &VoiceSession{
		lifecycle: NewLifecycle(id),
		startedAt: time.Now(),
		log:       logging.WithSession(id),
		done:      make(chan struct{}),
		acquired:  make(chan struct{}),
	}
}

// ID returns the session ID.
func (s *VoiceSession) ID() string {
	return s.lifecycle.SessionId()
}

// State returns the session's lifecycle state.
func (s *VoiceSession) State() State {
	return s.lifecycle.State()
}

// Done is closed when the session's dispatch loop has exited.
func (s *VoiceSession) Done() <-chan struct{} {
	return s.done
}

// Resources reports which handles are currently held.
func (s *VoiceSession) Resources() (transport, capture, output bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil, s.capture != nil, s.output != nil
}

// attach installs acquired resources. It fails if the session was stopped
// while they were being acquired.
func (s *VoiceSession) attach(t live.Session, c *capture.Handle, o playback.Output, sch *playback.Scheduler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifecycle.State() != StateConnecting {
		return false
	}
	s.transport, s.capture, s.output, s.scheduler = t, c, o, sch
	return true
}

func (s *VoiceSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// abortAcquisition cancels an in-flight Start and waits until whatever it
// had acquired is released or attached.
func (s *VoiceSession) abortAcquisition() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-s.acquired
}

func (s *VoiceSession) playback() *playback.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler
}

func (s *VoiceSession) input() (*capture.Handle, live.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture, s.transport
}

// teardown releases every held resource. Safe to call repeatedly and
// concurrently; only the first call does any work.
func (s *VoiceSession) teardown() {
	s.mu.Lock()
	t, c, o, sch := s.transport, s.capture, s.output, s.scheduler
	s.transport, s.capture, s.output, s.scheduler = nil, nil, nil, nil
	s.mu.Unlock()

	if t != nil {
		if err := t.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Transport close error")
		}
	}
	if c != nil {
		c.Stop()
	}
	if sch != nil {
		sch.InterruptAll()
	}
	if o != nil {
		if err := o.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Output close error")
		}
	}
	if t != nil || c != nil || o != nil {
		s.log.Info().Msg("Voice session resources released")
	}
}
