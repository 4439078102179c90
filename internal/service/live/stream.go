package live

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// EventStream is the inbound half of a session. Exactly one goroutine, the
// adapter's receive loop, may call Emit and Finish.
type EventStream struct {
	ch       chan Event
	stop     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	cause error
}

// NewEventStream creates a stream with the given channel buffer.
func NewEventStream(buffer int) *EventStream {
	return &EventStream{
		ch:   make(chan Event, buffer),
		stop: make(chan struct{}),
	}
}

// Events returns the receive side of the stream.
func (s *EventStream) Events() <-chan Event {
	return s.ch
}

// Emit delivers ev unless the stream was stopped locally.
func (s *EventStream) Emit(ev Event) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.ch <- ev:
		return true
	case <-s.stop:
		return false
	}
}

// Fail records the first send-side failure. The receive loop reports it in
// place of whatever error the torn-down connection produces.
func (s *EventStream) Fail(err error) {
	s.mu.Lock()
	if s.cause == nil {
		s.cause = err
	}
	s.mu.Unlock()
}

// Cause returns the error recorded by Fail.
func (s *EventStream) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Stop marks the stream as closed locally. Pending and future Emits are dropped.
func (s *EventStream) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Stopped returns a channel closed by Stop.
func (s *EventStream) Stopped() <-chan struct{} {
	return s.stop
}

// Finish ends the stream. recvErr is the error that ended the receive loop,
// nil for a clean remote close.
func (s *EventStream) Finish(recvErr error) {
	defer close(s.ch)

	select {
	case <-s.stop:
		return
	default:
	}

	if cause := s.Cause(); cause != nil {
		s.Emit(Event{Kind: EventError, Err: cause})
		return
	}
	if recvErr == nil || IsNormalClose(recvErr) {
		s.Emit(Event{Kind: EventClosed})
		return
	}
	if !errors.Is(recvErr, ErrTransport) {
		recvErr = errors.Join(ErrTransport, recvErr)
	}
	s.Emit(Event{Kind: EventError, Err: recvErr})
}

// IsNormalClose reports whether err is a clean websocket close from the remote.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
