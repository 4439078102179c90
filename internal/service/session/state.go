// Package session owns the lifecycle of a live voice session: acquiring the
// microphone, speaker and transport, routing inbound events, and tearing
// everything down exactly once.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a voice session.
type State int

const (
	// StateIdle - no session resources held.
	StateIdle State = iota
	// StateConnecting - acquiring microphone, speaker and transport.
	StateConnecting
	// StateActive - transport open, capture streaming.
	StateActive
	// StateClosing - teardown in progress.
	StateClosing
	// StateClosed - stopped normally. Terminal for this session.
	StateClosed
	// StateErrored - failed; resources released. Terminal for this session.
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateErrored:
		return "ERRORED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// CanStart returns true if a new session may be started from this state.
func (s State) CanStart() bool {
	return s == StateIdle || s == StateClosed || s == StateErrored
}

// HoldsResources reports whether transport and capture are owned in this state.
func (s State) HoldsResources() bool {
	return s == StateConnecting || s == StateActive || s == StateClosing
}

// Errors for invalid state transitions.
var (
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrAlreadyRunning    = errors.New("voice session already running")
)

// TransitionError reports a rejected transition.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Lifecycle manages the state machine for a single voice session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → CONNECTING → ACTIVE → CLOSING → CLOSED
//	           │           │
//	           ├───────────┴──→ ERRORED
//	           └──→ CLOSING (stop while connecting)
//
// Rules:
//   - Connect is allowed from IDLE only; a finished session is replaced, not reused
//   - Fail wins only while CONNECTING or ACTIVE, so a stop in progress is never
//     reported as an error
type Lifecycle struct {
	mu        sync.RWMutex
	sessionId string
	state     State
}

// NewLifecycle creates a new session lifecycle in IDLE state.
func NewLifecycle(sessionId string) *Lifecycle {
	return &Lifecycle{
		sessionId: sessionId,
		state:     StateIdle,
	}
}

// SessionId returns the session ID.
func (l *Lifecycle) SessionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionId
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Lifecycle) transition(to State, from ...State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range from {
		if l.state == f {
			l.state = to
			return nil
		}
	}
	return &TransitionError{From: l.state, To: to}
}

// Connect transitions IDLE → CONNECTING.
func (l *Lifecycle) Connect() error {
	return l.transition(StateConnecting, StateIdle)
}

// Open transitions CONNECTING → ACTIVE.
func (l *Lifecycle) Open() error {
	return l.transition(StateActive, StateConnecting)
}

// BeginClose transitions CONNECTING or ACTIVE → CLOSING.
func (l *Lifecycle) BeginClose() error {
	return l.transition(StateClosing, StateConnecting, StateActive)
}

// Finish transitions CLOSING → CLOSED.
func (l *Lifecycle) Finish() error {
	return l.transition(StateClosed, StateClosing)
}

// Fail transitions CONNECTING or ACTIVE → ERRORED.
// Returns true if the session was failed, false if it was already closing or
// in a terminal state.
func (l *Lifecycle) Fail() bool {
	return l.transition(StateErrored, StateConnecting, StateActive) == nil
}
