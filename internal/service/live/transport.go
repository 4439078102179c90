// Package live defines the bidirectional session transport to the live model.
package live

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps failures reported by the remote side or the connection.
	ErrTransport = errors.New("live: transport error")

	// ErrSessionClosed is returned by Send after the session was closed.
	ErrSessionClosed = errors.New("live: session closed")
)

// EventKind tags an inbound session event.
type EventKind int

const (
	EventOpened EventKind = iota
	EventInputTranscript
	EventOutputTranscript
	EventAudio
	EventInterrupted
	EventTurnComplete
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventInputTranscript:
		return "input_transcript"
	case EventOutputTranscript:
		return "output_transcript"
	case EventAudio:
		return "audio"
	case EventInterrupted:
		return "interrupted"
	case EventTurnComplete:
		return "turn_complete"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// IsTerminal reports whether no further events follow this kind.
func (k EventKind) IsTerminal() bool {
	return k == EventError || k == EventClosed
}

// Event is one inbound occurrence on a session.
type Event struct {
	Kind EventKind

	// Text carries the delta for transcript events.
	Text string

	// Audio carries raw 16-bit PCM at audio.OutputSampleRate for EventAudio.
	Audio []byte

	// Err is set for EventError.
	Err error
}

// Config describes the session requested from the live model.
type Config struct {
	Model             string
	SystemInstruction string

	// SessionID tags the adapter's logs with the owning voice session.
	SessionID string

	// InputTranscription and OutputTranscription request transcript deltas
	// for the user's speech and the model's speech respectively.
	InputTranscription  bool
	OutputTranscription bool

	SendQueue QueueConfig
}

// Session is an open connection to the live model.
//
// Events are delivered in the order the remote produced them. Within a single
// server message the order is: input delta, output delta, audio parts,
// interrupted, turn complete. The channel is closed after a terminal event, or
// without one when the session was closed locally.
type Session interface {
	// Send enqueues one capture frame. It never blocks on the network.
	Send(frame []int16) error

	// Events returns the inbound event stream.
	Events() <-chan Event

	// Close tears the connection down without waiting for the remote.
	Close() error
}

// Transport opens sessions. Implementations: genai, websocket, mock.
type Transport interface {
	Connect(ctx context.Context, cfg Config) (Session, error)
}
