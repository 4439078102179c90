// Package schema validates conversation events before they leave the process.
package schema

import (
	"errors"
	"fmt"

	"nirmana-assistant/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the required fields of a known event type. Unknown event
// types are rejected.
func (v *Validator) Validate(event any) error {
	switch ev := event.(type) {
	case models.TranscriptDelta:
		return v.validateDelta(ev)
	case *models.TranscriptDelta:
		return v.validateDelta(*ev)
	case models.MessageAppended:
		return v.validateMessage(ev)
	case *models.MessageAppended:
		return v.validateMessage(*ev)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidEvent, event)
	}
}

func (v *Validator) validateDelta(ev models.TranscriptDelta) error {
	if ev.EventType != models.EventTranscriptDelta {
		return fmt.Errorf("%w: eventType %q", ErrInvalidEvent, ev.EventType)
	}
	if ev.SessionID == "" {
		return fmt.Errorf("%w: missing sessionId", ErrInvalidEvent)
	}
	if ev.Direction != models.DirectionInput && ev.Direction != models.DirectionOutput {
		return fmt.Errorf("%w: direction %q", ErrInvalidEvent, ev.Direction)
	}
	return nil
}

func (v *Validator) validateMessage(ev models.MessageAppended) error {
	if ev.EventType != models.EventMessageAppended {
		return fmt.Errorf("%w: eventType %q", ErrInvalidEvent, ev.EventType)
	}
	if ev.Message.ID == "" {
		return fmt.Errorf("%w: missing message id", ErrInvalidEvent)
	}
	if !ev.Message.Sender.Valid() {
		return fmt.Errorf("%w: sender %q", ErrInvalidEvent, ev.Message.Sender)
	}
	return nil
}
