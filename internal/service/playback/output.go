// Package playback schedules decoded reply audio gaplessly on an output clock.
package playback

import (
	"errors"

	"nirmana-assistant/internal/service/audio"
)

// ErrPlaybackUnavailable is returned when the output device cannot be opened.
var ErrPlaybackUnavailable = errors.New("playback: output unavailable")

// Clock reports the output's current time in seconds.
type Clock interface {
	Now() float64
}

// Source is one scheduled buffer.
type Source interface {
	// Start schedules playback at the given clock time. A time in the past
	// starts immediately.
	Start(at float64)

	// Stop silences the source and fires its ended callback.
	Stop()

	// OnEnded registers the callback fired once when playback finishes or
	// the source is stopped.
	OnEnded(fn func())
}

// Output is an audio sink with its own clock.
type Output interface {
	Clock
	NewSource(buf *audio.Buffer) Source
	Close() error
}

// OutputOpener opens an output at the requested format.
type OutputOpener func(sampleRate, channels int) (Output, error)
