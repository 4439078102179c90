package conversation

import (
	"strings"
	"sync"
)

// TranscriptAccumulator collects the user and model speech-to-text deltas of
// the current voice turn until the turn completes.
type TranscriptAccumulator struct {
	mu     sync.Mutex
	input  strings.Builder
	output strings.Builder
}

// AppendInput appends a user speech delta.
func (a *TranscriptAccumulator) AppendInput(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input.WriteString(text)
}

// AppendOutput appends a model speech delta.
func (a *TranscriptAccumulator) AppendOutput(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output.WriteString(text)
}

// Pending returns the text accumulated so far without resetting it.
func (a *TranscriptAccumulator) Pending() (input, output string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input.String(), a.output.String()
}

// Flush returns both buffers and resets them to empty.
func (a *TranscriptAccumulator) Flush() (input, output string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	input, output = a.input.String(), a.output.String()
	a.input.Reset()
	a.output.Reset()
	return input, output
}
