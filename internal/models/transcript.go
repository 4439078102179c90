package models

// Event types published on the conversation stream.
const (
	EventTranscriptDelta = "assistant.transcript.delta"
	EventMessageAppended = "assistant.conversation.message"
)

// Transcript directions.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// TranscriptDelta is an incremental speech-to-text fragment from a live session.
type TranscriptDelta struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Direction string `json:"direction"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// MessageAppended is emitted for every message added to the conversation.
type MessageAppended struct {
	EventType string  `json:"eventType"`
	SessionID string  `json:"sessionId,omitempty"`
	Origin    string  `json:"origin"` // voice, text
	Message   Message `json:"message"`
	Timestamp int64   `json:"timestamp"`
}
