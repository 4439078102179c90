// Package models defines the conversation data structures shared by the
// text chat, the voice pipeline and the event stream.
package models

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Source is a web reference attached to a grounded reply.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one entry of the append-only conversation.
type Message struct {
	ID        string   `json:"id"`
	Sender    Sender   `json:"sender"`
	Text      string   `json:"text"`
	Sources   []Source `json:"sources,omitempty"`
	IsLoading bool     `json:"isLoading,omitempty"`
}
