// Package conversation holds the append-only message history shared by the
// text chat and the voice pipeline.
package conversation

import (
	"sync"

	"nirmana-assistant/internal/models"
)

// Listener is notified after messages are appended, in append order.
type Listener func(models.Message)

// Log is the append-only conversation. Messages are never mutated or removed
// once appended.
type Log struct {
	mu        sync.RWMutex
	messages  []models.Message
	listeners []Listener
}

// NewLog creates a conversation seeded with the given messages.
func NewLog(seed ...models.Message) *Log {
	l := &Log{}
	l.messages = append(l.messages, seed...)
	return l
}

// Subscribe registers a listener for future appends.
func (l *Log) Subscribe(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Append adds msgs as a single atomic step; no other append can interleave
// between them.
func (l *Log) Append(msgs ...models.Message) {
	if len(msgs) == 0 {
		return
	}
	l.mu.Lock()
	l.messages = append(l.messages, msgs...)
	listeners := l.listeners
	l.mu.Unlock()

	for _, m := range msgs {
		for _, fn := range listeners {
			fn(m)
		}
	}
}

// Messages returns a snapshot of the conversation.
func (l *Log) Messages() []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
