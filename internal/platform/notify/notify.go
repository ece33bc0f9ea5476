// Package notify implements the single transient inline-message channel.
// Every user-visible success or failure is published here; the current
// message self-clears after a short fixed delay, matching the one-slot
// toast of the clinic UI.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is how long a published message stays visible.
const DefaultTTL = 1400 * time.Millisecond

// Level classifies a message for rendering.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Message is the currently visible inline message.
type Message struct {
	Level    Level     `json:"level"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
}

// Center holds at most one visible message at a time. Publishing replaces
// whatever was there before.
type Center struct {
	mu  sync.Mutex
	msg *Message
	ttl time.Duration
	now func() time.Time
}

// NewCenter returns a Center with the default TTL.
func NewCenter() *Center {
	return &Center{ttl: DefaultTTL, now: time.Now}
}

// Publish replaces the current message.
func (c *Center) Publish(level Level, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = &Message{Level: level, Text: fmt.Sprintf(format, args...), PostedAt: c.now()}
}

// Info publishes an informational message.
func (c *Center) Info(format string, args ...any) { c.Publish(LevelInfo, format, args...) }

// Error publishes an error message.
func (c *Center) Error(format string, args ...any) { c.Publish(LevelError, format, args...) }

// Current returns the visible message, if any. An expired message is
// cleared and reported as absent.
func (c *Center) Current() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msg == nil {
		return Message{}, false
	}
	if c.now().Sub(c.msg.PostedAt) > c.ttl {
		c.msg = nil
		return Message{}, false
	}
	return *c.msg, true
}
