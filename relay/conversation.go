package relay

import (
	"sync"

	"github.com/mrsingh-rishi/voice-relay/model"
)

// Conversation is the ordered transcript of one call, owned by its Session.
// Turns are append-only and read in full on every reply generation.
type Conversation struct {
	mu    sync.Mutex
	turns []model.Turn
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation { return &Conversation{} }

// Append records a turn in arrival order.
func (c *Conversation) Append(role model.Role, text string) {
	c.mu.Lock()
	c.turns = append(c.turns, model.Turn{Role: role, Text: text})
	c.mu.Unlock()
}

// Snapshot returns a copy of all turns so far.
func (c *Conversation) Snapshot() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of recorded turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}
