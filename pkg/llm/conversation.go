// Package llm holds the vendor-neutral conversation types shared by the
// provider adapters and the chat render loop.
package llm

import "sync"

// Conversation is an ordered, append-only turn history owned by one session.
// Readers may inspect it while a vendor call is in flight.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewConversation creates an empty conversation, optionally seeded with turns.
func NewConversation(seed ...Turn) *Conversation {
	c := &Conversation{}
	if len(seed) > 0 {
		c.turns = append(make([]Turn, 0, len(seed)), seed...)
	}
	return c
}

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(t Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the turn history, oldest first.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}
