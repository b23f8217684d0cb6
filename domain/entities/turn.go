package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// ConversationTurn is one contiguous utterance by a single role. A turn
// accumulates text while non-final and becomes immutable once finalized.
type ConversationTurn struct {
	ID        string    `json:"id" bson:"id"`
	Role      Role      `json:"role" bson:"role"`
	Text      string    `json:"text" bson:"text"`
	Final     bool      `json:"is_final" bson:"is_final"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ConversationLog is the append-only sequence of turns. Only the tail
// entry may be mutated; everything before it is immutable history.
type ConversationLog struct {
	mu    sync.RWMutex
	turns []ConversationTurn
}

// Append adds a new turn at the tail and returns it.
func (l *ConversationLog) Append(role Role, text string, final bool) ConversationTurn {
	turn := ConversationTurn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Final:     final,
		Timestamp: time.Now(),
	}
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
	return turn
}

// AmendTail replaces the tail turn's text and final flag. It is a no-op on
// an empty log and returns the resulting tail.
func (l *ConversationLog) AmendTail(text string, final bool) (ConversationTurn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.turns) == 0 {
		return ConversationTurn{}, false
	}
	tail := &l.turns[len(l.turns)-1]
	tail.Text = text
	tail.Final = final
	return *tail, true
}

// FinalizeTail marks the tail turn final. Finalizing an already-final tail
// is a no-op; the second return reports whether this call changed state.
func (l *ConversationLog) FinalizeTail() (ConversationTurn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.turns) == 0 {
		return ConversationTurn{}, false
	}
	tail := &l.turns[len(l.turns)-1]
	if tail.Final {
		return *tail, false
	}
	tail.Final = true
	return *tail, true
}

// Tail returns the most recent turn.
func (l *ConversationLog) Tail() (ConversationTurn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return ConversationTurn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// Snapshot returns a copy of all turns in insertion order.
func (l *ConversationLog) Snapshot() []ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ConversationTurn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Clear drops every turn, the "new story" boundary.
func (l *ConversationLog) Clear() {
	l.mu.Lock()
	l.turns = nil
	l.mu.Unlock()
}
