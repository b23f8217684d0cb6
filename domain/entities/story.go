package entities

import (
	"time"

	"github.com/google/uuid"
)

// Story is a finished conversation archived at the "new story" boundary.
type Story struct {
	ID         string             `json:"id" bson:"_id,omitempty"`
	StartedAt  time.Time          `json:"started_at" bson:"started_at"`
	EndedAt    time.Time          `json:"ended_at" bson:"ended_at"`
	Audience   Audience           `json:"audience" bson:"audience"`
	StoryLevel int                `json:"story_level" bson:"story_level"`
	Turns      []ConversationTurn `json:"turns" bson:"turns"`
}

// NewStoryFromLog captures the current log as an archived story. Returns
// nil for an empty log; there is nothing worth keeping.
func NewStoryFromLog(log *ConversationLog, audience Audience, level int) *Story {
	turns := log.Snapshot()
	if len(turns) == 0 {
		return nil
	}
	return &Story{
		ID:         uuid.NewString(),
		StartedAt:  turns[0].Timestamp,
		EndedAt:    time.Now(),
		Audience:   audience,
		StoryLevel: level,
		Turns:      turns,
	}
}
