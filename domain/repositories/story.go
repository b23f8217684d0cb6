package repositories

import (
	"context"

	"github.com/fableforge/whatif/domain/entities"
)

// StoryRepository persists finished stories at the new-story boundary.
type StoryRepository interface {
	Save(ctx context.Context, story *entities.Story) error
	// List returns the most recent stories, newest first.
	List(ctx context.Context, limit int) ([]entities.Story, error)
}
