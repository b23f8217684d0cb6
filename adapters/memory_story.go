package adapters

import (
	"context"
	"sync"

	"github.com/fableforge/whatif/domain/entities"
)

// MemoryStoryRepository is an in-memory implementation of StoryRepository.
// It is the storage backend when no MongoDB connection is configured, so
// a session still keeps its archive for the lifetime of the process.
type MemoryStoryRepository struct {
	mu      sync.RWMutex
	stories []entities.Story // append order, oldest first
}

// NewMemoryStoryRepository creates a new in-memory story repository
func NewMemoryStoryRepository() *MemoryStoryRepository {
	return &MemoryStoryRepository{}
}

// Save implements StoryRepository interface
func (m *MemoryStoryRepository) Save(ctx context.Context, story *entities.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories = append(m.stories, *story)
	return nil
}

// List implements StoryRepository interface, returning newest first
func (m *MemoryStoryRepository) List(ctx context.Context, limit int) ([]entities.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.stories) {
		limit = len(m.stories)
	}

	out := make([]entities.Story, 0, limit)
	for i := len(m.stories) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.stories[i])
	}
	return out, nil
}
