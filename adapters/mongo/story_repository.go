package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fableforge/whatif/domain/entities"
	"github.com/fableforge/whatif/domain/repositories"
)

type StoryRepository struct {
	collection *mongo.Collection
}

// NewStoryRepository creates a new MongoDB story repository
func NewStoryRepository(db *mongo.Database) repositories.StoryRepository {
	return &StoryRepository{
		collection: db.Collection("stories"),
	}
}

// Save implements repositories.StoryRepository
func (r *StoryRepository) Save(ctx context.Context, story *entities.Story) error {
	if story == nil {
		return errors.New("story cannot be nil")
	}
	if story.ID == "" {
		return errors.New("story ID cannot be empty")
	}

	if _, err := r.collection.InsertOne(ctx, story); err != nil {
		return fmt.Errorf("failed to save story: %w", err)
	}
	return nil
}

// List implements repositories.StoryRepository
func (r *StoryRepository) List(ctx context.Context, limit int) ([]entities.Story, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.M{"ended_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer cursor.Close(ctx)

	var stories []entities.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("failed to decode stories: %w", err)
	}
	return stories, nil
}
