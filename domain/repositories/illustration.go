package repositories

import (
	"context"

	"github.com/fableforge/whatif/domain/entities"
)

// Illustrator turns a finished story fragment into a companion picture.
// The result is a PNG data URL; an empty string with a nil error is never
// returned. Illustration is decorative: callers treat failures as a
// missing picture, not a broken story.
type Illustrator interface {
	Illustrate(ctx context.Context, storyText string, audience entities.Audience) (string, error)
}
