// Package illustration generates scene pictures for the story in two
// steps: a text model condenses the latest narration into an image
// prompt, then an image model renders it.
package illustration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fableforge/whatif/domain/entities"
)

const (
	// PromptModel condenses narration into an image prompt.
	PromptModel = "gemini-2.5-flash"

	defaultTimeout = 45 * time.Second
)

// ImageModels is the ordered fallback list for rendering. A model that
// is rate limited or unavailable yields to the next one.
var ImageModels = []string{
	"imagen-4.0-generate-001",
	"imagen-4.0-fast-generate-001",
	"imagen-3.0-generate-002",
}

// ErrAllModelsExhausted is returned when every image model in the
// fallback list was rate limited or unavailable.
var ErrAllModelsExhausted = errors.New("all image models exhausted")

// GeminiIllustrator implements repositories.Illustrator on the Gemini
// API. The generate functions are fields so tests can substitute them.
type GeminiIllustrator struct {
	logger      *zap.Logger
	promptModel string
	imageModels []string

	generateText  func(ctx context.Context, model, prompt string) (string, error)
	generateImage func(ctx context.Context, model, prompt string) ([]byte, error)
}

// NewGeminiIllustrator builds an illustrator over the given client.
func NewGeminiIllustrator(client *genai.Client, logger *zap.Logger) *GeminiIllustrator {
	return &GeminiIllustrator{
		logger:        logger,
		promptModel:   PromptModel,
		imageModels:   ImageModels,
		generateText:  textGenerator(client),
		generateImage: imageGenerator(client),
	}
}

// Illustrate produces a PNG data URL depicting the given story excerpt.
func (g *GeminiIllustrator) Illustrate(ctx context.Context, storyText string, audience entities.Audience) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	imagePrompt, err := g.generateText(ctx, g.promptModel, buildPromptRequest(storyText, audience))
	if err != nil {
		return "", fmt.Errorf("failed to generate image prompt: %w", err)
	}
	if imagePrompt == "" {
		return "", errors.New("empty image prompt")
	}

	png, err := g.renderWithFallback(ctx, imagePrompt)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// renderWithFallback walks the model list in order. Quota exhaustion
// (429) and unknown model (404) move to the next entry; any other error
// is terminal.
func (g *GeminiIllustrator) renderWithFallback(ctx context.Context, prompt string) ([]byte, error) {
	for _, model := range g.imageModels {
		png, err := g.generateImage(ctx, model, prompt)
		if err == nil {
			return png, nil
		}

		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code == 404) {
			g.logger.Warn("Image model unavailable, trying fallback",
				zap.String("model", model),
				zap.Int("code", apiErr.Code))
			continue
		}
		return nil, fmt.Errorf("failed to generate image with %s: %w", model, err)
	}
	return nil, ErrAllModelsExhausted
}

func buildPromptRequest(storyText string, audience entities.Audience) string {
	return fmt.Sprintf(
		"Based on the following story excerpt, create a short, visually descriptive prompt for an image generation model. "+
			"The style should be a whimsical, colorful children's book illustration. %s "+
			"Describe only the scene, in one or two sentences.\n\nStory excerpt: %q",
		entities.CharacterDescription(audience), storyText)
}

func textGenerator(client *genai.Client) func(ctx context.Context, model, prompt string) (string, error) {
	return func(ctx context.Context, model, prompt string) (string, error) {
		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
		response, err := client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{})
		if err != nil {
			return "", err
		}
		if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
			return "", errors.New("no candidates returned")
		}
		var text string
		for _, part := range response.Candidates[0].Content.Parts {
			if part != nil {
				text += part.Text
			}
		}
		return text, nil
	}
}

func imageGenerator(client *genai.Client) func(ctx context.Context, model, prompt string) ([]byte, error) {
	return func(ctx context.Context, model, prompt string) ([]byte, error) {
		response, err := client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
			OutputMIMEType: "image/png",
			AspectRatio:    "4:3",
		})
		if err != nil {
			return nil, err
		}
		if len(response.GeneratedImages) == 0 || response.GeneratedImages[0].Image == nil {
			return nil, errors.New("no image returned")
		}
		return response.GeneratedImages[0].Image.ImageBytes, nil
	}
}
