package illustration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fableforge/whatif/domain/entities"
)

func newTestIllustrator(
	text func(ctx context.Context, model, prompt string) (string, error),
	image func(ctx context.Context, model, prompt string) ([]byte, error),
) *GeminiIllustrator {
	return &GeminiIllustrator{
		logger:        zap.NewNop(),
		promptModel:   PromptModel,
		imageModels:   []string{"primary", "secondary", "tertiary"},
		generateText:  text,
		generateImage: image,
	}
}

func TestIllustrateProducesDataURL(t *testing.T) {
	ill := newTestIllustrator(
		func(_ context.Context, model, prompt string) (string, error) {
			if model != PromptModel {
				t.Errorf("unexpected prompt model %s", model)
			}
			if !strings.Contains(prompt, "King") {
				t.Error("prompt request must carry the character description")
			}
			if !strings.Contains(prompt, "a dragon appeared") {
				t.Error("prompt request must carry the story excerpt")
			}
			return "A dragon over a castle", nil
		},
		func(_ context.Context, model, prompt string) ([]byte, error) {
			if prompt != "A dragon over a castle" {
				t.Errorf("unexpected image prompt %q", prompt)
			}
			return []byte{0x89, 'P', 'N', 'G'}, nil
		},
	)

	url, err := ill.Illustrate(context.Background(), "a dragon appeared", entities.AudienceKing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("expected a png data url, got %q", url)
	}
}

func TestIllustrateFallsBackOnQuotaAndNotFound(t *testing.T) {
	var tried []string
	ill := newTestIllustrator(
		func(context.Context, string, string) (string, error) { return "scene", nil },
		func(_ context.Context, model, _ string) ([]byte, error) {
			tried = append(tried, model)
			switch model {
			case "primary":
				return nil, genai.APIError{Code: 429, Message: "quota exceeded"}
			case "secondary":
				return nil, genai.APIError{Code: 404, Message: "model not found"}
			default:
				return []byte{1}, nil
			}
		},
	)

	if _, err := ill.Illustrate(context.Background(), "story", entities.AudienceBoth); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tried) != 3 {
		t.Errorf("expected all three models tried in order, got %v", tried)
	}
}

func TestIllustrateStopsOnTerminalError(t *testing.T) {
	var tried []string
	terminal := genai.APIError{Code: 400, Message: "invalid prompt"}
	ill := newTestIllustrator(
		func(context.Context, string, string) (string, error) { return "scene", nil },
		func(_ context.Context, model, _ string) ([]byte, error) {
			tried = append(tried, model)
			return nil, terminal
		},
	)

	_, err := ill.Illustrate(context.Background(), "story", entities.AudienceEmpress)
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Errorf("expected the wrapped terminal error, got %v", err)
	}
	if len(tried) != 1 {
		t.Errorf("terminal error must not trigger fallback, tried %v", tried)
	}
}

func TestIllustrateExhaustsAllModels(t *testing.T) {
	ill := newTestIllustrator(
		func(context.Context, string, string) (string, error) { return "scene", nil },
		func(context.Context, string, string) ([]byte, error) {
			return nil, genai.APIError{Code: 429}
		},
	)

	_, err := ill.Illustrate(context.Background(), "story", entities.AudienceKing)
	if !errors.Is(err, ErrAllModelsExhausted) {
		t.Errorf("expected ErrAllModelsExhausted, got %v", err)
	}
}

func TestIllustrateFailsOnEmptyPrompt(t *testing.T) {
	ill := newTestIllustrator(
		func(context.Context, string, string) (string, error) { return "", nil },
		func(context.Context, string, string) ([]byte, error) {
			t.Fatal("image generation must not run without a prompt")
			return nil, nil
		},
	)

	if _, err := ill.Illustrate(context.Background(), "story", entities.AudienceKing); err == nil {
		t.Error("expected an error for an empty prompt")
	}
}

func TestIllustratePropagatesPromptError(t *testing.T) {
	boom := errors.New("upstream down")
	ill := newTestIllustrator(
		func(context.Context, string, string) (string, error) { return "", boom },
		func(context.Context, string, string) ([]byte, error) { return nil, nil },
	)

	if _, err := ill.Illustrate(context.Background(), "story", entities.AudienceKing); !errors.Is(err, boom) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}
