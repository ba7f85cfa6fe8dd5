package guidance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// GeminiNarrator writes guidance with the Gemini API. When a model reports
// quota exhaustion the next model in the list is tried.
type GeminiNarrator struct {
	client *genai.Client
	models []string
}

func NewGeminiNarrator(ctx context.Context, apiKey string, models ...string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if len(models) == 0 {
		models = []string{"gemini-2.0-flash", "gemini-1.5-flash"}
	}
	return &GeminiNarrator{client: client, models: models}, nil
}

func (n *GeminiNarrator) Name() string { return "gemini:" + n.models[0] }

func (n *GeminiNarrator) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}

	var lastErr error
	for _, model := range n.models {
		resp, err := n.client.Models.GenerateContent(ctx, model, genai.Text(user), cfg)
		if err == nil {
			return resp.Text(), nil
		}
		lastErr = classifyGeminiError(err)
		if !errors.Is(lastErr, ErrQuota) {
			break
		}
		log.Printf("Gemini model %s over quota, trying next model", model)
	}
	return "", fmt.Errorf("gemini generate content error: %w", lastErr)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classify(statusKind(apiErr.Code), err)
	}
	return classify(transportError(err), err)
}
