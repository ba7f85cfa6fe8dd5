package guidance

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAINarrator writes guidance with the chat completions API.
type OpenAINarrator struct {
	client *openai.Client
	model  string
}

func NewOpenAINarrator(client *openai.Client, model string) *OpenAINarrator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAINarrator{client: client, model: model}
}

func (n *OpenAINarrator) Name() string { return "openai:" + n.model }

func (n *OpenAINarrator) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := n.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: n.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
			Temperature: 0.3,
			MaxTokens:   800,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmpty
	}
	return resp.Choices[0].Message.Content, nil
}

type wrapped struct {
	kind  error
	cause error
}

func (w wrapped) Error() string   { return w.kind.Error() + ": " + w.cause.Error() }
func (w wrapped) Unwrap() []error { return []error{w.kind, w.cause} }

func classify(kind, cause error) error {
	if kind == nil {
		return cause
	}
	return wrapped{kind: kind, cause: cause}
}

func statusKind(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrQuota
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code >= 500:
		return ErrNetwork
	}
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classify(statusKind(apiErr.HTTPStatusCode), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classify(statusKind(reqErr.HTTPStatusCode), err)
	}
	return classify(transportError(err), err)
}
