package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type client struct {
	api     *openai.Client
	timeout time.Duration
}

// NewClient creates a chat completion client for an OpenAI-compatible endpoint.
// Every call is bounded by timeout.
func NewClient(token, baseURL string, timeout time.Duration) (*client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	config := openai.DefaultConfig(token)
	config.BaseURL, _ = lo.Coalesce(strings.TrimRight(baseURL, "/"), DefaultBaseURL)

	return &client{
		api:     openai.NewClientWithConfig(config),
		timeout: timeout,
	}, nil
}

// Complete sends the whole transcript and returns the assistant reply.
// Any failure is returned as *domain.InferenceError.
func (c *client) Complete(ctx context.Context, model string, transcript []domain.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := lo.Map(transcript, func(t domain.Turn, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content}
	})

	slog.DebugContext(ctx, "Requesting chat completion", "model", model, "messagesCount", len(messages))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", &domain.InferenceError{Model: model, StatusCode: statusCode(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &domain.InferenceError{Model: model, Err: fmt.Errorf("no choices in response: %w", domain.ErrEmptyReply)}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &domain.InferenceError{Model: model, Err: fmt.Errorf("finish reason %q: %w", resp.Choices[0].FinishReason, domain.ErrEmptyReply)}
	}

	slog.DebugContext(ctx, "Chat completion received", "model", resp.Model, "totalTokens", resp.Usage.TotalTokens)

	return content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	return 0
}
