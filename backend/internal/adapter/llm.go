package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "continuum/backend/pkg/errors"
	"continuum/backend/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// FallbackSummary is used when no LLM is configured or the request fails
	FallbackSummary = "Session completed. Great work staying focused!"

	maxExtractedEntities = 10
	defaultMaxRetries    = 3
)

// LLMAdapter talks to any OpenAI-compatible chat completion endpoint
type LLMAdapter struct {
	client     chatClient
	model      string
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *zap.Logger
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewLLMAdapter creates an adapter. An empty baseURL uses the OpenAI API.
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// OpenAI-compatible proxies accept any key
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	}

	return &LLMAdapter{
		client:     openai.NewClientWithConfig(config),
		model:      modelID,
		maxRetries: defaultMaxRetries,
		backoff:    func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		logger:     logger.Named("llm"),
	}
}

// Model returns the configured model id
func (a *LLMAdapter) Model() string {
	return a.model
}

// Generate sends a system and user message and returns the reply text
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	return a.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userMsg},
	})
}

// complete runs one chat completion, retrying failures that may succeed on
// a later attempt
func (a *LLMAdapter) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: 0.4,
	}

	var resp openai.ChatCompletionResponse
	var err error
	attempts := 0
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.backoff(attempt)
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		attempts++
		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		err = apperrors.NewLLMFailed(a.model, attempts, statusCode(err), err)
		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.String("model", a.model),
		)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !apperrors.IsRetryable(err) {
			break
		}
	}

	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewLLMFailed(a.model, attempts, 0, fmt.Errorf("no choices in LLM response"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.logger.Debug("LLM response generated",
		zap.String("model", a.model),
		zap.Int("length", len(content)),
	)
	return content, nil
}

// statusCode extracts the HTTP status from a go-openai error, or 0 when the
// request never got a response
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
