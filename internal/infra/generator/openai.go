package generator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/resilience/circuitbreaker"
	"market-pulse/internal/resilience/retry"
)

// OpenAI generates text with the Chat Completions API.
// It has no search grounding, so replies never carry citations.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	guard     *guard
}

// NewOpenAI creates an OpenAI generator from cfg.
func NewOpenAI(cfg Config) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	slog.Info("Initialized OpenAI generator", slog.String("model", cfg.model()))
	return &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.model(),
		maxTokens: cfg.maxTokens(),
		guard:     newGuard(string(ProviderOpenAI), cfg.model(), cfg.Timeout, circuitbreaker.OpenAIAPIConfig(), NewPrometheusMetrics()),
	}
}

// Generate implements newsfetch.Generator. useSearchGrounding is ignored.
func (o *OpenAI) Generate(ctx context.Context, prompt, instruction string, useSearchGrounding bool) (*entity.RawResponse, error) {
	if useSearchGrounding {
		slog.DebugContext(ctx, "openai generator does not support search grounding")
	}
	return o.guard.run(ctx, func(ctx context.Context) (*entity.RawResponse, error) {
		return o.doGenerate(ctx, prompt, instruction)
	})
}

func (o *OpenAI) doGenerate(ctx context.Context, prompt, instruction string) (*entity.RawResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return nil, openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return &entity.RawResponse{}, nil
	}
	return &entity.RawResponse{Text: resp.Choices[0].Message.Content}, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: http.StatusText(reqErr.HTTPStatusCode)}
	}
	return err
}
