package generator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/resilience/circuitbreaker"
	"market-pulse/internal/resilience/retry"
)

// Claude generates text with Anthropic's Messages API.
// It has no search grounding, so replies never carry citations.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int
	guard     *guard
}

// NewClaude creates a Claude generator from cfg. The SDK's own retries are
// disabled; the news fetcher decides when to try again.
func NewClaude(cfg Config) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	slog.Info("Initialized Claude generator", slog.String("model", cfg.model()))
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     cfg.model(),
		maxTokens: cfg.maxTokens(),
		guard:     newGuard(string(ProviderClaude), cfg.model(), cfg.Timeout, circuitbreaker.ClaudeAPIConfig(), NewPrometheusMetrics()),
	}
}

// Generate implements newsfetch.Generator. useSearchGrounding is ignored.
func (c *Claude) Generate(ctx context.Context, prompt, instruction string, useSearchGrounding bool) (*entity.RawResponse, error) {
	if useSearchGrounding {
		slog.DebugContext(ctx, "claude generator does not support search grounding")
	}
	return c.guard.run(ctx, func(ctx context.Context) (*entity.RawResponse, error) {
		return c.doGenerate(ctx, prompt, instruction)
	})
}

func (c *Claude) doGenerate(ctx context.Context, prompt, instruction string) (*entity.RawResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: instruction}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, claudeError(err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(textBlock.Text)
		}
	}
	return &entity.RawResponse{Text: b.String()}, nil
}

func claudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode)}
	}
	return err
}
