// Package generator provides generative AI text backends for news fetching.
// The Gemini backend supports Google Search grounding and returns citations;
// Claude and OpenAI are text-only alternatives. Every backend runs its calls
// through a circuit breaker with a per-call timeout and reports HTTP failures
// as *retry.HTTPError. Retrying is left to the caller.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/observability/tracing"
	"market-pulse/internal/resilience/circuitbreaker"
	"market-pulse/internal/resilience/retry"
	"market-pulse/internal/usecase/newsfetch"
)

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (newsfetch.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator configuration: %w", err)
	}

	switch cfg.Provider {
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderClaude:
		return NewClaude(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return NewStatic(), nil
	}
}

// guard wraps a single provider call with timeout, circuit breaker,
// tracing, logging and metrics.
type guard struct {
	provider string
	model    string
	timeout  time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	metrics  MetricsRecorder
}

func newGuard(provider, model string, timeout time.Duration, cbCfg circuitbreaker.Config, m MetricsRecorder) *guard {
	cbCfg.IsSuccessful = providerHealthy
	return &guard{
		provider: provider,
		model:    model,
		timeout:  timeout,
		breaker:  circuitbreaker.New(cbCfg),
		metrics:  m,
	}
}

type callFunc func(ctx context.Context) (*entity.RawResponse, error)

func (g *guard) run(ctx context.Context, call callFunc) (*entity.RawResponse, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "generator."+g.provider)
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", g.provider),
		attribute.String("ai.model", g.model))

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := circuitbreaker.Call(g.breaker, func() (*entity.RawResponse, error) {
		return call(ctx)
	})
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		if circuitbreaker.IsRejection(err) {
			slog.WarnContext(ctx, "ai api circuit breaker open, request rejected",
				slog.String("service", g.breaker.Name()),
				slog.String("state", g.breaker.State().String()))
			g.metrics.RecordRequest(g.provider, "rejected")
			return nil, fmt.Errorf("%s api unavailable: %w", g.provider, err)
		}
		g.metrics.RecordRequest(g.provider, statusLabel(err))
		g.metrics.RecordDuration(g.provider, duration)
		slog.ErrorContext(ctx, "generation failed",
			slog.String("provider", g.provider),
			slog.String("model", g.model),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s api error: %w", g.provider, err)
	}

	g.metrics.RecordRequest(g.provider, "success")
	g.metrics.RecordDuration(g.provider, duration)
	g.metrics.RecordCitations(g.provider, len(resp.Citations))
	span.SetAttributes(attribute.Int("ai.citations", len(resp.Citations)))
	slog.DebugContext(ctx, "generation completed",
		slog.String("provider", g.provider),
		slog.String("model", g.model),
		slog.Int("text_length", len(resp.Text)),
		slog.Int("citations", len(resp.Citations)),
		slog.Duration("duration", duration))
	return resp, nil
}

// providerHealthy reports whether err leaves the provider's breaker untouched.
// Caller mistakes (4xx other than 429) and cancellations do not count as failures.
func providerHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if status, ok := retry.StatusCode(err); ok {
		return status >= 400 && status < 500 && status != 429
	}
	return false
}

func statusLabel(err error) string {
	if status, ok := retry.StatusCode(err); ok {
		return strconv.Itoa(status)
	}
	return "error"
}
