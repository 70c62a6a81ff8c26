// Package newsfetch requests structured news summaries from a generative
// text service, retrying transient failures with exponential backoff.
package newsfetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/handler/http/requestid"
	"market-pulse/internal/observability/metrics"
	"market-pulse/internal/observability/tracing"
	"market-pulse/internal/resilience/retry"
)

// DefaultMaxAttempts is used when Fetch is called with a non-positive budget.
const DefaultMaxAttempts = 3

// DefaultSystemInstruction is sent with every prompt unless overridden.
const DefaultSystemInstruction = "You are a senior financial analyst specializing in the Indian market. " +
	"Provide an unbiased, single-paragraph summary of the most impactful and very latest news. " +
	"Focus on events within the last 24 hours relevant to India. " +
	"Always provide your response as a valid JSON object. " +
	"Do not use double quotes within the content strings; use single quotes instead to ensure valid JSON format."

// Generator is a generative text service.
//
// Implementations report HTTP-level failures as *retry.HTTPError so that
// rate limits and server errors can be told apart from everything else.
type Generator interface {
	Generate(ctx context.Context, prompt, instruction string, useSearchGrounding bool) (*entity.RawResponse, error)
}

// Failure describes a fetch that did not produce a result.
// Message is meant for people and should not be parsed.
type Failure struct {
	Message  string
	Kind     Kind
	Attempts int
}

func (f *Failure) Error() string { return f.Message }

// Outcome is the result of Fetch. Exactly one of Result or Failure is meaningful:
// Failure is nil on success.
type Outcome struct {
	Result  entity.ParsedResult
	Sources []entity.Source
	Failure *Failure
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Failure == nil }

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Fetcher wraps a Generator with parsing and retries.
// A Fetcher holds no per-call state and may be shared between goroutines.
type Fetcher struct {
	generator   Generator
	instruction string
	policy      *retry.Policy
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithInstruction replaces the system instruction.
func WithInstruction(instruction string) Option {
	return func(f *Fetcher) { f.instruction = instruction }
}

// WithRetryConfig replaces the backoff timings. MaxAttempts in cfg is
// ignored; the budget is passed to each Fetch call.
func WithRetryConfig(cfg retry.Config) Option {
	return func(f *Fetcher) {
		f.policy.BaseDelay = cfg.BaseDelay
		f.policy.MaxJitter = cfg.MaxJitter
	}
}

// WithJitter sets the random source used for backoff jitter.
func WithJitter(j retry.Jitter) Option {
	return func(f *Fetcher) { f.policy = f.policy.WithJitter(j) }
}

// WithSleeper sets the function used to wait between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(f *Fetcher) { f.policy = f.policy.WithSleeper(s) }
}

// New creates a Fetcher that calls gen.
func New(gen Generator, opts ...Option) *Fetcher {
	f := &Fetcher{
		generator:   gen,
		instruction: DefaultSystemInstruction,
		policy:      retry.NewPolicy(retry.DefaultConfig()),
	}
	f.policy.Retryable = func(err error) bool { return Classify(err).Retryable() }
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch sends prompt with search grounding enabled and returns the parsed
// summary with its deduplicated sources. Rate limits, server errors and
// malformed replies are retried up to maxAttempts attempts in total;
// maxAttempts <= 0 means DefaultMaxAttempts. Fetch never returns an error:
// failures are reported in Outcome.Failure.
func (f *Fetcher) Fetch(ctx context.Context, prompt string, maxAttempts int) Outcome {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	logger := slog.Default().With(slog.String("request_id", reqID))

	ctx, span := tracing.GetTracer().Start(ctx, "newsfetch.Fetch")
	defer span.End()
	span.SetAttributes(attribute.Int("fetch.max_attempts", maxAttempts))

	policy := f.policy.WithMaxAttempts(maxAttempts)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		kind := Classify(err)
		logger.WarnContext(ctx, "fetch attempt failed, backing off",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.String("kind", kind.String()),
			slog.Duration("delay", delay))
		metrics.RecordFetchRetryWait(delay)
	}

	start := time.Now()
	var (
		out      Outcome
		attempts int
	)
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		res, sources, err := f.attempt(ctx, prompt)
		if err != nil {
			metrics.RecordFetchAttempt(Classify(err).String())
			return err
		}
		metrics.RecordFetchAttempt("success")
		out.Result, out.Sources = res, sources
		return nil
	})
	duration := time.Since(start)
	span.SetAttributes(attribute.Int("fetch.attempts", attempts))

	if err == nil {
		metrics.RecordFetchOutcome(true, attempts, duration)
		logger.InfoContext(ctx, "fetch succeeded",
			slog.Int("attempts", attempts),
			slog.Int("sources", len(out.Sources)),
			slog.Duration("duration", duration))
		return out
	}

	failure := failureFrom(ctx, err, attempts)
	metrics.RecordFetchOutcome(false, attempts, duration)
	span.RecordError(err)
	span.SetStatus(codes.Error, failure.Kind.String())
	logger.ErrorContext(ctx, "fetch failed",
		slog.Int("attempts", attempts),
		slog.String("kind", failure.Kind.String()),
		slog.String("error", failure.Message),
		slog.Duration("duration", duration))
	return Outcome{Failure: failure}
}

// attempt performs one generate-and-parse round.
func (f *Fetcher) attempt(ctx context.Context, prompt string) (entity.ParsedResult, []entity.Source, error) {
	raw, err := f.generator.Generate(ctx, prompt, f.instruction, true)
	if err != nil {
		return entity.ParsedResult{}, nil, err
	}
	if raw == nil || raw.Text == "" {
		return entity.ParsedResult{}, nil, ErrEmptyResponse
	}

	res, err := ParseResult(raw.Text)
	if err != nil {
		return entity.ParsedResult{}, nil, err
	}
	return res, ExtractSources(raw.Citations), nil
}

// failureFrom turns the error returned by the retry policy into a Failure
// carrying the last attempt's message.
func failureFrom(ctx context.Context, err error, attempts int) *Failure {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &Failure{Message: exhausted.Err.Error(), Kind: Classify(exhausted.Err), Attempts: attempts}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return &Failure{Message: ctxErr.Error(), Kind: KindOther, Attempts: attempts}
	}
	return &Failure{Message: err.Error(), Kind: Classify(err), Attempts: attempts}
}
