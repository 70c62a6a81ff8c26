// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic used around
// generative AI calls and notification webhooks.
//
// The package supports:
//   - Circuit breakers for external API calls (Gemini, Claude, OpenAI, webhooks)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.GeminiAPIConfig())
//	resp, err := circuitbreaker.Call(cb, func() (*entity.RawResponse, error) {
//	    return callGemini(ctx)
//	})
//
//	policy := retry.NewPolicy(retry.DefaultConfig())
//	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
//	    return performOperation(ctx)
//	})
package resilience
