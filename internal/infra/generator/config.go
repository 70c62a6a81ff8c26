package generator

import (
	"errors"
	"fmt"
	"time"
)

// Provider names a generative text backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderStatic Provider = "static"
)

// ParseProvider returns the provider named s.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderGemini, ProviderClaude, ProviderOpenAI, ProviderStatic:
		return p, nil
	}
	return "", fmt.Errorf("unknown AI provider %q (want gemini, claude, openai or static)", s)
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderClaude:
		return "claude-sonnet-4-5-20250929"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	}
	return ""
}

// Config holds the settings shared by every provider.
type Config struct {
	Provider Provider

	// APIKey authenticates against the provider. Unused by the static provider.
	APIKey string

	// Model is the provider model identifier. Empty means DefaultModel.
	Model string

	// MaxTokens caps the reply length for providers that require it.
	MaxTokens int

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// BaseURL overrides the provider endpoint. Used by tests.
	BaseURL string
}

// Validate checks that cfg can build a generator.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseProvider(string(c.Provider)); err != nil {
		errs = append(errs, err)
	}
	if c.Provider != ProviderStatic && c.APIKey == "" {
		errs = append(errs, fmt.Errorf("API key is required for provider %q", c.Provider))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max tokens must not be negative, got %d", c.MaxTokens))
	}
	return errors.Join(errs...)
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1024
}
