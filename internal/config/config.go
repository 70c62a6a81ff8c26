// Package config loads the market-pulse settings from environment
// variables and an optional YAML prompt file.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"market-pulse/internal/infra/generator"
	"market-pulse/internal/infra/notifier"
	envcfg "market-pulse/pkg/config"
)

// Defaults for settings that have no environment override.
const (
	DefaultPort        = 8080
	DefaultMetricsPort = 9090
	MaxFetchAttempts   = 10
	MinPollInterval    = time.Minute
)

// AppConfig is the complete process configuration.
type AppConfig struct {
	AI     AIConfig
	Fetch  FetchConfig
	Poll   PollConfig
	Server ServerConfig
	Notify NotifyConfig

	// PromptsFile is an optional YAML file overriding the system
	// instruction and category prompts.
	PromptsFile string

	LogLevel  string
	LogFormat string
	Version   string

	// TraceSampleRatio is the fraction of root spans sampled (0 to 1).
	TraceSampleRatio float64
}

// AIConfig selects and configures the generative text provider.
type AIConfig struct {
	Provider  generator.Provider
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// FetchConfig tunes the resilient fetcher.
type FetchConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
	// JitterSeed seeds the backoff jitter. Zero seeds from the clock.
	JitterSeed uint64
	// Stagger is the gap between category request starts.
	Stagger time.Duration
}

// PollConfig controls scheduled refreshes.
type PollConfig struct {
	// Interval between polls. Zero disables polling.
	Interval time.Duration
	// RefreshTimeout bounds one full refresh, polled or manual.
	RefreshTimeout time.Duration
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port              int
	MetricsPort       int
	ReadHeaderTimeout time.Duration
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64

	// RateLimitRequests per RateLimitWindow and client IP on refresh and
	// search. Zero requests disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// TrustProxy enables X-Forwarded-For and X-Real-IP for requests whose
	// RemoteAddr is in TrustedProxies. Otherwise the limiter keys on RemoteAddr.
	TrustProxy     bool
	TrustedProxies []string

	CORSOrigins []string
}

// TrustedProxyPrefixes parses TrustedProxies.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	return envcfg.ParsePrefixList(s.TrustedProxies)
}

// Addr returns the API listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// MetricsAddr returns the metrics listen address, or "" when metrics are
// served on the API listener.
func (s ServerConfig) MetricsAddr() string {
	if s.MetricsPort == 0 || s.MetricsPort == s.Port {
		return ""
	}
	return fmt.Sprintf(":%d", s.MetricsPort)
}

// NotifyConfig holds the webhook channels.
type NotifyConfig struct {
	Slack         notifier.SlackConfig
	Discord       notifier.DiscordConfig
	MaxConcurrent int
}

// Generator returns the provider settings in the form generator.New takes.
func (c AIConfig) Generator() generator.Config {
	return generator.Config{
		Provider:  c.Provider,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}

// providerKeyEnv names the API key variable for each provider.
var providerKeyEnv = map[generator.Provider]string{
	generator.ProviderGemini: "GEMINI_API_KEY",
	generator.ProviderClaude: "ANTHROPIC_API_KEY",
	generator.ProviderOpenAI: "OPENAI_API_KEY",
}

// Load reads the configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	cfg := FromEnv()
	configMetrics.RecordLoadTimestamp()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv reads the configuration without validating it.
func FromEnv() *AppConfig {
	provider := generator.Provider(strings.ToLower(envcfg.GetEnvString("AI_PROVIDER", string(generator.ProviderGemini))))
	apiKey := envcfg.GetEnvString("AI_API_KEY", "")
	if key, ok := providerKeyEnv[provider]; ok && apiKey == "" {
		apiKey = envcfg.GetEnvString(key, "")
	}

	return &AppConfig{
		AI: AIConfig{
			Provider:  provider,
			APIKey:    apiKey,
			Model:     envcfg.GetEnvString("AI_MODEL", ""),
			Timeout:   envcfg.GetEnvDuration("AI_TIMEOUT", 60*time.Second),
			MaxTokens: envcfg.GetEnvInt("AI_MAX_TOKENS", 0),
		},
		Fetch: FetchConfig{
			MaxAttempts: envcfg.GetEnvInt("FETCH_MAX_ATTEMPTS", 3),
			BaseDelay:   envcfg.GetEnvDuration("FETCH_BASE_DELAY", 2*time.Second),
			MaxJitter:   envcfg.GetEnvDuration("FETCH_MAX_JITTER", time.Second),
			JitterSeed:  envcfg.GetEnvUint64("FETCH_JITTER_SEED", 0),
			Stagger:     envcfg.GetEnvDuration("FETCH_STAGGER", 1500*time.Millisecond),
		},
		Poll: PollConfig{
			Interval:       envcfg.GetEnvDuration("NEWS_POLL_INTERVAL", 5*time.Minute),
			RefreshTimeout: envcfg.GetEnvDuration("NEWS_REFRESH_TIMEOUT", 2*time.Minute),
		},
		Server: ServerConfig{
			Port:              envcfg.GetEnvInt("PORT", DefaultPort),
			MetricsPort:       envcfg.GetEnvInt("METRICS_PORT", DefaultMetricsPort),
			ReadHeaderTimeout: envcfg.GetEnvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
			RequestTimeout:    envcfg.GetEnvDuration("HTTP_REQUEST_TIMEOUT", 3*time.Minute),
			ShutdownTimeout:   envcfg.GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:      int64(envcfg.GetEnvInt("HTTP_MAX_BODY_BYTES", 1<<20)),
			RateLimitRequests: envcfg.GetEnvInt("RATE_LIMIT_REQUESTS", 10),
			RateLimitWindow:   envcfg.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			TrustProxy:        envcfg.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
			TrustedProxies:    envcfg.GetEnvStringList("RATE_LIMIT_TRUSTED_PROXIES", nil),
			CORSOrigins:       envcfg.GetEnvStringList("CORS_ALLOWED_ORIGINS", nil),
		},
		Notify: NotifyConfig{
			Slack: notifier.SlackConfig{
				Enabled:    envcfg.GetEnvBool("SLACK_ENABLED", true),
				WebhookURL: envcfg.GetEnvString("SLACK_WEBHOOK_URL", ""),
				Timeout:    envcfg.GetEnvDuration("SLACK_TIMEOUT", 10*time.Second),
			},
			Discord: notifier.DiscordConfig{
				Enabled:    envcfg.GetEnvBool("DISCORD_ENABLED", true),
				WebhookURL: envcfg.GetEnvString("DISCORD_WEBHOOK_URL", ""),
				Timeout:    envcfg.GetEnvDuration("DISCORD_TIMEOUT", 10*time.Second),
			},
			MaxConcurrent: envcfg.GetEnvInt("NOTIFY_MAX_CONCURRENT", 4),
		},
		PromptsFile:      envcfg.GetEnvString("PROMPTS_FILE", ""),
		LogLevel:         strings.ToLower(envcfg.GetEnvString("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envcfg.GetEnvString("LOG_FORMAT", "json")),
		Version:          envcfg.GetEnvString("VERSION", "dev"),
		TraceSampleRatio: envcfg.GetEnvFloat("TRACE_SAMPLE_RATIO", 1.0),
	}
}

// FieldError is a validation failure on one setting.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// Validate checks every setting and returns all failures joined.
func (c *AppConfig) Validate() error {
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			configMetrics.RecordValidationError(field)
			errs = append(errs, &FieldError{Field: field, Err: err})
		}
	}

	check("AI_PROVIDER", validateProvider(c.AI.Provider))
	check("AI_API_KEY", c.validateAPIKey())
	check("AI_TIMEOUT", envcfg.ValidatePositiveDuration(c.AI.Timeout))
	if c.AI.MaxTokens < 0 {
		check("AI_MAX_TOKENS", fmt.Errorf("must not be negative, got %d", c.AI.MaxTokens))
	}

	check("FETCH_MAX_ATTEMPTS", envcfg.ValidateIntRange(c.Fetch.MaxAttempts, 1, MaxFetchAttempts))
	check("FETCH_BASE_DELAY", envcfg.ValidatePositiveDuration(c.Fetch.BaseDelay))
	check("FETCH_MAX_JITTER", envcfg.ValidateNonNegativeDuration(c.Fetch.MaxJitter))
	check("FETCH_STAGGER", envcfg.ValidateNonNegativeDuration(c.Fetch.Stagger))

	if c.Poll.Interval != 0 {
		check("NEWS_POLL_INTERVAL", envcfg.ValidateDurationRange(c.Poll.Interval, MinPollInterval, 24*time.Hour))
	}
	check("NEWS_REFRESH_TIMEOUT", envcfg.ValidatePositiveDuration(c.Poll.RefreshTimeout))

	check("PORT", envcfg.ValidateIntRange(c.Server.Port, 1, 65535))
	check("METRICS_PORT", envcfg.ValidateIntRange(c.Server.MetricsPort, 0, 65535))
	check("HTTP_READ_HEADER_TIMEOUT", envcfg.ValidatePositiveDuration(c.Server.ReadHeaderTimeout))
	check("HTTP_REQUEST_TIMEOUT", envcfg.ValidatePositiveDuration(c.Server.RequestTimeout))
	check("HTTP_SHUTDOWN_TIMEOUT", envcfg.ValidatePositiveDuration(c.Server.ShutdownTimeout))
	if c.Server.MaxBodyBytes <= 0 {
		check("HTTP_MAX_BODY_BYTES", fmt.Errorf("must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.RateLimitRequests < 0 {
		check("RATE_LIMIT_REQUESTS", fmt.Errorf("must not be negative, got %d", c.Server.RateLimitRequests))
	}
	if c.Server.RateLimitRequests > 0 {
		check("RATE_LIMIT_WINDOW", envcfg.ValidatePositiveDuration(c.Server.RateLimitWindow))
	}
	check("RATE_LIMIT_TRUSTED_PROXIES", c.Server.validateTrustedProxies())

	check("SLACK_TIMEOUT", envcfg.ValidatePositiveDuration(c.Notify.Slack.Timeout))
	check("DISCORD_TIMEOUT", envcfg.ValidatePositiveDuration(c.Notify.Discord.Timeout))
	check("NOTIFY_MAX_CONCURRENT", envcfg.ValidateIntRange(c.Notify.MaxConcurrent, 1, 64))

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		check("LOG_LEVEL", fmt.Errorf("unknown level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		check("LOG_FORMAT", fmt.Errorf("unknown format %q (want json or text)", c.LogFormat))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		check("TRACE_SAMPLE_RATIO", fmt.Errorf("must be between 0 and 1, got %v", c.TraceSampleRatio))
	}

	return errors.Join(errs...)
}

// validateTrustedProxies fails closed: trusting proxies without naming any
// would silently fall back to RemoteAddr.
func (s ServerConfig) validateTrustedProxies() error {
	prefixes, err := s.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	if s.TrustProxy && len(prefixes) == 0 {
		return errors.New("required when RATE_LIMIT_TRUST_PROXY is enabled")
	}
	return nil
}

func validateProvider(p generator.Provider) error {
	_, err := generator.ParseProvider(string(p))
	return err
}

func (c *AppConfig) validateAPIKey() error {
	if c.AI.Provider == generator.ProviderStatic || c.AI.APIKey != "" {
		return nil
	}
	if key, ok := providerKeyEnv[c.AI.Provider]; ok {
		return fmt.Errorf("%s or AI_API_KEY is required for provider %q", key, c.AI.Provider)
	}
	return nil
}
