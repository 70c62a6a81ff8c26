package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	for _, name := range []string{"gemini", "claude", "openai", "static"} {
		p, err := ParseProvider(name)
		require.NoError(t, err)
		assert.Equal(t, Provider(name), p)
	}

	_, err := ParseProvider("llama")
	assert.Error(t, err)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", DefaultModel(ProviderGemini))
	assert.NotEmpty(t, DefaultModel(ProviderClaude))
	assert.NotEmpty(t, DefaultModel(ProviderOpenAI))
	assert.Empty(t, DefaultModel(ProviderStatic))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid gemini", cfg: Config{Provider: ProviderGemini, APIKey: "k", Timeout: time.Minute}},
		{name: "static needs no key", cfg: Config{Provider: ProviderStatic, Timeout: time.Minute}},
		{name: "missing key", cfg: Config{Provider: ProviderOpenAI, Timeout: time.Minute}, wantErr: "API key is required"},
		{name: "unknown provider", cfg: Config{Provider: "x", APIKey: "k", Timeout: time.Minute}, wantErr: "unknown AI provider"},
		{name: "zero timeout", cfg: Config{Provider: ProviderStatic}, wantErr: "timeout must be positive"},
		{name: "negative tokens", cfg: Config{Provider: ProviderStatic, Timeout: time.Minute, MaxTokens: -1}, wantErr: "max tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ModelFallback(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", Config{Provider: ProviderGemini}.model())
	assert.Equal(t, "gemini-2.5-pro", Config{Provider: ProviderGemini, Model: "gemini-2.5-pro"}.model())
	assert.Equal(t, 1024, Config{}.maxTokens())
	assert.Equal(t, 256, Config{MaxTokens: 256}.maxTokens())
}
