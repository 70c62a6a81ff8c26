package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/resilience/retry"
)

func TestOpenAI_Generate(t *testing.T) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
		  "id": "chatcmpl-1",
		  "object": "chat.completion",
		  "created": 1700000000,
		  "model": "gpt-4o-mini",
		  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"summary\":\"Gold rises\"}"}, "finish_reason": "stop"}]
		}`)
	}))
	defer srv.Close()

	o := NewOpenAI(Config{Provider: ProviderOpenAI, APIKey: "test-key", Timeout: 5 * time.Second, BaseURL: srv.URL + "/v1"})
	raw, err := o.Generate(context.Background(), "commodities?", "be an analyst", true)

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"Gold rises"}`, raw.Text)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "be an analyst", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "commodities?", req.Messages[1].Content)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	o := NewOpenAI(Config{Provider: ProviderOpenAI, APIKey: "k", Timeout: 5 * time.Second, BaseURL: srv.URL + "/v1"})
	raw, err := o.Generate(context.Background(), "p", "", false)

	require.NoError(t, err)
	assert.Empty(t, raw.Text)
}

func TestOpenAI_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	o := NewOpenAI(Config{Provider: ProviderOpenAI, APIKey: "k", Timeout: 5 * time.Second, BaseURL: srv.URL + "/v1"})
	_, err := o.Generate(context.Background(), "p", "i", false)

	require.Error(t, err)
	code, ok := retry.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, err.Error(), "overloaded")
}
