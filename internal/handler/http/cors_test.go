package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler(origins ...string) http.Handler {
	return CORS(CORSConfig{
		Validator: NewWhitelistValidator(origins),
		MaxAge:    600,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})(okHandler())
}

func TestWhitelistValidator(t *testing.T) {
	v := NewWhitelistValidator([]string{" http://localhost:5173 ", "", "https://pulse.example.com"})

	assert.True(t, v.IsAllowed("http://localhost:5173"))
	assert.True(t, v.IsAllowed("https://pulse.example.com"))
	assert.False(t, v.IsAllowed("https://evil.example.com"))
	assert.False(t, v.IsAllowed(""))

	assert.True(t, NewWhitelistValidator([]string{"*"}).IsAllowed("https://anything.example"))
}

func TestCORS(t *testing.T) {
	t.Run("TC-1: should pass requests without Origin untouched", func(t *testing.T) {
		rr := httptest.NewRecorder()
		corsHandler("http://localhost:5173").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/news", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("TC-2: should set headers for an allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		corsHandler("http://localhost:5173").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	})

	t.Run("TC-3: should omit headers for an unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		corsHandler("http://localhost:5173").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("TC-4: should answer preflight requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/alerts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		corsHandler("http://localhost:5173").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Request-ID", rr.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("TC-5: should reject everything without a validator", func(t *testing.T) {
		h := CORS(CORSConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
