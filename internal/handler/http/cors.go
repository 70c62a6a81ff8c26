package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// Default CORS settings for the dashboard API.
var (
	DefaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	DefaultCORSHeaders = []string{"Content-Type", "X-Request-ID"}
)

// OriginValidator decides whether a browser origin may call the API.
type OriginValidator interface {
	IsAllowed(origin string) bool
}

// WhitelistValidator allows an exact list of origins. A "*" entry allows any origin.
type WhitelistValidator struct {
	allowed map[string]struct{}
	any     bool
}

// NewWhitelistValidator creates a validator for origins.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	v := &WhitelistValidator{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			v.any = true
			continue
		}
		if o != "" {
			v.allowed[o] = struct{}{}
		}
	}
	return v
}

// IsAllowed reports whether origin is on the list.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	if v.any {
		return true
	}
	_, ok := v.allowed[origin]
	return ok
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	Validator      OriginValidator
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is how long browsers may cache a preflight, in seconds.
	MaxAge int
	Logger *slog.Logger
}

// CORS returns middleware that answers preflight requests and sets
// Access-Control headers for allowed origins. Requests without an Origin
// header and requests from unknown origins pass through without CORS
// headers, so the browser blocks the response.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	methods := config.AllowedMethods
	if len(methods) == 0 {
		methods = DefaultCORSMethods
	}
	headers := config.AllowedHeaders
	if len(headers) == 0 {
		headers = DefaultCORSHeaders
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if config.Validator == nil || !config.Validator.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
