package pathutil

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "alert delete", path: "/api/alerts/TCS.NS/above", want: "/api/alerts/:ticker/:condition"},
		{name: "alert delete lowercase", path: "/api/alerts/infy.ns/below", want: "/api/alerts/:ticker/:condition"},
		{name: "alerts for ticker", path: "/api/alerts/RELIANCE.NS", want: "/api/alerts/:ticker"},
		{name: "alerts list", path: "/api/alerts", want: "/api/alerts"},
		{name: "news category", path: "/api/news/globalMacro", want: "/api/news/:category"},
		{name: "refresh stays static", path: "/api/news/refresh", want: "/api/news/refresh"},
		{name: "query stripped", path: "/api/search?q=hdfc", want: "/api/search"},
		{name: "trailing slash", path: "/api/alerts/TCS.NS/above/", want: "/api/alerts/:ticker/:condition"},
		{name: "root", path: "/", want: "/"},
		{name: "health", path: "/health", want: "/health"},
		{name: "unknown", path: "/unknown/path/123", want: "/unknown/path/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NormalizePath("/api/alerts/TCS.NS/above")
	}
}
