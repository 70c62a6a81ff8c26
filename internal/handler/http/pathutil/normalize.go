// Package pathutil normalizes request paths for use as metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns lists dynamic routes, most specific first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/api/alerts/[^/]+/[^/]+$`), Template: "/api/alerts/:ticker/:condition"},
	{Pattern: regexp.MustCompile(`^/api/alerts/[^/]+$`), Template: "/api/alerts/:ticker"},
	{Pattern: regexp.MustCompile(`^/api/news/[^/]+$`), Template: "/api/news/:category"},
}

// NormalizePath converts dynamic URL paths to templates so that metric
// label cardinality stays bounded. Unknown paths are returned unchanged.
// Query strings and trailing slashes are stripped.
//
// Examples:
//
//	NormalizePath("/api/alerts/TCS.NS/above")  // "/api/alerts/:ticker/:condition"
//	NormalizePath("/api/news/marketMovers")   // "/api/news/:category"
//	NormalizePath("/api/news/refresh")        // "/api/news/refresh" (unchanged)
//	NormalizePath("/api/search?q=infosys")    // "/api/search"
//	NormalizePath("/health")                  // "/health" (unchanged)
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if path == "/api/news/refresh" {
		return path
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
