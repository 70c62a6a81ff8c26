// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - slo: Fetch success and freshness objectives
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import (
//	    "market-pulse/internal/observability/logging"
//	    "market-pulse/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.New(os.Stdout, "info", "json")
//	    logger.Info("application started")
//
//	    metrics.RecordCategoryRefresh("marketMovers", true)
//	}
package observability
