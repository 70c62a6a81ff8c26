// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - News fetch metrics (attempts, outcomes, retry waits)
//   - Dashboard metrics (refreshes, alerts, notifications)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "market-pulse/internal/observability/metrics"
//
//	func refresh(ctx context.Context) {
//	    start := time.Now()
//	    // ... fetch every category ...
//	    metrics.RecordCategoryRefresh("MarketMovers", true)
//	    metrics.RecordRefresh(false, time.Since(start))
//	}
package metrics
