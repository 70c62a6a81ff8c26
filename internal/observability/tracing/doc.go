// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created for every HTTP request, dashboard refresh and news
// fetch. No exporter is configured, but trace IDs are still generated and
// propagated so that logs and the X-Trace-Id response header correlate.
//
// Example usage:
//
//	import "market-pulse/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitTracer(1.0)
//	    defer shutdown(context.Background())
//	}
//
//	func refresh(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "dashboard.RefreshAll")
//	    defer span.End()
//	}
package tracing
