// Package logging provides structured logging helpers on top of log/slog.
//
// The HTTP logging middleware stores a request-scoped logger (carrying the
// request ID) in the context; handlers fetch it with FromContext.
//
// Example usage:
//
//	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logging.FromContext(ctx).Info("refreshing panels")
//	}
package logging
