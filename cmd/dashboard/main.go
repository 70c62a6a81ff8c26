// Package main runs the market dashboard API: the news panels, search,
// price alerts and the scheduled refresh.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"market-pulse/internal/config"
	"market-pulse/internal/infra/generator"
	"market-pulse/internal/infra/notifier"
	"market-pulse/internal/observability/logging"
	"market-pulse/internal/observability/slo"
	"market-pulse/internal/observability/tracing"
	"market-pulse/internal/resilience/retry"

	alertUC "market-pulse/internal/usecase/alert"
	"market-pulse/internal/usecase/dashboard"
	newsUC "market-pulse/internal/usecase/news"
	"market-pulse/internal/usecase/newsfetch"
	"market-pulse/internal/usecase/notify"

	hhttp "market-pulse/internal/handler/http"
	halert "market-pulse/internal/handler/http/alert"
	hnews "market-pulse/internal/handler/http/news"
	"market-pulse/internal/handler/http/requestid"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to initialize dashboard", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.run(ctx); err != nil {
		logger.Error("dashboard stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger(cfg *config.AppConfig) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat).
		With(slog.String("service", "market-pulse"), slog.String("version", cfg.Version))
	slog.SetDefault(logger)
	return logger
}

// app holds the long-lived components and their shutdown order.
type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger

	dashboard *dashboard.Dashboard
	poller    *dashboard.Poller
	alerts    *alertUC.Service
	notify    *notify.Service
	handler   http.Handler

	shutdownTracer func(context.Context) error
}

// newApp wires the provider, fetcher, services and HTTP handler from cfg.
func newApp(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) (*app, error) {
	shutdownTracer := tracing.InitTracer(cfg.TraceSampleRatio)

	gen, err := generator.New(ctx, cfg.AI.Generator())
	if err != nil {
		return nil, err
	}

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	fetcher := newsfetch.New(gen, fetchOptions(cfg.Fetch, prompts)...)
	newsSvc := newsUC.NewService(fetcher, cfg.Fetch.MaxAttempts)
	newsSvc.Prompts = newsSvc.Prompts.Merge(newsUC.Prompts(prompts.Categories))

	channels := notifier.Channels(cfg.Notify.Slack, cfg.Notify.Discord)
	notifySvc := notify.NewService(channels, cfg.Notify.MaxConcurrent)
	alertSvc := alertUC.NewService(notifySvc)

	db := dashboard.New(newsSvc,
		dashboard.WithNotifier(notifySvc),
		dashboard.WithStagger(cfg.Fetch.Stagger),
	)
	poller := dashboard.NewPoller(db, cfg.Poll.Interval, cfg.Poll.RefreshTimeout)

	logger.Info("dashboard configured",
		slog.String("provider", string(cfg.AI.Provider)),
		slog.Int("max_attempts", cfg.Fetch.MaxAttempts),
		slog.Duration("stagger", cfg.Fetch.Stagger),
		slog.Duration("poll_interval", cfg.Poll.Interval),
		slog.Int("notification_channels", len(channels)),
		slog.Bool("prompt_overrides", cfg.PromptsFile != ""))

	a := &app{
		cfg:            cfg,
		logger:         logger,
		dashboard:      db,
		poller:         poller,
		alerts:         alertSvc,
		notify:         notifySvc,
		shutdownTracer: shutdownTracer,
	}
	a.handler = a.routes()
	return a, nil
}

// fetchOptions turns the fetch settings and prompt overrides into fetcher options.
func fetchOptions(cfg config.FetchConfig, prompts *config.PromptOverrides) []newsfetch.Option {
	opts := []newsfetch.Option{
		newsfetch.WithRetryConfig(retry.Config{BaseDelay: cfg.BaseDelay, MaxJitter: cfg.MaxJitter}),
	}
	if prompts.Instruction != "" {
		opts = append(opts, newsfetch.WithInstruction(prompts.Instruction))
	}
	if cfg.JitterSeed != 0 {
		opts = append(opts, newsfetch.WithJitter(rand.New(rand.NewPCG(cfg.JitterSeed, cfg.JitterSeed))))
	}
	return opts
}

// routes registers every endpoint and applies the middleware chain.
// Middleware order: Request ID → Tracing → Recovery → Logging → Metrics → Security Headers → CORS → Body Limit → Timeout
func (a *app) routes() http.Handler {
	srv := a.cfg.Server

	var limit func(http.Handler) http.Handler
	if srv.RateLimitRequests > 0 {
		// Prefixes were checked by config.Validate.
		proxies, _ := srv.TrustedProxyPrefixes()
		extractor := hhttp.NewTrustedProxyExtractor(hhttp.TrustedProxyConfig{
			Enabled:      srv.TrustProxy,
			AllowedCIDRs: proxies,
		})
		limit = hhttp.NewRateLimiter(srv.RateLimitRequests, srv.RateLimitWindow, extractor).Limit
	}

	mux := http.NewServeMux()
	hnews.Register(mux, a.dashboard, a.poller, a.cfg.Poll.RefreshTimeout, limit)
	halert.Register(mux, a.alerts)

	mux.Handle("GET /health", &hhttp.HealthHandler{
		Refresh:  a.dashboard,
		Channels: a.notify,
		Version:  a.cfg.Version,
		MaxAge:   freshnessLimit(a.cfg.Poll.Interval),
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Refresh: a.dashboard})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	if srv.MetricsAddr() == "" {
		mux.Handle("GET /metrics", hhttp.MetricsHandler())
	}

	mws := []hhttp.Middleware{
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(a.logger),
		hhttp.Logging(a.logger),
		hhttp.MetricsMiddleware,
		hhttp.SecurityHeaders,
	}
	if len(srv.CORSOrigins) > 0 {
		mws = append(mws, hhttp.CORS(hhttp.CORSConfig{
			Validator: hhttp.NewWhitelistValidator(srv.CORSOrigins),
			Logger:    a.logger,
		}))
		a.logger.Info("CORS enabled", slog.Any("allowed_origins", srv.CORSOrigins))
	}
	mws = append(mws,
		hhttp.LimitRequestBody(srv.MaxBodyBytes),
		hhttp.Timeout(srv.RequestTimeout),
	)
	return hhttp.Chain(mux, mws...)
}

// freshnessLimit is the panel age past which /health reports unhealthy:
// three missed polls, never tighter than the freshness objective. Manual
// mode only goes stale after a day.
func freshnessLimit(pollInterval time.Duration) time.Duration {
	if pollInterval <= 0 {
		return 24 * time.Hour
	}
	if limit := 3 * pollInterval; limit > slo.FreshnessSLO {
		return limit
	}
	return slo.FreshnessSLO
}

// run serves until ctx is done, then shuts everything down in order:
// HTTP servers, poller, notifications, tracer.
func (a *app) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if err := a.poller.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	var metricsSrv *http.Server
	if addr := a.cfg.Server.MetricsAddr(); addr != "" {
		metricsSrv = newMetricsServer(addr, a.notify)
		go func() {
			a.logger.Info("metrics server starting", slog.String("addr", addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	go a.initialRefresh(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down dashboard...")
	case runErr = <-errCh:
		a.logger.Error("server failed, shutting down", slog.Any("error", runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
	a.poller.Stop()
	if err := a.notify.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
	a.logger.Info("dashboard stopped")
	return runErr
}

// initialRefresh loads the panels once at startup so the first reader does
// not see an empty dashboard.
func (a *app) initialRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, a.cfg.Poll.RefreshTimeout)
	defer cancel()
	a.dashboard.RefreshAll(refreshCtx, false)
	a.logger.Info("initial refresh completed",
		slog.Float64("fetch_success_ratio", a.dashboard.FetchSuccessRatio()))
}
