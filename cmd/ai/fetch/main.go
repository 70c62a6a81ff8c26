// Package main provides a CLI command that fetches one news summary.
// Usage: market-pulse-fetch [--category NAME | --query TEXT | --prompt TEXT] [--attempts N] [--output json] [--notify]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"market-pulse/internal/config"
	"market-pulse/internal/domain/entity"
	"market-pulse/internal/infra/generator"
	"market-pulse/internal/infra/notifier"
	"market-pulse/internal/observability/logging"
	newsUC "market-pulse/internal/usecase/news"
	"market-pulse/internal/usecase/newsfetch"
)

// FetchOutput represents the JSON output format for a fetch.
type FetchOutput struct {
	Target string `json:"target"`
	entity.NewsData
}

// options holds the parsed command line.
type options struct {
	category string
	query    string
	prompt   string
	attempts int
	output   string
	notify   bool
	timeout  time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage(os.Stderr)
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so that --output json stays parseable.
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	gen, err := generator.New(ctx, cfg.AI.Generator())
	if err != nil {
		logger.Error("failed to create AI provider", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Failed to create AI provider: %v\n", err)
		os.Exit(1)
	}

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fetchOpts := []newsfetch.Option{}
	if prompts.Instruction != "" {
		fetchOpts = append(fetchOpts, newsfetch.WithInstruction(prompts.Instruction))
	}
	svc := newsUC.NewService(newsfetch.New(gen, fetchOpts...), cfg.Fetch.MaxAttempts)
	svc.Prompts = svc.Prompts.Merge(newsUC.Prompts(prompts.Categories))
	if opts.attempts > 0 {
		svc.MaxAttempts = opts.attempts
	}

	target, data, err := fetch(ctx, svc, opts)
	if err != nil {
		logger.Error("fetch failed", slog.String("target", target), slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := write(os.Stdout, opts.output, target, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to write output: %v\n", err)
		os.Exit(1)
	}

	if opts.notify {
		ch := notifier.FromConfig(cfg.Notify.Slack, cfg.Notify.Discord)
		if err := ch.Notify(ctx, notification(target, data)); err != nil {
			logger.Warn("notification failed", slog.String("channel", ch.Name()), slog.Any("error", err))
		}
	}
}

// parseFlags reads args into options. At most one of --category, --query
// or --prompt may be given; with none the market movers panel is fetched.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("market-pulse-fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.category, "category", "", "Dashboard category: MarketMovers, GlobalMacro or IntradayPulse")
	fs.StringVar(&opts.query, "query", "", "Ticker or topic to search news for")
	fs.StringVar(&opts.prompt, "prompt", "", "Raw prompt to send")
	fs.IntVar(&opts.attempts, "attempts", 0, "Maximum attempts (default FETCH_MAX_ATTEMPTS)")
	fs.StringVar(&opts.output, "output", "text", "Output format: text or json")
	fs.BoolVar(&opts.notify, "notify", false, "Send the summary to the configured notification channels")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall deadline")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	set := 0
	for _, v := range []string{opts.category, opts.query, opts.prompt} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return options{}, errors.New("only one of --category, --query or --prompt may be set")
	}
	if opts.category != "" {
		if _, err := entity.ParseCategory(opts.category); err != nil {
			return options{}, err
		}
	}
	if opts.output != "text" && opts.output != "json" {
		return options{}, fmt.Errorf("unknown output format %q", opts.output)
	}
	if opts.attempts < 0 || opts.attempts > config.MaxFetchAttempts {
		return options{}, fmt.Errorf("--attempts must be between 0 and %d", config.MaxFetchAttempts)
	}
	if opts.timeout <= 0 {
		return options{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: market-pulse-fetch [--category NAME | --query TEXT | --prompt TEXT] [--attempts N] [--output json] [--notify]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  market-pulse-fetch --category GlobalMacro")
	fmt.Fprintln(w, "  market-pulse-fetch --query RELIANCE.NS --output json")
	fmt.Fprintln(w, "  market-pulse-fetch --prompt \"Summarize today's RBI announcements\" --attempts 5")
}

// fetch runs the request selected by opts and returns a label for it.
func fetch(ctx context.Context, svc *newsUC.Service, opts options) (string, entity.NewsData, error) {
	switch {
	case opts.query != "":
		data, err := svc.Search(ctx, opts.query)
		return "search: " + strings.TrimSpace(opts.query), data, err
	case opts.prompt != "":
		data, err := svc.FetchNewsSummary(ctx, opts.prompt)
		return "prompt", data, err
	}

	c := entity.CategoryMarketMovers
	if opts.category != "" {
		c = entity.NewsCategory(opts.category)
	}
	data, err := svc.FetchCategory(ctx, c)
	return c.Title(), data, err
}

// write prints data in the requested format.
func write(w io.Writer, format, target string, data entity.NewsData) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(FetchOutput{Target: target, NewsData: data})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", target)
	if data.Sentiment != "" {
		fmt.Fprintf(&b, "Sentiment: %s\n", data.Sentiment)
	}
	if data.StockTicker != "" {
		fmt.Fprintf(&b, "Ticker: %s\n", data.StockTicker)
	}
	fmt.Fprintf(&b, "\n%s\n", data.Content)
	if len(data.Sources) > 0 {
		fmt.Fprintf(&b, "\nSources:\n")
		for i, s := range data.Sources {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, s.Title, s.URI)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// notification formats data as a chat message.
func notification(target string, data entity.NewsData) string {
	msg := fmt.Sprintf("📰 %s\n%s", target, data.Content)
	if data.StockTicker != "" {
		msg += "\nTicker: " + data.StockTicker
	}
	return msg
}
