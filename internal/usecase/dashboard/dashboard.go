// Package dashboard keeps the state of the news panels, refreshes them
// concurrently and announces new intraday pulses.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/observability/metrics"
	"market-pulse/internal/observability/slo"
	"market-pulse/internal/observability/tracing"
)

// DefaultStagger is the gap between the start of consecutive category fetches.
const DefaultStagger = 1500 * time.Millisecond

// NewsService fetches panel data. *news.Service satisfies it.
type NewsService interface {
	FetchCategory(ctx context.Context, c entity.NewsCategory) (entity.NewsData, error)
	Search(ctx context.Context, query string) (entity.NewsData, error)
}

// Notifier delivers dashboard notifications.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// State is a point-in-time copy of the dashboard.
type State struct {
	Categories     map[entity.NewsCategory]entity.NewsData `json:"categories"`
	IsRefreshing   bool                                    `json:"isRefreshing"`
	LastUpdated    *time.Time                              `json:"lastUpdated,omitempty"`
	SearchQuery    string                                  `json:"searchQuery,omitempty"`
	SearchResult   *entity.NewsData                        `json:"searchResult,omitempty"`
	TrackedTickers []string                                `json:"trackedTickers"`
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithStagger sets the gap between category fetch starts. Zero starts them together.
func WithStagger(d time.Duration) Option {
	return func(db *Dashboard) { db.stagger = d }
}

// WithNotifier sets the notifier for new pulses.
func WithNotifier(n Notifier) Option {
	return func(db *Dashboard) { db.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(db *Dashboard) { db.now = now }
}

// WithSLOWindow sets the window that category fetch results are recorded in.
func WithSLOWindow(w *slo.Window) Option {
	return func(db *Dashboard) { db.slo = w }
}

// Dashboard holds the news panels. All methods are safe for concurrent use;
// refreshes are serialized.
type Dashboard struct {
	news     NewsService
	notifier Notifier
	stagger  time.Duration
	now      func() time.Time
	slo      *slo.Window

	refreshMu sync.Mutex

	mu            sync.RWMutex
	categories    map[entity.NewsCategory]entity.NewsData
	refreshing    bool
	lastUpdated   time.Time
	searchQuery   string
	searchResult  *entity.NewsData
	tracked       map[string]struct{}
	lastPulseSent string
}

// New creates a Dashboard with every category empty and not loading.
func New(svc NewsService, opts ...Option) *Dashboard {
	db := &Dashboard{
		news:       svc,
		stagger:    DefaultStagger,
		now:        time.Now,
		categories: make(map[entity.NewsCategory]entity.NewsData),
		tracked:    make(map[string]struct{}),
		slo:        slo.NewWindow(slo.DefaultWindow),
	}
	for _, c := range entity.Categories() {
		db.categories[c] = entity.NewsData{Sources: []entity.Source{}}
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// RefreshAll fetches every category. Fetch starts are staggered to stay
// under provider rate limits, and all fetches run to completion: one
// failure never cancels the others. isPoll marks a scheduled refresh,
// which does not set IsRefreshing and is the only kind that announces a
// new intraday pulse.
func (db *Dashboard) RefreshAll(ctx context.Context, isPoll bool) {
	db.refreshMu.Lock()
	defer db.refreshMu.Unlock()

	ctx, span := tracing.GetTracer().Start(ctx, "dashboard.RefreshAll")
	defer span.End()
	span.SetAttributes(attribute.Bool("dashboard.poll", isPoll))

	start := time.Now()
	categories := entity.Categories()

	db.mu.Lock()
	if !isPoll {
		db.refreshing = true
	}
	for _, c := range categories {
		d := db.categories[c]
		d.Loading = true
		d.Error = ""
		db.categories[c] = d
	}
	db.mu.Unlock()

	type result struct {
		data entity.NewsData
		err  error
	}
	results := make([]result, len(categories))

	limiter := rate.NewLimiter(rate.Every(db.stagger), 1)
	var g errgroup.Group
	for i, c := range categories {
		if err := limiter.Wait(ctx); err != nil {
			results[i].err = fmt.Errorf("refresh not started: %w", err)
			continue
		}
		g.Go(func() error {
			data, err := db.news.FetchCategory(ctx, c)
			results[i] = result{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var pulse string
	db.mu.Lock()
	for i, c := range categories {
		r := results[i]
		metrics.RecordCategoryRefresh(string(c), r.err == nil)
		db.slo.Observe(r.err == nil)
		if r.err != nil {
			db.categories[c] = entity.NewsData{Sources: []entity.Source{}, Error: r.err.Error()}
			slog.WarnContext(ctx, "category refresh failed",
				slog.String("category", string(c)),
				slog.String("error", r.err.Error()))
			continue
		}
		r.data.Loading = false
		r.data.Error = ""
		db.categories[c] = r.data
		if r.data.StockTicker != "" {
			db.tracked[r.data.StockTicker] = struct{}{}
		}
		if isPoll && c == entity.CategoryIntradayPulse && r.data.Content != "" && r.data.Content != db.lastPulseSent {
			db.lastPulseSent = r.data.Content
			pulse = r.data.Content
		}
	}
	if !isPoll {
		db.refreshing = false
	}
	db.lastUpdated = db.now()
	db.mu.Unlock()

	duration := time.Since(start)
	metrics.RecordRefresh(isPoll, duration)
	slog.InfoContext(ctx, "dashboard refreshed",
		slog.Bool("poll", isPoll),
		slog.Duration("duration", duration))

	if pulse != "" {
		db.notify(ctx, "New Pulse: "+pulse)
	}
}

// Search runs a query and stores its result as the current search.
func (db *Dashboard) Search(ctx context.Context, query string) (entity.NewsData, error) {
	db.mu.Lock()
	db.searchQuery = query
	db.searchResult = &entity.NewsData{Sources: []entity.Source{}, Loading: true}
	db.mu.Unlock()

	data, err := db.news.Search(ctx, query)
	if err != nil {
		data = entity.NewsData{Sources: []entity.Source{}, Error: err.Error()}
	}

	db.mu.Lock()
	if db.searchQuery == query {
		db.searchResult = &data
	}
	if data.StockTicker != "" {
		db.tracked[data.StockTicker] = struct{}{}
	}
	db.mu.Unlock()

	return data, err
}

// ClearSearch forgets the current search.
func (db *Dashboard) ClearSearch() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.searchQuery = ""
	db.searchResult = nil
}

// Category returns the current data for c.
func (db *Dashboard) Category(c entity.NewsCategory) entity.NewsData {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return copyData(db.categories[c])
}

// TrackedTickers returns the tickers named by market movers and searches, sorted.
func (db *Dashboard) TrackedTickers() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.trackedLocked()
}

// LastUpdated returns the time the last refresh completed, or the zero time.
func (db *Dashboard) LastUpdated() time.Time {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.lastUpdated
}

// FetchSuccessRatio returns the success ratio of recent category fetches.
func (db *Dashboard) FetchSuccessRatio() float64 {
	return db.slo.Ratio()
}

// Snapshot returns a copy of the dashboard state.
func (db *Dashboard) Snapshot() State {
	db.mu.RLock()
	defer db.mu.RUnlock()

	st := State{
		Categories:     make(map[entity.NewsCategory]entity.NewsData, len(db.categories)),
		IsRefreshing:   db.refreshing,
		SearchQuery:    db.searchQuery,
		TrackedTickers: db.trackedLocked(),
	}
	for c, d := range db.categories {
		st.Categories[c] = copyData(d)
	}
	if !db.lastUpdated.IsZero() {
		t := db.lastUpdated
		st.LastUpdated = &t
	}
	if db.searchResult != nil {
		d := copyData(*db.searchResult)
		st.SearchResult = &d
	}
	return st
}

func (db *Dashboard) trackedLocked() []string {
	out := make([]string, 0, len(db.tracked))
	for t := range db.tracked {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (db *Dashboard) notify(ctx context.Context, message string) {
	if db.notifier == nil {
		return
	}
	if err := db.notifier.Notify(ctx, message); err != nil {
		slog.WarnContext(ctx, "pulse notification failed", slog.Any("error", err))
	}
}

func copyData(d entity.NewsData) entity.NewsData {
	sources := make([]entity.Source, len(d.Sources))
	copy(sources, d.Sources)
	d.Sources = sources
	return d
}
