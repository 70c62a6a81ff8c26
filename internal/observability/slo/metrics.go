// Package slo tracks the service level objectives of the dashboard:
// how often category fetches succeed and how fresh the panels are.
package slo

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the application.
const (
	// FetchSuccessSLO is the target ratio of successful category fetches (95%).
	FetchSuccessSLO = 0.95

	// FreshnessSLO is the maximum acceptable age of the newest refresh.
	// Three missed 5 minute polls breach it.
	FreshnessSLO = 15 * time.Minute

	// DefaultWindow is the number of recent fetch results the success ratio covers.
	DefaultWindow = 60
)

var (
	// SLOFetchSuccess tracks the success ratio (0-1) over the recent window
	SLOFetchSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_fetch_success_ratio",
			Help: "Success ratio of recent category fetches (0-1), target: 0.95",
		},
	)

	// SLOStaleness tracks the age of the last completed refresh in seconds
	SLOStaleness = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_news_staleness_seconds",
			Help: "Seconds since the last completed dashboard refresh, target: < 900",
		},
	)
)

// UpdateFetchSuccess sets the fetch success SLO metric.
func UpdateFetchSuccess(ratio float64) {
	SLOFetchSuccess.Set(ratio)
}

// UpdateStaleness sets the staleness SLO metric.
func UpdateStaleness(age time.Duration) {
	SLOStaleness.Set(age.Seconds())
}

// Window keeps the last N fetch results in a ring buffer.
// The zero value is not usable; call NewWindow.
type Window struct {
	mu      sync.Mutex
	results []bool
	next    int
	filled  bool
}

// NewWindow creates a window over the last size results.
// A non-positive size means DefaultWindow.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindow
	}
	return &Window{results: make([]bool, size)}
}

// Observe records one result, updates the gauge and returns the new ratio.
func (w *Window) Observe(success bool) float64 {
	w.mu.Lock()
	w.results[w.next] = success
	w.next++
	if w.next == len(w.results) {
		w.next = 0
		w.filled = true
	}
	ratio := w.ratioLocked()
	w.mu.Unlock()

	UpdateFetchSuccess(ratio)
	return ratio
}

// Ratio returns the success ratio. An empty window counts as 1.
func (w *Window) Ratio() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ratioLocked()
}

// Met reports whether the window is at or above FetchSuccessSLO.
func (w *Window) Met() bool {
	return w.Ratio() >= FetchSuccessSLO
}

func (w *Window) ratioLocked() float64 {
	n := w.next
	if w.filled {
		n = len(w.results)
	}
	if n == 0 {
		return 1
	}
	ok := 0
	for _, r := range w.results[:n] {
		if r {
			ok++
		}
	}
	return float64(ok) / float64(n)
}
