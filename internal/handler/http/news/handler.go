// Package news provides HTTP handlers for the dashboard panels, search and
// the poll schedule.
package news

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/handler/http/bind"
	"market-pulse/internal/handler/http/respond"
	"market-pulse/internal/observability/logging"
	"market-pulse/internal/usecase/dashboard"
	newsUC "market-pulse/internal/usecase/news"
)

// DefaultRefreshTimeout bounds a manual refresh. It covers three staggered
// fetches with full retry budgets.
const DefaultRefreshTimeout = 2 * time.Minute

// Dashboard is the panel state. *dashboard.Dashboard satisfies it.
type Dashboard interface {
	Snapshot() dashboard.State
	Category(c entity.NewsCategory) entity.NewsData
	RefreshAll(ctx context.Context, isPoll bool)
	Search(ctx context.Context, query string) (entity.NewsData, error)
	ClearSearch()
}

// Poller is the refresh schedule. *dashboard.Poller satisfies it.
type Poller interface {
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// StateHandler returns every panel.
type StateHandler struct{ Svc Dashboard }

func (h StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Svc.Snapshot())
}

// CategoryHandler returns one panel.
type CategoryHandler struct{ Svc Dashboard }

func (h CategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := entity.ParseCategory(r.PathValue("category"))
	if err != nil {
		respond.SafeError(w, http.StatusNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.Svc.Category(c))
}

// RefreshHandler refreshes every panel and returns the new state.
// The refresh outlives a disconnecting client so that the panels are not
// left in a failed state; Timeout still bounds it.
type RefreshHandler struct {
	Svc     Dashboard
	Timeout time.Duration
}

func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	h.Svc.RefreshAll(ctx, false)
	respond.JSON(w, http.StatusOK, h.Svc.Snapshot())
}

// SearchHandler runs a free-text search over the news.
//
// Fetch failures are returned as 502 with the usual panel shape, error set.
type SearchHandler struct{ Svc Dashboard }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respond.SafeError(w, http.StatusBadRequest, newsUC.ErrEmptyQuery)
		return
	}
	if len(q) > maxQueryLength {
		respond.SafeError(w, http.StatusBadRequest, errQueryTooLong)
		return
	}

	data, err := h.Svc.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, newsUC.ErrEmptyQuery) {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		data.Error = respond.SanitizeError(err)
		logging.FromContext(r.Context()).Warn("search failed",
			slog.String("query", q),
			slog.String("error", data.Error))
		respond.JSON(w, http.StatusBadGateway, data)
		return
	}
	respond.JSON(w, http.StatusOK, data)
}

// ClearSearchHandler forgets the current search.
type ClearSearchHandler struct{ Svc Dashboard }

func (h ClearSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Svc.ClearSearch()
	w.WriteHeader(http.StatusNoContent)
}

// PollDTO is the poll schedule on the wire. Interval is a Go duration
// such as "5m", or "manual" when polling is off.
type PollDTO struct {
	Interval        string `json:"interval"`
	IntervalSeconds int64  `json:"intervalSeconds"`
}

func pollDTO(d time.Duration) PollDTO {
	if d == 0 {
		return PollDTO{Interval: manualInterval}
	}
	return PollDTO{Interval: d.String(), IntervalSeconds: int64(d.Seconds())}
}

// GetPollHandler returns the poll schedule.
type GetPollHandler struct{ Poller Poller }

func (h GetPollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, pollDTO(h.Poller.Interval()))
}

// SetPollHandler replaces the poll schedule.
type SetPollHandler struct{ Poller Poller }

func (h SetPollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval string `json:"interval" validate:"required,max=16"`
	}
	if err := bind.JSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	d, err := ParseInterval(req.Interval)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Poller.SetInterval(d); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, pollDTO(h.Poller.Interval()))
}
