package news

import (
	"net/http"
	"time"
)

// Register registers the panel, search and poll handlers with mux.
// limit wraps the endpoints that call the generative AI provider; nil
// leaves them unlimited.
func Register(mux *http.ServeMux, svc Dashboard, poller Poller, refreshTimeout time.Duration, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}

	mux.Handle("GET    /api/news", StateHandler{svc})
	mux.Handle("GET    /api/news/{category}", CategoryHandler{svc})
	mux.Handle("POST   /api/news/refresh", limit(RefreshHandler{Svc: svc, Timeout: refreshTimeout}))

	mux.Handle("GET    /api/search", limit(SearchHandler{svc}))
	mux.Handle("DELETE /api/search", ClearSearchHandler{svc})

	if poller != nil {
		mux.Handle("GET    /api/poll", GetPollHandler{poller})
		mux.Handle("PUT    /api/poll", SetPollHandler{poller})
	}
}
