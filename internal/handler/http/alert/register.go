package alert

import "net/http"

// Register registers the alert and quote handlers with mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET    /api/alerts", ListHandler{svc})
	mux.Handle("POST   /api/alerts", CreateHandler{svc})
	mux.Handle("DELETE /api/alerts/{ticker}/{condition}", DeleteHandler{svc})

	mux.Handle("POST   /api/quotes", QuoteHandler{svc})
}
