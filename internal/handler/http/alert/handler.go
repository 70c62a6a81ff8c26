// Package alert provides HTTP handlers for price alerts and quote updates.
package alert

import (
	"context"
	"errors"
	"net/http"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/handler/http/bind"
	"market-pulse/internal/handler/http/respond"
	alertUC "market-pulse/internal/usecase/alert"
)

// Service manages alerts. *alert.Service satisfies it.
type Service interface {
	Set(a entity.Alert) (string, error)
	Remove(ticker string, condition entity.AlertCondition) error
	List() []entity.Alert
	ForTicker(ticker string) []entity.Alert
	Evaluate(ctx context.Context, q entity.Quote) []alertUC.Trigger
}

// AlertDTO is the request body of POST /api/alerts.
type AlertDTO struct {
	Ticker      string  `json:"ticker" validate:"required,max=24"`
	TargetPrice float64 `json:"targetPrice" validate:"gt=0"`
	Condition   string  `json:"condition" validate:"required,oneof=above below"`
}

// SetResponse is returned when an alert is stored.
type SetResponse struct {
	Message string       `json:"message"`
	Alert   entity.Alert `json:"alert"`
}

// QuoteDTO is the request body of POST /api/quotes.
type QuoteDTO struct {
	Ticker string  `json:"ticker" validate:"required,max=24"`
	Price  float64 `json:"price" validate:"gt=0"`
}

// QuoteResponse lists the alerts a quote triggered.
type QuoteResponse struct {
	Triggers []alertUC.Trigger `json:"triggers"`
}

// ListHandler returns every alert, or the alerts of ?ticker=.
type ListHandler struct{ Svc Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("ticker"); t != "" {
		respond.JSON(w, http.StatusOK, h.Svc.ForTicker(t))
		return
	}
	respond.JSON(w, http.StatusOK, h.Svc.List())
}

// CreateHandler stores an alert, replacing one with the same ticker and condition.
type CreateHandler struct{ Svc Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AlertDTO
	if err := bind.JSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	a := entity.Alert{
		Ticker:      entity.NormalizeTicker(req.Ticker),
		TargetPrice: req.TargetPrice,
		Condition:   entity.AlertCondition(req.Condition),
	}
	msg, err := h.Svc.Set(a)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, SetResponse{Message: msg, Alert: a})
}

// DeleteHandler removes the alert at /api/alerts/{ticker}/{condition}.
type DeleteHandler struct{ Svc Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cond := entity.AlertCondition(r.PathValue("condition"))
	if !cond.Valid() {
		respond.SafeError(w, http.StatusBadRequest, errors.New("condition must be above or below"))
		return
	}

	if err := h.Svc.Remove(r.PathValue("ticker"), cond); err != nil {
		if errors.Is(err, alertUC.ErrAlertNotFound) {
			respond.SafeError(w, http.StatusNotFound, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuoteHandler evaluates a price observation against the alerts.
type QuoteHandler struct{ Svc Service }

func (h QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req QuoteDTO
	if err := bind.JSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	triggers := h.Svc.Evaluate(r.Context(), entity.Quote{Ticker: req.Ticker, Price: req.Price})
	if triggers == nil {
		triggers = []alertUC.Trigger{}
	}
	respond.JSON(w, http.StatusOK, QuoteResponse{Triggers: triggers})
}
