package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/observability/metrics"
)

// Notifier delivers a triggered alert message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Trigger is an alert whose condition was met by a quote.
type Trigger struct {
	Alert   entity.Alert `json:"alert"`
	Price   float64      `json:"price"`
	Message string       `json:"message"`
}

// Service stores alerts in memory. A ticker has at most one alert per
// condition. It is safe for concurrent use.
type Service struct {
	notifier Notifier

	mu           sync.Mutex
	alerts       []entity.Alert
	lastNotified string
}

// NewService creates an empty Service. n may be nil, in which case
// triggers are only returned to the caller.
func NewService(n Notifier) *Service {
	return &Service{notifier: n}
}

// Set adds a, replacing any alert with the same ticker and condition, and
// returns the confirmation message.
func (s *Service) Set(a entity.Alert) (string, error) {
	a.Ticker = entity.NormalizeTicker(a.Ticker)
	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("set alert: %w", err)
	}

	s.mu.Lock()
	replaced := false
	for i := range s.alerts {
		if s.alerts[i].Ticker == a.Ticker && s.alerts[i].Condition == a.Condition {
			s.alerts[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		s.alerts = append(s.alerts, a)
	}
	count := len(s.alerts)
	s.mu.Unlock()

	metrics.UpdateAlertsActive(count)
	slog.Info("alert set",
		slog.String("ticker", a.Ticker),
		slog.String("condition", string(a.Condition)),
		slog.Float64("target_price", a.TargetPrice),
		slog.Bool("replaced", replaced))

	return fmt.Sprintf("Alert set for %s when price goes %s ₹%s", a.Ticker, a.Condition, entity.FormatPrice(a.TargetPrice)), nil
}

// Remove deletes the alert for ticker and condition.
func (s *Service) Remove(ticker string, condition entity.AlertCondition) error {
	ticker = entity.NormalizeTicker(ticker)

	s.mu.Lock()
	kept := s.alerts[:0]
	removed := false
	for _, a := range s.alerts {
		if a.Ticker == ticker && a.Condition == condition {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	count := len(s.alerts)
	s.mu.Unlock()

	if !removed {
		return ErrAlertNotFound
	}
	metrics.UpdateAlertsActive(count)
	return nil
}

// List returns the alerts in insertion order.
func (s *Service) List() []entity.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// ForTicker returns the alerts set on ticker.
func (s *Service) ForTicker(ticker string) []entity.Alert {
	ticker = entity.NormalizeTicker(ticker)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.Alert{}
	for _, a := range s.alerts {
		if a.Ticker == ticker {
			out = append(out, a)
		}
	}
	return out
}

// Evaluate checks q against every alert on its ticker. An alert that stays
// triggered is reported once, until a different alert triggers.
// Triggers are sent through the notifier; delivery failures are logged.
func (s *Service) Evaluate(ctx context.Context, q entity.Quote) []Trigger {
	ticker := entity.NormalizeTicker(q.Ticker)

	s.mu.Lock()
	var triggers []Trigger
	for _, a := range s.alerts {
		if a.Ticker != ticker || !a.Met(q.Price) {
			continue
		}
		id := a.ID()
		if id == s.lastNotified {
			continue
		}
		s.lastNotified = id
		triggers = append(triggers, Trigger{
			Alert: a,
			Price: q.Price,
			Message: fmt.Sprintf("📈 Alert for %s: Price crossed ₹%s and is now ₹%s",
				ticker, entity.FormatPrice(a.TargetPrice), entity.FormatPrice(q.Price)),
		})
	}
	s.mu.Unlock()

	for _, t := range triggers {
		metrics.RecordAlertTriggered(string(t.Alert.Condition))
		slog.InfoContext(ctx, "alert triggered",
			slog.String("ticker", t.Alert.Ticker),
			slog.String("condition", string(t.Alert.Condition)),
			slog.Float64("price", t.Price))
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Notify(ctx, t.Message); err != nil {
			slog.WarnContext(ctx, "alert notification failed",
				slog.String("ticker", t.Alert.Ticker),
				slog.Any("error", err))
		}
	}
	return triggers
}
