package metrics

import (
	"time"
)

// RecordFetchAttempt counts one generate-and-parse attempt.
// Result is "success" or the failure kind.
func RecordFetchAttempt(result string) {
	FetchAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordFetchRetryWait records the backoff before a retry.
func RecordFetchRetryWait(delay time.Duration) {
	FetchRetryWait.Observe(delay.Seconds())
}

// RecordFetchOutcome records a completed fetch call.
//
// Example:
//
//	start := time.Now()
//	out := fetcher.Fetch(ctx, prompt, 3)
//	RecordFetchOutcome(out.OK(), attempts, time.Since(start))
func RecordFetchOutcome(success bool, attempts int, duration time.Duration) {
	FetchOutcomesTotal.WithLabelValues(statusLabel(success)).Inc()
	FetchAttemptsPerCall.Observe(float64(attempts))
	FetchDuration.Observe(duration.Seconds())
}

// RecordRefresh records a full dashboard refresh.
func RecordRefresh(isPoll bool, duration time.Duration) {
	trigger := "manual"
	if isPoll {
		trigger = "poll"
	}
	RefreshDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	LastRefreshTimestamp.SetToCurrentTime()
}

// RecordCategoryRefresh records the result of refreshing one category.
func RecordCategoryRefresh(category string, success bool) {
	CategoryRefreshTotal.WithLabelValues(category, statusLabel(success)).Inc()
}

// UpdateAlertsActive sets the number of configured alerts.
func UpdateAlertsActive(count int) {
	AlertsActive.Set(float64(count))
}

// RecordAlertTriggered counts an alert trigger.
func RecordAlertTriggered(condition string) {
	AlertsTriggeredTotal.WithLabelValues(condition).Inc()
}

// RecordNotification records a notification delivery attempt.
func RecordNotification(channel string, success bool) {
	NotificationsTotal.WithLabelValues(channel, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
