package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// loadMetrics tracks configuration loads and the settings that failed
// validation.
type loadMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
}

var configMetrics = newLoadMetrics(prometheus.DefaultRegisterer)

func newLoadMetrics(reg prometheus.Registerer) *loadMetrics {
	factory := promauto.With(reg)
	return &loadMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "config_load_timestamp_seconds",
			Help: "Unix timestamp of the last configuration load",
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "config_validation_errors_total",
			Help: "Total number of configuration validation errors by setting",
		}, []string{"field"}),
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *loadMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a failed setting.
func (m *loadMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}
