package generator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records provider call metrics.
// Tests inject a recorder that keeps the calls in memory.
type MetricsRecorder interface {
	// RecordRequest counts a provider call. Status is "success", an HTTP
	// status code, "rejected" for an open circuit or "error".
	RecordRequest(provider, status string)

	// RecordDuration records the latency of a provider call.
	RecordDuration(provider string, duration time.Duration)

	// RecordCitations records the number of grounding citations returned.
	RecordCitations(provider string, count int)
}

// PrometheusMetrics implements MetricsRecorder using Prometheus metrics.
type PrometheusMetrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	citations *prometheus.HistogramVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateCounterVec gets an existing counter vec or registers a new one.
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// getOrCreateHistogramVec gets an existing histogram vec or registers a new one.
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// NewPrometheusMetrics returns the process-wide Prometheus recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			requests: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "ai_generation_requests_total",
				Help: "Total number of generative AI calls by provider and status",
			}, []string{"provider", "status"}),
			duration: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "ai_generation_duration_seconds",
				Help:    "Latency of generative AI calls",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
			citations: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "ai_generation_citations",
				Help:    "Number of grounding citations per generative AI reply",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			}, []string{"provider"}),
		}
	})
	return prometheusMetricsInstance
}

// RecordRequest implements MetricsRecorder.RecordRequest
func (p *PrometheusMetrics) RecordRequest(provider, status string) {
	p.requests.WithLabelValues(provider, status).Inc()
}

// RecordDuration implements MetricsRecorder.RecordDuration
func (p *PrometheusMetrics) RecordDuration(provider string, duration time.Duration) {
	p.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCitations implements MetricsRecorder.RecordCitations
func (p *PrometheusMetrics) RecordCitations(provider string, count int) {
	p.citations.WithLabelValues(provider).Observe(float64(count))
}
