// Package metrics defines Prometheus metrics for the USSD gateway.
//
// All metrics are registered with the default Prometheus registry and are
// served by Handler.
//
// Metric naming follows Prometheus conventions:
//   - ussd_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DispatchTotal counts finished dispatches by strategy and result
	// (success, failure, timeout, error, cancelled).
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ussd_dispatch_total",
			Help: "Total number of USSD dispatches by strategy and result.",
		},
		[]string{"strategy", "result"},
	)

	// DispatchDurationSeconds is a histogram of dispatch latency by strategy.
	DispatchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ussd_dispatch_duration_seconds",
			Help:    "Duration of USSD dispatches in seconds.",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 30, 45},
		},
		[]string{"strategy"},
	)

	// RejectionsTotal counts requests refused before dispatch, by reason.
	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ussd_rejections_total",
			Help: "Total USSD requests rejected before dispatch.",
		},
		[]string{"reason"},
	)

	// LateEventsTotal counts session events that arrived after the outcome
	// was already settled and were discarded.
	LateEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ussd_late_events_total",
			Help: "Total USSD session events discarded after the outcome was settled.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		DispatchTotal,
		DispatchDurationSeconds,
		RejectionsTotal,
		LateEventsTotal,
	)
}

// RecordDispatch records a finished dispatch.
func RecordDispatch(strategy, result string, took time.Duration) {
	DispatchTotal.WithLabelValues(strategy, result).Inc()
	DispatchDurationSeconds.WithLabelValues(strategy).Observe(took.Seconds())
}

// RecordRejection records a request refused before dispatch.
func RecordRejection(reason string) {
	RejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordLateEvent records a discarded session event.
func RecordLateEvent() {
	LateEventsTotal.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
