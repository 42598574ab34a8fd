// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// GenerationDuration tracks calls to the text-generation backend.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Text generation duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "mode", "status"},
	)

	// StreamFragmentsTotal counts fragments relayed to streaming clients.
	StreamFragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_stream_fragments_total",
			Help: "Total streamed response fragments",
		},
		[]string{"provider"},
	)

	// StreamsActive tracks in-flight streaming replies.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_replies_active",
			Help: "Number of streaming replies in progress",
		},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks persisted messages.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"sender", "status"},
	)

	// FeedbackTotal tracks feedback updates by resulting state.
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_feedback_total",
			Help: "Total feedback updates by resulting state",
		},
		[]string{"state"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordGeneration records metrics for one generator call.
func RecordGeneration(provider, mode, status string, duration float64) {
	GenerationDuration.WithLabelValues(provider, mode, status).Observe(duration)
}

// IncrementStreams increments the active stream count.
func IncrementStreams() {
	StreamsActive.Inc()
}

// DecrementStreams decrements the active stream count.
func DecrementStreams() {
	StreamsActive.Dec()
}
