package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EventsReceived counts raw events arriving at the ingestion
	// endpoints, before any validation
	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_events_received_total",
			Help: "Total delivery webhook events received",
		},
		[]string{"source"},
	)

	// EventsApplied counts events that made it through reconciliation
	EventsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_events_applied_total",
			Help: "Total delivery events applied to the store",
		},
		[]string{"source", "event_type"},
	)

	// EventsFailed counts events rejected or failed, by reason
	EventsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_events_failed_total",
			Help: "Total delivery events that failed processing",
		},
		[]string{"source", "reason"},
	)

	// ApplyDuration observes reconciliation latency per source
	ApplyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_event_apply_duration_seconds",
			Help:    "Time spent applying one delivery event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(EventsReceived)
	prometheus.MustRegister(EventsApplied)
	prometheus.MustRegister(EventsFailed)
	prometheus.MustRegister(ApplyDuration)
}
