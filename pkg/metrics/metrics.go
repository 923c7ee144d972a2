package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested tracks qualifying audit-log entries accepted by the adapter
	// Labels allow filtering by kind (ban/unban)
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bansync_events_ingested_total",
		Help: "Total number of audit-log events accepted for processing",
	}, []string{"kind"})

	// EventsDeduplicated counts events dropped by the recency cache
	// A high rate here usually means the gateway is redelivering entries
	EventsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bansync_events_deduplicated_total",
		Help: "Total number of events suppressed as duplicates",
	}, []string{"kind"})

	// EventsDropped counts events discarded because the ingest buffer was full
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bansync_events_dropped_total",
		Help: "Total number of events dropped due to ingest backpressure",
	}, []string{"kind"})

	// ActionsEnqueued tracks the fan-out volume decided by the planner
	ActionsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bansync_actions_enqueued_total",
		Help: "Total number of pending actions enqueued for dispatch",
	}, []string{"kind"})

	// ActionsExecuted tracks executor outcomes per lane
	// status is one of: applied, notified, skipped, error
	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bansync_actions_executed_total",
		Help: "Total number of dispatched actions by outcome",
	}, []string{"kind", "status"})

	// BatchDuration measures how long a dispatcher tick spends on its batch
	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bansync_batch_duration_seconds",
		Help:    "Duration of dispatcher batch execution in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// BatchSize tracks the number of actions actually drained per tick
	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bansync_batch_size",
		Help:    "Number of actions executed per dispatcher tick",
		Buckets: []float64{1, 2, 5, 10},
	})

	// QueueBacklog is the primary indicator of dispatch lag per lane
	QueueBacklog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bansync_queue_backlog",
		Help: "Current number of pending actions waiting in a lane queue",
	}, []string{"kind"})
)
