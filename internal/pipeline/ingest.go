package pipeline

import (
	"context"
	"log/slog"

	"bansync/internal/models"
	"bansync/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	// ingestBuffer absorbs audit-log bursts between gateway delivery and the
	// worker pool. When full, new events are dropped rather than blocking
	// the gateway handler.
	ingestBuffer = 256
	// ingestWorkers caps concurrent fan-out passes, and with them the
	// concurrent settings-store round trips under event bursts.
	ingestWorkers = 8
)

// Ingestor is the event-source side of the pipeline: it accepts classified
// sync events from the gateway adapter, deduplicates them, and hands the
// survivors to the planner from a bounded worker pool.
type Ingestor struct {
	cache   *RecencyCache
	planner *Planner
	logger  *slog.Logger

	events chan models.SyncEvent
	group  *errgroup.Group
}

func NewIngestor(cache *RecencyCache, planner *Planner, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		cache:   cache,
		planner: planner,
		logger:  logger,
		events:  make(chan models.SyncEvent, ingestBuffer),
	}
}

// Start launches the worker pool. Workers run until ctx is canceled.
func (i *Ingestor) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	i.group = g

	for w := 0; w < ingestWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-i.events:
					i.process(ctx, ev)
				}
			}
		})
	}
}

// Wait blocks until every worker has exited after cancellation.
func (i *Ingestor) Wait() {
	if i.group != nil {
		_ = i.group.Wait()
	}
}

// Offer hands an event to the pool without blocking the caller. Events
// arriving while the buffer is full are dropped and counted.
func (i *Ingestor) Offer(ev models.SyncEvent) {
	select {
	case i.events <- ev:
	default:
		metrics.EventsDropped.WithLabelValues(ev.Kind.String()).Inc()
		i.logger.Warn("Ingest buffer full, dropping event",
			"event_id", ev.ID, "kind", ev.Kind.String(),
			"user_id", ev.UserID, "source_guild", ev.SourceGuildID)
	}
}

func (i *Ingestor) process(ctx context.Context, ev models.SyncEvent) {
	if !i.cache.Admit(ev) {
		metrics.EventsDeduplicated.WithLabelValues(ev.Kind.String()).Inc()
		i.logger.Debug("Duplicate event suppressed",
			"event_id", ev.ID, "kind", ev.Kind.String(),
			"user_id", ev.UserID, "source_guild", ev.SourceGuildID)
		return
	}

	metrics.EventsIngested.WithLabelValues(ev.Kind.String()).Inc()
	i.planner.Plan(ctx, ev)
}
