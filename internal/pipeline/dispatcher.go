package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bansync/internal/models"
	"bansync/pkg/metrics"
)

const (
	// DispatchInterval is the fixed tick of each lane, counted from start.
	DispatchInterval = 10 * time.Second
	// DispatchBatchSize caps the actions drained and executed per tick,
	// bounding concurrent outbound moderation calls without a rate limiter.
	DispatchBatchSize = 10
)

// Dispatcher runs the two periodic lanes (ban, unban) that drain the pending
// queues in bounded batches. Each drained action executes concurrently; the
// tick waits for the whole batch before the next interval evaluation.
type Dispatcher struct {
	queues   *LaneQueues
	executor *Executor
	logger   *slog.Logger
	interval time.Duration
}

func NewDispatcher(queues *LaneQueues, executor *Executor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queues:   queues,
		executor: executor,
		logger:   logger,
		interval: DispatchInterval,
	}
}

// Run starts both lanes and blocks until ctx is canceled and any in-flight
// batches have finished. Actions mid-flight are never aborted.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, kind := range []models.EventKind{models.KindBan, models.KindUnban} {
		wg.Add(1)
		go func(kind models.EventKind) {
			defer wg.Done()
			d.runLane(ctx, kind)
		}(kind)
	}
	wg.Wait()
}

func (d *Dispatcher) runLane(ctx context.Context, kind models.EventKind) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	l := d.logger.With("lane", kind.String())
	l.Info("Dispatcher lane started", "interval", d.interval, "batch_size", DispatchBatchSize)

	for {
		select {
		case <-ctx.Done():
			l.Info("Dispatcher lane stopped")
			return
		case <-ticker.C:
			d.tick(ctx, kind)
		}
	}
}

// tick drains and executes at most one batch. A failure inside any single
// action is contained by the executor; a failure here would only ever be
// logged, never allowed to stop the lane. The timer is the retry mechanism.
func (d *Dispatcher) tick(ctx context.Context, kind models.EventKind) {
	queue := d.queues.For(kind)
	if queue.Len() == 0 {
		return
	}

	batch := queue.DequeueUpTo(DispatchBatchSize)
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	metrics.BatchSize.Observe(float64(len(batch)))

	// Once drained, the batch runs to completion even if shutdown begins
	// mid-flight. Only the lane's ticker select observes cancellation.
	execCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, action := range batch {
		wg.Add(1)
		go func(a models.PendingAction) {
			defer wg.Done()
			d.executor.Execute(execCtx, a)
		}(action)
	}
	wg.Wait()

	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	metrics.QueueBacklog.WithLabelValues(kind.String()).Set(float64(queue.Len()))

	d.logger.Info("Batch cycle telemetry",
		"lane", kind.String(),
		"count", len(batch),
		"remaining", queue.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
