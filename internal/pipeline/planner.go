package pipeline

import (
	"context"
	"log/slog"

	"bansync/internal/models"
	"bansync/pkg/metrics"
)

// Planner decides, per admitted event, which other guilds receive a pending
// action. One settings round trip per guild; a failing guild is skipped, not
// allowed to abort planning for the rest.
type Planner struct {
	store   SettingsStore
	gateway Gateway
	queues  *LaneQueues
	logger  *slog.Logger
}

func NewPlanner(store SettingsStore, gateway Gateway, queues *LaneQueues, logger *slog.Logger) *Planner {
	return &Planner{
		store:   store,
		gateway: gateway,
		queues:  queues,
		logger:  logger,
	}
}

// Plan enumerates every known guild other than the source and enqueues one
// action per eligible target.
func (p *Planner) Plan(ctx context.Context, ev models.SyncEvent) {
	strat := strategyFor(ev.Kind)
	queue := p.queues.For(ev.Kind)

	l := p.logger.With("event_id", ev.ID, "kind", ev.Kind.String(),
		"user_id", ev.UserID, "source_guild", ev.SourceGuildID)

	enqueued := 0
	for _, guildID := range p.gateway.GuildIDs() {
		if guildID == ev.SourceGuildID {
			continue
		}

		settings, err := p.store.GetOrCreateSettings(ctx, guildID)
		if err != nil {
			l.Warn("Skipping guild: settings fetch failed", "guild_id", guildID, "error", err)
			continue
		}

		if !strat.eligible(settings) {
			continue
		}

		queue.Enqueue(models.PendingAction{
			Kind:          strat.actionKind,
			UserID:        ev.UserID,
			SourceGuildID: ev.SourceGuildID,
			TargetGuildID: guildID,
			Reason:        ev.Reason,
		})
		enqueued++
		metrics.ActionsEnqueued.WithLabelValues(ev.Kind.String()).Inc()
	}

	metrics.QueueBacklog.WithLabelValues(ev.Kind.String()).Set(float64(queue.Len()))

	if enqueued > 0 {
		l.Info("Fan-out planned", "targets", enqueued)
	}
}
