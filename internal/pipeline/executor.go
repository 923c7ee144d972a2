package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"bansync/internal/models"
	"bansync/pkg/metrics"

	"github.com/bwmarrin/discordgo"
)

// MaxAuditReason is the platform's audit-log reason length ceiling.
// Longer synthesized reasons are cut at the boundary, never rejected.
const MaxAuditReason = 512

const notifyEmbedColor = 0xFF8800

// Executor performs the concrete side effect of one pending action. Execute
// never propagates an error: every failure is logged and swallowed so one bad
// action cannot take down its batch siblings.
type Executor struct {
	gateway Gateway
	store   SettingsStore
	logger  *slog.Logger
}

func NewExecutor(gateway Gateway, store SettingsStore, logger *slog.Logger) *Executor {
	return &Executor{
		gateway: gateway,
		store:   store,
		logger:  logger,
	}
}

// Execute applies or announces one action on its target guild.
func (e *Executor) Execute(ctx context.Context, a models.PendingAction) {
	kind := models.KindBan
	if a.Kind == models.ActionUnsync {
		kind = models.KindUnban
	}
	strat := strategyFor(kind)

	// Both guild handles must resolve from the live cache. The common case
	// for a miss is the bot having left the guild; stay silent.
	sourceName, ok := e.gateway.GuildName(a.SourceGuildID)
	if !ok {
		metrics.ActionsExecuted.WithLabelValues(kind.String(), "skipped").Inc()
		return
	}
	if _, ok := e.gateway.GuildName(a.TargetGuildID); !ok {
		metrics.ActionsExecuted.WithLabelValues(kind.String(), "skipped").Inc()
		return
	}

	l := e.logger.With("kind", kind.String(), "user_id", a.UserID,
		"source_guild", a.SourceGuildID, "target_guild", a.TargetGuildID)

	settings, err := e.store.GetOrCreateSettings(ctx, a.TargetGuildID)
	if err != nil {
		l.Error("Dropping action: settings fetch failed", "error", err)
		metrics.ActionsExecuted.WithLabelValues(kind.String(), "error").Inc()
		return
	}

	auto := strat.autoEnabled(settings)
	if auto {
		e.autoApply(ctx, strat, a, settings, sourceName, l)
	}

	if channelID := strat.notifyChannel(settings); channelID != nil {
		e.notify(ctx, strat, a, *channelID, sourceName, auto, l)
	}
}

func (e *Executor) autoApply(ctx context.Context, strat laneStrategy, a models.PendingAction, settings models.GuildSettings, sourceName string, l *slog.Logger) {
	if strat.checkExempt {
		exempt, err := e.store.IsExempt(ctx, a.TargetGuildID, a.UserID)
		if err != nil {
			l.Error("Skipping auto-apply: exemption check failed", "error", err)
			metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "error").Inc()
			return
		}
		if exempt {
			l.Info("User exempted in target guild, not applying")
			metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "skipped").Inc()
			return
		}
	}

	reason := TruncateReason(fmt.Sprintf("Synced %s with %s. | %s", strat.reasonVerb, sourceName, a.Reason))
	if err := strat.apply(ctx, e.gateway, a.TargetGuildID, a.UserID, reason); err != nil {
		l.Error("Failed to apply action on target guild", "error", err)
		metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "error").Inc()
		return
	}

	l.Info("Action applied", "reason", reason)
	metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "applied").Inc()
}

func (e *Executor) notify(ctx context.Context, strat laneStrategy, a models.PendingAction, channelID, sourceName string, autoApplied bool, l *slog.Logger) {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildNotificationEmbed(strat, a, sourceName, e.gateway)},
	}

	// The replay button only makes sense when the action was not already
	// applied automatically.
	if !autoApplied {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    strat.buttonLabel,
						Style:    strat.buttonStyle,
						Emoji:    strat.buttonEmoji,
						CustomID: replayCustomID(strat.customIDPrefix, a.UserID, a.SourceGuildID),
					},
				},
			},
		}
	}

	if err := e.gateway.PostMessage(ctx, channelID, msg); err != nil {
		l.Error("Failed to post notification", "channel_id", channelID, "error", err)
		metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "error").Inc()
		return
	}

	metrics.ActionsExecuted.WithLabelValues(strat.kind.String(), "notified").Inc()
}

// buildNotificationEmbed formats the notification posted to a target guild's
// configured channel.
func buildNotificationEmbed(strat laneStrategy, a models.PendingAction, sourceName string, gw Gateway) *discordgo.MessageEmbed {
	mention := fmt.Sprintf("<@%s>", a.UserID)
	if tag, ok := gw.UserTag(a.UserID); ok {
		mention = fmt.Sprintf("%s `%s`", mention, tag)
	}

	reason := a.Reason
	if reason == "" {
		reason = "No reason"
	}

	return &discordgo.MessageEmbed{
		Color:       notifyEmbedColor,
		Title:       strat.title,
		Description: fmt.Sprintf("User %s was %s in %s (%s)", mention, strat.pastTense, sourceName, a.SourceGuildID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: reason},
		},
	}
}

// replayCustomID encodes the replay context carried by a notification button.
func replayCustomID(prefix, userID, sourceGuildID string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, userID, sourceGuildID)
}

// TruncateReason enforces the audit-reason ceiling, keeping the head so the
// synthesized prefix survives when the original reason is oversized. The cut
// backs up to a rune boundary so the result stays valid UTF-8.
func TruncateReason(reason string) string {
	if len(reason) <= MaxAuditReason {
		return reason
	}
	cut := MaxAuditReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
