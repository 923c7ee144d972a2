// Package pipeline implements the ban-sync core: audit-log event ingestion,
// per-event deduplication, fan-out planning against per-guild policy, a
// pending-action queue, and the periodic batch dispatcher that applies or
// announces moderation actions on target guilds.
package pipeline

import (
	"context"

	"bansync/internal/models"

	"github.com/bwmarrin/discordgo"
)

// SettingsStore is the persistence boundary the pipeline reads from.
// It never writes through this interface.
type SettingsStore interface {
	GetOrCreateSettings(ctx context.Context, guildID string) (models.GuildSettings, error)
	IsExempt(ctx context.Context, guildID, userID string) (bool, error)
}

// Gateway is the platform surface the pipeline calls out to. Implemented by
// the bot package over a live discordgo session; faked in tests.
type Gateway interface {
	// GuildIDs lists every guild the bot currently participates in.
	GuildIDs() []string
	// GuildName resolves a guild's display name from the live cache.
	// ok is false when the bot is no longer in that guild.
	GuildName(guildID string) (name string, ok bool)
	// UserTag resolves a user's tag for display. ok is false when the
	// user cannot be resolved; notifications fall back to the mention only.
	UserTag(userID string) (tag string, ok bool)
	ApplyBan(ctx context.Context, guildID, userID string, deleteMessageDays int, reason string) error
	RemoveBan(ctx context.Context, guildID, userID, reason string) error
	PostMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}
