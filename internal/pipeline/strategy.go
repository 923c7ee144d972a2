package pipeline

import (
	"context"

	"bansync/internal/models"

	"github.com/bwmarrin/discordgo"
)

// laneStrategy parameterizes the pipeline over event kind. The ban and unban
// paths share one planner, one dispatcher loop, and one executor body; only
// the policy-flag selection, wording, and concrete platform call differ.
type laneStrategy struct {
	kind       models.EventKind
	actionKind models.ActionKind

	title          string // notification embed title
	pastTense      string // "banned" / "unbanned" in the embed description
	reasonVerb     string // "ban" / "unban" in the synthesized audit reason
	buttonLabel    string
	buttonStyle    discordgo.ButtonStyle
	buttonEmoji    *discordgo.ComponentEmoji
	customIDPrefix string

	// eligible decides fan-out: whether a guild should receive a queued
	// action for this kind at all.
	eligible func(models.GuildSettings) bool
	// autoEnabled gates automatic application on the target guild.
	autoEnabled func(models.GuildSettings) bool
	// notifyChannel selects the kind's notification channel, nil when unset.
	notifyChannel func(models.GuildSettings) *string
	// checkExempt is true when the target guild's exemption list must be
	// consulted before auto-applying.
	checkExempt bool

	apply func(ctx context.Context, gw Gateway, guildID, userID, reason string) error
}

var laneStrategies = map[models.EventKind]laneStrategy{
	models.KindBan: {
		kind:           models.KindBan,
		actionKind:     models.ActionSync,
		title:          "Ban Sync",
		pastTense:      "banned",
		reasonVerb:     "ban",
		buttonLabel:    "Ban",
		buttonStyle:    discordgo.DangerButton,
		buttonEmoji:    &discordgo.ComponentEmoji{Name: "banhammer", ID: "513640748801982496"},
		customIDPrefix: "sync_ban",
		eligible: func(s models.GuildSettings) bool {
			return s.BanSyncEnabled || s.BanNotifyChannelID != nil
		},
		autoEnabled: func(s models.GuildSettings) bool {
			return s.BanSyncEnabled
		},
		notifyChannel: func(s models.GuildSettings) *string {
			return s.BanNotifyChannelID
		},
		checkExempt: true,
		apply: func(ctx context.Context, gw Gateway, guildID, userID, reason string) error {
			return gw.ApplyBan(ctx, guildID, userID, 0, reason)
		},
	},
	models.KindUnban: {
		kind:           models.KindUnban,
		actionKind:     models.ActionUnsync,
		title:          "Unban Sync",
		pastTense:      "unbanned",
		reasonVerb:     "unban",
		buttonLabel:    "Unban",
		buttonStyle:    discordgo.SuccessButton,
		buttonEmoji:    &discordgo.ComponentEmoji{Name: "✅"},
		customIDPrefix: "sync_unban",
		eligible: func(s models.GuildSettings) bool {
			return s.BanSyncEnabled || s.UnbanSyncEnabled || s.UnbanNotifyChannelID != nil
		},
		autoEnabled: func(s models.GuildSettings) bool {
			// Automatic unbans require their own opt-in; ban sync alone
			// never lifts bans on a target guild.
			return s.UnbanSyncEnabled
		},
		notifyChannel: func(s models.GuildSettings) *string {
			return s.UnbanNotifyChannelID
		},
		checkExempt: false,
		apply: func(ctx context.Context, gw Gateway, guildID, userID, reason string) error {
			return gw.RemoveBan(ctx, guildID, userID, reason)
		},
	},
}

func strategyFor(kind models.EventKind) laneStrategy {
	return laneStrategies[kind]
}
