package bot

import (
	"context"
	"fmt"
	"strings"

	"bansync/internal/pipeline"

	"github.com/bwmarrin/discordgo"
)

// handleComponent replays the action a notification button encodes: the
// custom ID carries (userID, sourceGuildID), the displayed Reason field
// supplies the audit reason, and the action applies to the guild the button
// was clicked in.
func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	var verb string
	var rest string
	switch {
	case strings.HasPrefix(customID, "sync_ban_"):
		verb = "ban"
		rest = strings.TrimPrefix(customID, "sync_ban_")
	case strings.HasPrefix(customID, "sync_unban_"):
		verb = "unban"
		rest = strings.TrimPrefix(customID, "sync_unban_")
	default:
		return
	}

	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return
	}
	userID, sourceGuildID := parts[0], parts[1]

	if i.Member == nil || i.Member.Permissions&discordgo.PermissionBanMembers == 0 {
		b.respondText(s, i, "You need the Ban Members permission to do that.", true)
		return
	}

	// Strip the button so the action cannot be replayed twice from the
	// same notification.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Error("Failed to update notification message", "guild_id", i.GuildID, "error", err)
		return
	}

	sourceName := sourceGuildID
	if name, ok := b.GuildName(sourceGuildID); ok {
		sourceName = name
	}

	reason := fmt.Sprintf("Synced %s with %s", verb, sourceName)
	if r := displayedReason(i.Message); r != "" {
		reason += fmt.Sprintf(" | %s", r)
	}
	reason = pipeline.TruncateReason(reason)

	ctx := context.Background()
	if verb == "ban" {
		err = b.ApplyBan(ctx, i.GuildID, userID, 0, reason)
	} else {
		err = b.RemoveBan(ctx, i.GuildID, userID, reason)
	}

	if err != nil {
		b.logger.Error("Replay action failed", "guild_id", i.GuildID,
			"user_id", userID, "verb", verb, "error", err)
		b.followupText(s, i, fmt.Sprintf("Failed to %s this user.", verb))
		return
	}

	if verb == "ban" {
		b.followupText(s, i, "User banned.")
	} else {
		b.followupText(s, i, "User unbanned.")
	}
}

// displayedReason recovers the Reason field from the notification embed.
func displayedReason(msg *discordgo.Message) string {
	if msg == nil || len(msg.Embeds) == 0 {
		return ""
	}
	for _, f := range msg.Embeds[0].Fields {
		if f.Name == "Reason" {
			return f.Value
		}
	}
	return ""
}

func (b *Bot) followupText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Error("Failed to send followup", "guild_id", i.GuildID, "error", err)
	}
}
