package bot

import (
	"time"

	"bansync/internal/models"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// onAuditLogEntry feeds qualifying ban/unban audit-log entries into the
// pipeline. Everything else is silently ignored.
func (b *Bot) onAuditLogEntry(s *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
	ev, ok := classifyAuditEntry(e)
	if !ok {
		return
	}
	b.ingest.Offer(ev)
}

// classifyAuditEntry turns a raw audit-log notification into a SyncEvent.
// Entries that do not match the ban or unban shape yield ok=false; this is a
// filter, not an error.
func classifyAuditEntry(e *discordgo.GuildAuditLogEntryCreate) (models.SyncEvent, bool) {
	if e == nil || e.AuditLogEntry == nil || e.ActionType == nil {
		return models.SyncEvent{}, false
	}

	var kind models.EventKind
	switch *e.ActionType {
	case discordgo.AuditLogActionMemberBanAdd:
		kind = models.KindBan
	case discordgo.AuditLogActionMemberBanRemove:
		kind = models.KindUnban
	default:
		return models.SyncEvent{}, false
	}

	if e.TargetID == "" || e.GuildID == "" {
		return models.SyncEvent{}, false
	}

	return models.SyncEvent{
		ID:            uuid.NewString(),
		Kind:          kind,
		UserID:        e.TargetID,
		SourceGuildID: e.GuildID,
		Reason:        e.Reason,
		Timestamp:     time.Now(),
	}, true
}

// onInteraction routes slash commands and component activations.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}
