package bot

import (
	"context"
	"fmt"
	"log/slog"

	"bansync/internal/db"
	"bansync/internal/pipeline"

	"github.com/bwmarrin/discordgo"
)

// Bot owns the Discord session and adapts it to the pipeline's Gateway
// contract. It also hosts the settings commands and the replay buttons.
type Bot struct {
	session *discordgo.Session
	store   *db.PostgresRepository
	logger  *slog.Logger
	ingest  *pipeline.Ingestor
}

func New(token string, store *db.PostgresRepository, logger *slog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Guild metadata plus ban/audit-log events is all the pipeline needs.
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentGuildModeration

	return &Bot{
		session: dg,
		store:   store,
		logger:  logger,
	}, nil
}

// SetIngestor wires the pipeline entry point. Must be called before Open.
func (b *Bot) SetIngestor(ing *pipeline.Ingestor) {
	b.ingest = ing
}

// Open registers handlers, connects the gateway, and registers the slash
// commands once the session is live.
func (b *Bot) Open() error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Logged in", "user", r.User.String(), "guilds", len(r.Guilds))
	})
	b.session.AddHandler(b.onAuditLogEntry)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// GuildIDs implements pipeline.Gateway from the session's state cache.
func (b *Bot) GuildIDs() []string {
	guilds := b.session.State.Guilds
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func (b *Bot) GuildName(guildID string) (string, bool) {
	g, err := b.session.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	return g.Name, true
}

func (b *Bot) UserTag(userID string) (string, bool) {
	u, err := b.session.User(userID)
	if err != nil || u == nil {
		return "", false
	}
	return u.String(), true
}

func (b *Bot) ApplyBan(ctx context.Context, guildID, userID string, deleteMessageDays int, reason string) error {
	return b.session.GuildBanCreateWithReason(guildID, userID, reason, deleteMessageDays, discordgo.WithContext(ctx))
}

func (b *Bot) RemoveBan(ctx context.Context, guildID, userID, reason string) error {
	return b.session.GuildBanDelete(guildID, userID, discordgo.WithAuditLogReason(reason), discordgo.WithContext(ctx))
}

func (b *Bot) PostMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := b.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return err
}
