package db

import (
	"context"
	"fmt"
	"log/slog"

	"bansync/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the settings store: per-guild sync policy rows and
// the ban exemption list. The pipeline only reads; the settings commands write.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(ctx context.Context, connString string, logger *slog.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("no response from postgres: %w", err)
	}

	return &PostgresRepository{pool: p, logger: logger}, nil
}

// EnsureSchema creates the settings tables if the database is fresh.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
            guild_id                 TEXT PRIMARY KEY,
            ban_sync_enabled         BOOLEAN NOT NULL DEFAULT FALSE,
            unban_sync_enabled       BOOLEAN NOT NULL DEFAULT FALSE,
            ban_notify_channel_id    TEXT,
            unban_notify_channel_id  TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS ban_exemptions (
            id        BIGSERIAL PRIMARY KEY,
            guild_id  TEXT NOT NULL,
            user_id   TEXT NOT NULL,
            UNIQUE (guild_id, user_id)
        )`,
	}
	for _, ddl := range statements {
		if _, err := r.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// GetOrCreateSettings returns the guild's policy row, inserting a
// default-disabled one on first access.
func (r *PostgresRepository) GetOrCreateSettings(ctx context.Context, guildID string) (models.GuildSettings, error) {
	var s models.GuildSettings

	insert := `INSERT INTO guild_settings (guild_id) VALUES ($1) ON CONFLICT (guild_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, guildID); err != nil {
		return s, fmt.Errorf("failed to seed settings for guild %s: %w", guildID, err)
	}

	query := `
        SELECT guild_id, ban_sync_enabled, unban_sync_enabled,
               ban_notify_channel_id, unban_notify_channel_id
        FROM guild_settings
        WHERE guild_id = $1
    `
	err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&s.GuildID,
		&s.BanSyncEnabled,
		&s.UnbanSyncEnabled,
		&s.BanNotifyChannelID,
		&s.UnbanNotifyChannelID,
	)
	if err != nil {
		return s, fmt.Errorf("failed to fetch settings for guild %s: %w", guildID, err)
	}

	return s, nil
}

func (r *PostgresRepository) SetBanSyncEnabled(ctx context.Context, guildID string, enabled bool) error {
	query := `
        INSERT INTO guild_settings (guild_id, ban_sync_enabled) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET ban_sync_enabled = EXCLUDED.ban_sync_enabled
    `
	_, err := r.pool.Exec(ctx, query, guildID, enabled)
	return err
}

func (r *PostgresRepository) SetUnbanSyncEnabled(ctx context.Context, guildID string, enabled bool) error {
	query := `
        INSERT INTO guild_settings (guild_id, unban_sync_enabled) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET unban_sync_enabled = EXCLUDED.unban_sync_enabled
    `
	_, err := r.pool.Exec(ctx, query, guildID, enabled)
	return err
}

// SetBanNotifyChannel sets or clears (nil) the ban notification channel.
func (r *PostgresRepository) SetBanNotifyChannel(ctx context.Context, guildID string, channelID *string) error {
	query := `
        INSERT INTO guild_settings (guild_id, ban_notify_channel_id) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET ban_notify_channel_id = EXCLUDED.ban_notify_channel_id
    `
	_, err := r.pool.Exec(ctx, query, guildID, channelID)
	return err
}

// SetUnbanNotifyChannel sets or clears (nil) the unban notification channel.
func (r *PostgresRepository) SetUnbanNotifyChannel(ctx context.Context, guildID string, channelID *string) error {
	query := `
        INSERT INTO guild_settings (guild_id, unban_notify_channel_id) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET unban_notify_channel_id = EXCLUDED.unban_notify_channel_id
    `
	_, err := r.pool.Exec(ctx, query, guildID, channelID)
	return err
}

// IsExempt reports whether the user is on the guild's exemption list.
func (r *PostgresRepository) IsExempt(ctx context.Context, guildID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ban_exemptions WHERE guild_id = $1 AND user_id = $2)`
	if err := r.pool.QueryRow(ctx, query, guildID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check exemption for user %s in guild %s: %w", userID, guildID, err)
	}
	return exists, nil
}

// AddExemption inserts an exemption. Returns false when it already existed.
func (r *PostgresRepository) AddExemption(ctx context.Context, guildID, userID string) (bool, error) {
	query := `INSERT INTO ban_exemptions (guild_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	tag, err := r.pool.Exec(ctx, query, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add exemption: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveExemption deletes an exemption. Returns false when none existed.
func (r *PostgresRepository) RemoveExemption(ctx context.Context, guildID, userID string) (bool, error) {
	query := `DELETE FROM ban_exemptions WHERE guild_id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove exemption: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}
