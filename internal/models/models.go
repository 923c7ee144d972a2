package models

import "time"

// EventKind classifies an observed audit-log moderation action.
type EventKind int

const (
	KindBan EventKind = iota + 1
	KindUnban
)

func (k EventKind) String() string {
	switch k {
	case KindBan:
		return "ban"
	case KindUnban:
		return "unban"
	default:
		return "unknown"
	}
}

// SyncEvent is one qualifying audit-log entry observed in a source guild.
// Immutable after creation; lives only for the duration of fan-out planning.
type SyncEvent struct {
	ID            string // Correlation ID for log tracing (UUID)
	Kind          EventKind
	UserID        string
	SourceGuildID string
	Reason        string // Empty when the moderator gave none
	Timestamp     time.Time
}

// ActionKind classifies a pending outbound action.
type ActionKind int

const (
	ActionSync ActionKind = iota + 1
	ActionUnsync
)

func (k ActionKind) String() string {
	switch k {
	case ActionSync:
		return "sync"
	case ActionUnsync:
		return "unsync"
	default:
		return "unknown"
	}
}

// PendingAction is one queued outbound action for a single target guild.
// Enqueued once by the planner, consumed once by a dispatcher lane.
type PendingAction struct {
	Kind          ActionKind
	UserID        string
	SourceGuildID string
	TargetGuildID string
	Reason        string
}

// GuildSettings is the per-guild sync policy row. The pipeline only reads
// these; mutation happens through the settings commands.
type GuildSettings struct {
	GuildID              string
	BanSyncEnabled       bool
	UnbanSyncEnabled     bool
	BanNotifyChannelID   *string
	UnbanNotifyChannelID *string
}

// BanExemption marks a user as protected from auto-applied sync bans in one guild.
type BanExemption struct {
	ID      int64
	GuildID string
	UserID  string
}
