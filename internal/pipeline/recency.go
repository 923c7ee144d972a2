package pipeline

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"bansync/internal/models"
)

// RecencyCapacity bounds each per-kind dedup cache. The gateway occasionally
// redelivers audit-log entries; anything beyond this window is accepted again.
const RecencyCapacity = 500

// RecencyKey is the dedup identity of an event within its kind.
type RecencyKey struct {
	SourceGuildID string
	UserID        string
}

// RecencyCache is the best-effort duplicate guard. One bounded cache per
// event kind; keys are only ever inserted and membership-tested, so eviction
// follows insertion order.
type RecencyCache struct {
	bans   *lru.Cache[RecencyKey, struct{}]
	unbans *lru.Cache[RecencyKey, struct{}]
}

func NewRecencyCache() (*RecencyCache, error) {
	bans, err := lru.New[RecencyKey, struct{}](RecencyCapacity)
	if err != nil {
		return nil, err
	}
	unbans, err := lru.New[RecencyKey, struct{}](RecencyCapacity)
	if err != nil {
		return nil, err
	}
	return &RecencyCache{bans: bans, unbans: unbans}, nil
}

// Admit reports whether the event is new within the recency window,
// recording it as seen. The check-then-insert is atomic, so two concurrent
// admissions of the same key cannot both succeed.
func (c *RecencyCache) Admit(ev models.SyncEvent) bool {
	key := RecencyKey{SourceGuildID: ev.SourceGuildID, UserID: ev.UserID}

	cache := c.bans
	if ev.Kind == models.KindUnban {
		cache = c.unbans
	}

	seen, _ := cache.ContainsOrAdd(key, struct{}{})
	return !seen
}

// Len returns the number of remembered keys for a kind.
func (c *RecencyCache) Len(kind models.EventKind) int {
	if kind == models.KindUnban {
		return c.unbans.Len()
	}
	return c.bans.Len()
}
