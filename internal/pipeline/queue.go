package pipeline

import (
	"sync"

	"bansync/internal/models"
)

// ActionQueue is a thread-safe unbounded FIFO of pending actions.
//
// Producers are the fan-out workers (many concurrent event pipelines);
// the consumer is one dispatcher lane draining bounded batches. The queue
// is intentionally in-memory only: undelivered actions do not survive a
// restart, matching the best-effort delivery contract.
type ActionQueue struct {
	mu      sync.Mutex
	actions []models.PendingAction
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{
		actions: make([]models.PendingAction, 0, 64),
	}
}

// Enqueue appends one action to the back of the queue.
func (q *ActionQueue) Enqueue(a models.PendingAction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, a)
}

// DequeueUpTo removes and returns at most n actions from the front,
// preserving insertion order. Returns nil when the queue is empty.
func (q *ActionQueue) DequeueUpTo(n int) []models.PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 || n <= 0 {
		return nil
	}
	if n > len(q.actions) {
		n = len(q.actions)
	}

	batch := make([]models.PendingAction, n)
	copy(batch, q.actions[:n])

	// Zero the drained slots so the backing array does not retain strings
	// past consumption under steady load.
	for i := 0; i < n; i++ {
		q.actions[i] = models.PendingAction{}
	}
	q.actions = q.actions[n:]

	// Reset the slice once empty to reclaim the shifted prefix.
	if len(q.actions) == 0 {
		q.actions = make([]models.PendingAction, 0, 64)
	}

	return batch
}

// Len returns the current backlog size.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// LaneQueues holds the two independent per-kind queues.
type LaneQueues struct {
	bans   *ActionQueue
	unbans *ActionQueue
}

func NewLaneQueues() *LaneQueues {
	return &LaneQueues{
		bans:   NewActionQueue(),
		unbans: NewActionQueue(),
	}
}

// For returns the queue serving the given event kind.
func (l *LaneQueues) For(kind models.EventKind) *ActionQueue {
	if kind == models.KindUnban {
		return l.unbans
	}
	return l.bans
}
