package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"bansync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionQueue_FIFO(t *testing.T) {
	q := NewActionQueue()

	for i := 1; i <= 3; i++ {
		q.Enqueue(models.PendingAction{UserID: fmt.Sprintf("user-%d", i)})
	}

	batch := q.DequeueUpTo(3)
	require.Len(t, batch, 3)
	assert.Equal(t, "user-1", batch[0].UserID)
	assert.Equal(t, "user-2", batch[1].UserID)
	assert.Equal(t, "user-3", batch[2].UserID)
	assert.Equal(t, 0, q.Len())
}

func TestActionQueue_DequeueUpTo_Partial(t *testing.T) {
	q := NewActionQueue()

	for i := 0; i < 25; i++ {
		q.Enqueue(models.PendingAction{UserID: fmt.Sprintf("user-%d", i)})
	}

	batch := q.DequeueUpTo(10)
	require.Len(t, batch, 10)
	assert.Equal(t, "user-0", batch[0].UserID)
	assert.Equal(t, 15, q.Len(), "undrained actions stay for the next tick")

	next := q.DequeueUpTo(10)
	require.Len(t, next, 10)
	assert.Equal(t, "user-10", next[0].UserID, "order is preserved across batches")
}

func TestActionQueue_DequeueUpTo_Empty(t *testing.T) {
	q := NewActionQueue()
	assert.Nil(t, q.DequeueUpTo(10))
}

func TestActionQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewActionQueue()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(models.PendingAction{UserID: fmt.Sprintf("p%d-%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}

func TestLaneQueues_For(t *testing.T) {
	lanes := NewLaneQueues()

	lanes.For(models.KindBan).Enqueue(models.PendingAction{Kind: models.ActionSync})
	assert.Equal(t, 1, lanes.For(models.KindBan).Len())
	assert.Equal(t, 0, lanes.For(models.KindUnban).Len(), "lanes are independent")
}
