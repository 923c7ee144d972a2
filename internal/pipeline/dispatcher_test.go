package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bansync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_TickDrainsOneBoundedBatch(t *testing.T) {
	store := newFakeStore()
	store.setSettings(models.GuildSettings{GuildID: "target", BanSyncEnabled: true})
	gw := newFakeGateway(map[string]string{"source": "S", "target": "T"})

	queues := NewLaneQueues()
	for i := 0; i < 25; i++ {
		queues.For(models.KindBan).Enqueue(models.PendingAction{
			Kind:          models.ActionSync,
			UserID:        fmt.Sprintf("user-%d", i),
			SourceGuildID: "source",
			TargetGuildID: "target",
		})
	}

	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())
	d.tick(context.Background(), models.KindBan)

	assert.Len(t, gw.banCalls(), DispatchBatchSize, "one tick executes at most the batch ceiling")
	assert.Equal(t, 15, queues.For(models.KindBan).Len(), "the rest wait for the next tick")
}

func TestDispatcher_TickSkipsEmptyQueue(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway(map[string]string{})

	queues := NewLaneQueues()
	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())

	d.tick(context.Background(), models.KindBan)
	assert.Empty(t, gw.banCalls())
	assert.Equal(t, 0, store.fetches)
}

func TestDispatcher_LanesAreIndependent(t *testing.T) {
	store := newFakeStore()
	store.setSettings(models.GuildSettings{GuildID: "target", BanSyncEnabled: true, UnbanSyncEnabled: true})
	gw := newFakeGateway(map[string]string{"source": "S", "target": "T"})

	queues := NewLaneQueues()
	queues.For(models.KindBan).Enqueue(models.PendingAction{
		Kind: models.ActionSync, UserID: "u", SourceGuildID: "source", TargetGuildID: "target",
	})
	queues.For(models.KindUnban).Enqueue(models.PendingAction{
		Kind: models.ActionUnsync, UserID: "u", SourceGuildID: "source", TargetGuildID: "target",
	})

	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())
	d.tick(context.Background(), models.KindBan)

	assert.Len(t, gw.banCalls(), 1)
	assert.Empty(t, gw.unbanCalls(), "a ban-lane tick never touches the unban queue")
	assert.Equal(t, 1, queues.For(models.KindUnban).Len())
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway(map[string]string{})

	queues := NewLaneQueues()
	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())
	d.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancellation")
	}
}

// blockingGateway parks ApplyBan until released, then records whether the
// call's context had been canceled underneath it.
type blockingGateway struct {
	*fakeGateway
	entered  chan struct{}
	release  chan struct{}
	canceled bool
}

func (g *blockingGateway) ApplyBan(ctx context.Context, guildID, userID string, deleteMessageDays int, reason string) error {
	close(g.entered)
	<-g.release
	select {
	case <-ctx.Done():
		g.canceled = true
	default:
	}
	return g.fakeGateway.ApplyBan(ctx, guildID, userID, deleteMessageDays, reason)
}

func TestDispatcher_ShutdownLetsInFlightActionsFinish(t *testing.T) {
	store := newFakeStore()
	store.setSettings(models.GuildSettings{GuildID: "target", BanSyncEnabled: true})
	gw := &blockingGateway{
		fakeGateway: newFakeGateway(map[string]string{"source": "S", "target": "T"}),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}

	queues := NewLaneQueues()
	queues.For(models.KindBan).Enqueue(models.PendingAction{
		Kind: models.ActionSync, UserID: "u", SourceGuildID: "source", TargetGuildID: "target",
	})

	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())
	d.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-gw.entered:
	case <-time.After(time.Second):
		t.Fatal("drained action never started executing")
	}

	// Shutdown arrives while the action is mid-flight.
	cancel()
	close(gw.release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after the batch finished")
	}

	require.Len(t, gw.banCalls(), 1, "the drained action ran to completion")
	assert.False(t, gw.canceled, "shutdown must not cancel a mid-flight action")
}

func TestDispatcher_BatchFailuresAreContained(t *testing.T) {
	store := newFakeStore()
	store.setSettings(models.GuildSettings{GuildID: "target", BanSyncEnabled: true})
	store.fetchErr["broken"] = fmt.Errorf("settings store down")
	gw := newFakeGateway(map[string]string{"source": "S", "target": "T", "broken": "B"})

	queues := NewLaneQueues()
	queues.For(models.KindBan).Enqueue(models.PendingAction{
		Kind: models.ActionSync, UserID: "u1", SourceGuildID: "source", TargetGuildID: "broken",
	})
	queues.For(models.KindBan).Enqueue(models.PendingAction{
		Kind: models.ActionSync, UserID: "u2", SourceGuildID: "source", TargetGuildID: "target",
	})

	d := NewDispatcher(queues, NewExecutor(gw, store, testLogger()), testLogger())
	d.tick(context.Background(), models.KindBan)

	// The broken action is dropped, not requeued; its sibling still ran.
	bans := gw.banCalls()
	require.Len(t, bans, 1)
	assert.Equal(t, "u2", bans[0].UserID)
	assert.Equal(t, 0, queues.For(models.KindBan).Len())
}
