package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisNotifier(t *testing.T, addr string) *RedisNotifier {
	t.Helper()
	n, err := NewRedisNotifier(RedisNotifierConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestRedisNotifierRequiresAddr(t *testing.T) {
	_, err := NewRedisNotifier(RedisNotifierConfig{Addr: "  "})
	assert.Error(t, err)
}

func TestRedisNotifierDeliversToListener(t *testing.T) {
	mr := miniredis.RunT(t)
	n := newTestRedisNotifier(t, mr.Addr())
	ctx := context.Background()
	require.NoError(t, n.Ping(ctx))

	events, stop, err := n.Listen(ctx, "t1", CollectionJobs)
	require.NoError(t, err)
	defer stop()

	want := ChangeEvent{TenantID: "t1", Collection: CollectionJobs, DocumentID: "j1", Op: OpCreate}
	require.NoError(t, n.Publish(ctx, want))

	select {
	case got := <-events:
		assert.Equal(t, want, got)
	case <-time.After(waitFor):
		t.Fatal("no event received")
	}
}

func TestRedisNotifierScopesChannelsByTenant(t *testing.T) {
	mr := miniredis.RunT(t)
	n := newTestRedisNotifier(t, mr.Addr())
	ctx := context.Background()

	events, stop, err := n.Listen(ctx, "t2", CollectionJobs)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, n.Publish(ctx, ChangeEvent{TenantID: "t1", Collection: CollectionJobs, Op: OpCreate}))
	require.NoError(t, n.Publish(ctx, ChangeEvent{TenantID: "t2", Collection: CollectionJobs, DocumentID: "mine", Op: OpCreate}))

	select {
	case got := <-events:
		assert.Equal(t, "mine", got.DocumentID)
	case <-time.After(waitFor):
		t.Fatal("no event received")
	}
}

func TestRedisNotifierStopClosesChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	n := newTestRedisNotifier(t, mr.Addr())

	events, stop, err := n.Listen(context.Background(), "t1", CollectionCustomers)
	require.NoError(t, err)
	stop()
	stop()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(waitFor):
		t.Fatal("channel not closed after stop")
	}
}

// Two API instances share one database but have their own notifier
// connections; a write through one reaches subscribers of the other.
func TestLiveAcrossInstancesWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	backend := NewMemoryStore()

	writer := NewLive(backend, newTestRedisNotifier(t, mr.Addr()))
	reader := NewLive(backend, newTestRedisNotifier(t, mr.Addr()))

	sub, err := reader.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnapshot(t, sub).Documents)

	id, err := writer.Create(ctx, "t1", CollectionCustomers, map[string]any{"name": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, []string{id}, docIDs(nextSnapshot(t, sub)))
}
