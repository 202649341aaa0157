package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func nextSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func docIDs(snap Snapshot) []string {
	ids := make([]string, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	live := NewLive(NewMemoryStore(), nil)
	id, err := live.Create(ctx, "t1", CollectionCustomers, map[string]any{"name": "Ada"})
	require.NoError(t, err)

	sub, err := live.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	assert.Equal(t, "t1", snap.TenantID)
	assert.Equal(t, CollectionCustomers, snap.Collection)
	assert.Equal(t, []string{id}, docIDs(snap))
}

func TestSubscriptionSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	live := NewLive(NewMemoryStore(), nil)

	sub, err := live.Subscribe(ctx, "t1", CollectionJobs)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnapshot(t, sub).Documents)

	id, err := live.Create(ctx, "t1", CollectionJobs, map[string]any{"notes": "chip"})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, docIDs(nextSnapshot(t, sub)))

	require.NoError(t, live.Update(ctx, "t1", CollectionJobs, id, map[string]any{"notes": "crack"}))
	snap := nextSnapshot(t, sub)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "crack", snap.Documents[0].Data["notes"])

	require.NoError(t, live.Delete(ctx, "t1", CollectionJobs, id))
	assert.Empty(t, nextSnapshot(t, sub).Documents)
}

func TestSubscriptionIgnoresOtherTenants(t *testing.T) {
	ctx := context.Background()
	live := NewLive(NewMemoryStore(), nil)

	sub, err := live.Subscribe(ctx, "t2", CollectionJobs)
	require.NoError(t, err)
	defer sub.Close()
	nextSnapshot(t, sub)

	_, err = live.Create(ctx, "t1", CollectionJobs, map[string]any{"notes": "not yours"})
	require.NoError(t, err)
	mine, err := live.Create(ctx, "t2", CollectionJobs, map[string]any{"notes": "yours"})
	require.NoError(t, err)

	assert.Equal(t, []string{mine}, docIDs(nextSnapshot(t, sub)))
}

func TestSubscriptionCoalescesToNewest(t *testing.T) {
	ctx := context.Background()
	live := NewLive(NewMemoryStore(), nil)

	sub, err := live.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	defer sub.Close()
	nextSnapshot(t, sub)

	var last string
	for i := 0; i < 10; i++ {
		last, err = live.Create(ctx, "t1", CollectionCustomers, map[string]any{"n": i})
		require.NoError(t, err)
	}

	deadline := time.After(waitFor)
	for {
		select {
		case snap := <-sub.Snapshots():
			ids := docIDs(snap)
			if len(ids) == 10 {
				assert.Equal(t, last, ids[9])
				return
			}
		case <-deadline:
			t.Fatal("never saw the newest snapshot")
		}
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	ctx := context.Background()
	notifier := NewLocalNotifier()
	live := NewLive(NewMemoryStore(), notifier)

	sub, err := live.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	nextSnapshot(t, sub)
	assert.Equal(t, 1, notifier.Listeners("t1", CollectionCustomers))

	sub.Close()
	sub.Close()

	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
	assert.Equal(t, 0, notifier.Listeners("t1", CollectionCustomers))
}

func TestCancelledContextEndsSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	live := NewLive(NewMemoryStore(), nil)

	sub, err := live.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription did not stop after cancel")
	}
}

func TestSubscribeRequiresTenant(t *testing.T) {
	live := NewLive(NewMemoryStore(), nil)
	_, err := live.Subscribe(context.Background(), "", CollectionJobs)
	assert.ErrorIs(t, err, ErrNoTenant)
}

// flakyStore fails List once armed.
type flakyStore struct {
	RecordStore
	fail atomic.Bool
}

func (f *flakyStore) List(ctx context.Context, tenantID, collection string) ([]Document, error) {
	if f.fail.Load() {
		return nil, ErrStoreUnavailable
	}
	return f.RecordStore.List(ctx, tenantID, collection)
}

func TestReadFailureKeepsLastSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{RecordStore: NewMemoryStore()}
	live := NewLive(backend, nil)

	id, err := live.Create(ctx, "t1", CollectionCustomers, map[string]any{"name": "Ada"})
	require.NoError(t, err)

	sub, err := live.Subscribe(ctx, "t1", CollectionCustomers)
	require.NoError(t, err)
	defer sub.Close()
	nextSnapshot(t, sub)

	backend.fail.Store(true)
	_, err = live.Create(ctx, "t1", CollectionCustomers, map[string]any{"name": "Bob"})
	require.NoError(t, err)

	select {
	case err := <-sub.Errors():
		assert.True(t, errors.Is(err, ErrStoreUnavailable))
	case <-time.After(waitFor):
		t.Fatal("expected a read error")
	}

	latest, ok := sub.Latest()
	require.True(t, ok)
	assert.Equal(t, []string{id}, docIDs(latest))

	backend.fail.Store(false)
	require.NoError(t, live.Update(ctx, "t1", CollectionCustomers, id, map[string]any{"name": "Ada L."}))
	assert.Len(t, nextSnapshot(t, sub).Documents, 2)
}
