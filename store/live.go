package store

import (
	"context"
	"sync/atomic"
	"time"

	"glasspro-backend/utils"
)

// Re-read attempts when a local write lands while a snapshot is being read.
const maxStaleRereads = 3

// Live wraps a RecordStore so that every successful write is announced
// through a Notifier and collections can be subscribed to.
type Live struct {
	backend  RecordStore
	notifier Notifier
	writes   atomic.Uint64
	now      func() time.Time
}

func NewLive(backend RecordStore, notifier Notifier) *Live {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &Live{
		backend:  backend,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Live) Create(ctx context.Context, tenantID, collection string, data map[string]any) (string, error) {
	id, err := l.backend.Create(ctx, tenantID, collection, data)
	observe("create", collection, err)
	if err != nil {
		return "", err
	}
	l.announce(ctx, ChangeEvent{TenantID: tenantID, Collection: collection, DocumentID: id, Op: OpCreate})
	return id, nil
}

func (l *Live) CreateWithID(ctx context.Context, tenantID, collection, id string, data map[string]any) error {
	err := l.backend.CreateWithID(ctx, tenantID, collection, id, data)
	observe("create", collection, err)
	if err != nil {
		return err
	}
	l.announce(ctx, ChangeEvent{TenantID: tenantID, Collection: collection, DocumentID: id, Op: OpCreate})
	return nil
}

func (l *Live) Get(ctx context.Context, tenantID, collection, id string) (Document, error) {
	doc, err := l.backend.Get(ctx, tenantID, collection, id)
	observe("get", collection, err)
	return doc, err
}

func (l *Live) Update(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	err := l.backend.Update(ctx, tenantID, collection, id, partial)
	observe("update", collection, err)
	if err != nil {
		return err
	}
	l.announce(ctx, ChangeEvent{TenantID: tenantID, Collection: collection, DocumentID: id, Op: OpUpdate})
	return nil
}

func (l *Live) SetMerge(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	err := l.backend.SetMerge(ctx, tenantID, collection, id, partial)
	observe("set_merge", collection, err)
	if err != nil {
		return err
	}
	l.announce(ctx, ChangeEvent{TenantID: tenantID, Collection: collection, DocumentID: id, Op: OpUpdate})
	return nil
}

func (l *Live) Delete(ctx context.Context, tenantID, collection, id string) error {
	err := l.backend.Delete(ctx, tenantID, collection, id)
	observe("delete", collection, err)
	if err != nil {
		return err
	}
	l.announce(ctx, ChangeEvent{TenantID: tenantID, Collection: collection, DocumentID: id, Op: OpDelete})
	return nil
}

func (l *Live) List(ctx context.Context, tenantID, collection string) ([]Document, error) {
	docs, err := l.backend.List(ctx, tenantID, collection)
	observe("list", collection, err)
	return docs, err
}

func (l *Live) Tenants(ctx context.Context) ([]string, error) {
	return l.backend.Tenants(ctx)
}

// Subscribe starts listening before the first read so that no change made
// between the two is lost.
func (l *Live) Subscribe(ctx context.Context, tenantID, collection string) (*Subscription, error) {
	if err := CheckScope(tenantID, collection); err != nil {
		observe("subscribe", collection, err)
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	events, stop, err := l.notifier.Listen(subCtx, tenantID, collection)
	observe("subscribe", collection, err)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := newSubscription(tenantID, collection, cancel)
	ActiveSubscriptions.Inc()
	go l.pump(subCtx, sub, events, stop)
	return sub, nil
}

// Close releases the notifier.
func (l *Live) Close() error {
	return l.notifier.Close()
}

func (l *Live) announce(ctx context.Context, event ChangeEvent) {
	l.writes.Add(1)
	// The write already succeeded; a lost event only delays other subscribers.
	if err := l.notifier.Publish(context.WithoutCancel(ctx), event); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to publish %s change for %s", event.Op, Path(event.TenantID, event.Collection))
	}
}

func (l *Live) pump(ctx context.Context, sub *Subscription, events <-chan ChangeEvent, stop func()) {
	defer func() {
		stop()
		ActiveSubscriptions.Dec()
		sub.finish()
	}()

	l.refresh(ctx, sub)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					sub.fail(ErrSubscriptionEnded)
				}
				return
			}
			l.refresh(ctx, sub)
		}
	}
}

// refresh reads the collection and delivers it. If a write through this Live
// completed during the read, the read is repeated so the writer's next
// snapshot contains its own change.
func (l *Live) refresh(ctx context.Context, sub *Subscription) {
	for attempt := 0; ; attempt++ {
		seen := l.writes.Load()
		docs, err := l.backend.List(ctx, sub.tenantID, sub.collection)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			utils.Logger.WithError(err).Warnf("Snapshot read failed for %s", Path(sub.tenantID, sub.collection))
			sub.fail(err)
			return
		}
		if l.writes.Load() != seen && attempt < maxStaleRereads {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		sub.deliver(Snapshot{
			TenantID:   sub.tenantID,
			Collection: sub.collection,
			Documents:  docs,
			ReadAt:     l.now(),
		})
		return
	}
}
