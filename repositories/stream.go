package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"glasspro-backend/store"
	"glasspro-backend/utils"
)

// Stream is a typed view over a store subscription. The subscription is
// opened on the first call to Next and reopened on the next call after
// Close, so a stream can be stopped and restarted by whoever owns it.
type Stream[T any] struct {
	ctx    context.Context
	open   func(ctx context.Context) (*store.Subscription, error)
	decode func(store.Snapshot) []T

	mu     sync.Mutex
	sub    *store.Subscription
	latest []T
}

func newStream[T any](ctx context.Context, open func(context.Context) (*store.Subscription, error), decode func(store.Snapshot) []T) *Stream[T] {
	return &Stream[T]{ctx: ctx, open: open, decode: decode}
}

// Next blocks until the next snapshot. A non-nil error with an open stream
// is a transient read failure; Latest still holds the last good value.
func (s *Stream[T]) Next(ctx context.Context) ([]T, error) {
	sub, err := s.current()
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case snap, ok := <-sub.Snapshots():
		if !ok {
			s.drop(sub)
			return nil, store.ErrSubscriptionEnded
		}
		items := s.decode(snap)
		s.mu.Lock()
		s.latest = items
		s.mu.Unlock()
		return items, nil
	case err, ok := <-sub.Errors():
		if !ok {
			s.drop(sub)
			return nil, store.ErrSubscriptionEnded
		}
		return nil, err
	}
}

// Latest returns the most recent value returned by Next.
func (s *Stream[T]) Latest() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Close releases the underlying subscription.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (s *Stream[T]) current() (*store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return s.sub, nil
	}
	sub, err := s.open(s.ctx)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return sub, nil
}

func (s *Stream[T]) drop(sub *store.Subscription) {
	s.mu.Lock()
	if s.sub == sub {
		s.sub = nil
	}
	s.mu.Unlock()
}

// decodeAll decodes every document of a snapshot, skipping (and logging)
// documents that do not fit the entity shape.
func decodeAll[T any](snap store.Snapshot, decode func(store.Document) (T, error)) []T {
	out := make([]T, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		item, err := decode(doc)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Skipping malformed document %s", store.Path(snap.TenantID, snap.Collection, doc.ID))
			continue
		}
		out = append(out, item)
	}
	return out
}

// decodeData copies document data into a record struct through JSON, which
// also turns stored timestamps into RFC 3339 strings.
func decodeData(data map[string]any, into any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
