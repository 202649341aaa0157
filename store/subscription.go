package store

import (
	"context"
	"sync"
)

// Subscription is a live view of one tenant collection. It delivers the full
// snapshot right after Subscribe and again after every change until Close is
// called or the context passed to Subscribe is cancelled.
//
// Delivery keeps only the newest pending value: a slow reader skips
// intermediate snapshots but never receives one older than the last write it
// made itself.
type Subscription struct {
	tenantID   string
	collection string

	snapshots chan Snapshot
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.RWMutex
	latest    Snapshot
	hasLatest bool
}

func newSubscription(tenantID, collection string, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		tenantID:   tenantID,
		collection: collection,
		snapshots:  make(chan Snapshot, 1),
		errs:       make(chan error, 1),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Snapshots is closed when the subscription ends.
func (s *Subscription) Snapshots() <-chan Snapshot { return s.snapshots }

// Errors carries read failures. They are not fatal; the subscription keeps
// running and Latest still returns the last good snapshot.
func (s *Subscription) Errors() <-chan error { return s.errs }

// Done is closed once the subscription has released its resources.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Latest returns the most recent successfully read snapshot.
func (s *Subscription) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// Close stops the subscription and waits for it to shut down. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.hasLatest = true
	s.mu.Unlock()
	offerLatest(s.snapshots, snap)
	SnapshotsDelivered.WithLabelValues(s.collection).Inc()
}

func (s *Subscription) fail(err error) {
	offerLatest(s.errs, err)
}

func (s *Subscription) finish() {
	close(s.snapshots)
	close(s.errs)
	close(s.done)
}

// offerLatest puts v into a one-slot channel, replacing any unread value.
// It relies on being the only sender.
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
