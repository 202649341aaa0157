package store

import (
	"context"
	"sync"
)

// Change operations carried by a ChangeEvent.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeEvent announces that a collection changed. Subscribers re-read the
// collection on receipt, so events carry no payload.
type ChangeEvent struct {
	TenantID   string `json:"tenantId"`
	Collection string `json:"collection"`
	DocumentID string `json:"documentId"`
	Op         string `json:"op"`
}

// Notifier fans change events out to listeners of a tenant collection.
type Notifier interface {
	Publish(ctx context.Context, event ChangeEvent) error
	// Listen returns a channel of events for one tenant collection and a
	// function that stops listening. The channel is closed after stop.
	Listen(ctx context.Context, tenantID, collection string) (<-chan ChangeEvent, func(), error)
	Close() error
}

// LocalNotifier delivers events to listeners in the same process.
type LocalNotifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]chan ChangeEvent
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[int]chan ChangeEvent)}
}

// Publish never blocks. A listener that already has an event pending will
// re-read the collection anyway, so a second event is dropped.
func (n *LocalNotifier) Publish(_ context.Context, event ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.listeners[Path(event.TenantID, event.Collection)] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(_ context.Context, tenantID, collection string) (<-chan ChangeEvent, func(), error) {
	key := Path(tenantID, collection)
	ch := make(chan ChangeEvent, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	if n.listeners[key] == nil {
		n.listeners[key] = make(map[int]chan ChangeEvent)
	}
	n.listeners[key][id] = ch
	n.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.listeners[key], id)
			if len(n.listeners[key]) == 0 {
				delete(n.listeners, key)
			}
			close(ch)
		})
	}
	return ch, stop, nil
}

// Listeners reports how many listeners are registered for a collection.
func (n *LocalNotifier) Listeners(tenantID, collection string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[Path(tenantID, collection)])
}

func (n *LocalNotifier) Close() error { return nil }
