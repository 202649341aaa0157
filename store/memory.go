package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in-process. It is used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document // key: document path
	orders map[string][]string // collection path -> ids in insertion order
	now    func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]Document),
		orders: make(map[string][]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(ctx context.Context, tenantID, collection string, data map[string]any) (string, error) {
	if err := CheckScope(tenantID, collection); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.insertLocked(tenantID, collection, Document{
		ID:        id,
		Data:      cloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return id, nil
}

func (m *MemoryStore) CreateWithID(ctx context.Context, tenantID, collection, id string, data map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[Path(tenantID, collection, id)]; ok {
		return ErrAlreadyExists
	}
	now := m.now()
	m.insertLocked(tenantID, collection, Document{
		ID:        id,
		Data:      cloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, tenantID, collection, id string) (Document, error) {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[Path(tenantID, collection, id)]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) Update(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Path(tenantID, collection, id)
	doc, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}
	doc.Data = mergeFields(cloneData(doc.Data), partial)
	doc.UpdatedAt = m.now()
	m.docs[key] = doc
	return nil
}

func (m *MemoryStore) SetMerge(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	key := Path(tenantID, collection, id)
	doc, ok := m.docs[key]
	if !ok {
		m.insertLocked(tenantID, collection, Document{
			ID:        id,
			Data:      cloneData(partial),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	}
	doc.Data = mergeFields(cloneData(doc.Data), partial)
	doc.UpdatedAt = now
	m.docs[key] = doc
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, tenantID, collection, id string) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Path(tenantID, collection, id)
	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	delete(m.docs, key)
	colKey := Path(tenantID, collection)
	ids := m.orders[colKey]
	for i, existing := range ids {
		if existing == id {
			m.orders[colKey] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// List returns documents in insertion order.
func (m *MemoryStore) List(ctx context.Context, tenantID, collection string) ([]Document, error) {
	if err := CheckScope(tenantID, collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.orders[Path(tenantID, collection)]
	res := make([]Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.docs[Path(tenantID, collection, id)]; ok {
			res = append(res, cloneDocument(doc))
		}
	}
	return res, nil
}

func (m *MemoryStore) Tenants(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	for colKey, ids := range m.orders {
		if len(ids) == 0 {
			continue
		}
		// colKey is tenants/{tenant}/{collection}
		parts := strings.SplitN(colKey, "/", 3)
		if len(parts) == 3 {
			seen[parts[1]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) insertLocked(tenantID, collection string, doc Document) {
	key := Path(tenantID, collection, doc.ID)
	if _, exists := m.docs[key]; !exists {
		colKey := Path(tenantID, collection)
		m.orders[colKey] = append(m.orders[colKey], doc.ID)
	}
	m.docs[key] = doc
}
