package repositories

import (
	"testing"

	"glasspro-backend/store"
)

func newTestSession(t *testing.T, tenantID string) (*store.Session, *store.Live) {
	t.Helper()
	live := store.NewLive(store.NewMemoryStore(), nil)
	t.Cleanup(func() { _ = live.Close() })
	return store.NewSession(tenantID, live), live
}

func ptr[T any](v T) *T { return &v }
