package store

// Session binds one tenant to a store handle. Repositories take a Session
// instead of reading global state; a Session without a tenant id makes
// reads return nothing and rejects writes before they reach the store.
type Session struct {
	TenantID string
	Store    SyncedStore
}

func NewSession(tenantID string, st SyncedStore) *Session {
	return &Session{TenantID: tenantID, Store: st}
}

// Active reports whether the session can reach tenant data.
func (s *Session) Active() bool {
	return s != nil && s.TenantID != "" && s.Store != nil
}
