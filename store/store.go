package store

import (
	"context"
	"strings"
	"time"
)

// Collections and well-known documents.
const (
	CollectionCustomers = "customers"
	CollectionJobs      = "jobs"
	CollectionProfile   = "profile"
	CollectionAccounts  = "accounts"

	// ProfileDocumentID is the id of the single company profile document.
	ProfileDocumentID = "companyData"

	// SystemTenant is the reserved partition holding login accounts.
	SystemTenant = "_system"
)

var tenantCollections = map[string]bool{
	CollectionCustomers: true,
	CollectionJobs:      true,
	CollectionProfile:   true,
}

// Document is one record of a collection.
type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Snapshot is the full content of a collection at one point in time, in
// insertion order.
type Snapshot struct {
	TenantID   string     `json:"tenantId"`
	Collection string     `json:"collection"`
	Documents  []Document `json:"documents"`
	ReadAt     time.Time  `json:"readAt"`
}

// RecordStore is a tenant-partitioned document store. Every write is atomic
// for a single document only; concurrent writers are last-write-wins at
// top-level field granularity.
type RecordStore interface {
	// Create stores data under a new id and returns it.
	Create(ctx context.Context, tenantID, collection string, data map[string]any) (string, error)
	// CreateWithID stores data under id, or returns ErrAlreadyExists when a
	// document with that id exists. Exactly one of concurrent callers wins.
	CreateWithID(ctx context.Context, tenantID, collection, id string, data map[string]any) error
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, tenantID, collection, id string) (Document, error)
	// Update merges partial into an existing document.
	Update(ctx context.Context, tenantID, collection, id string, partial map[string]any) error
	// SetMerge creates the document with partial if absent, otherwise merges it.
	SetMerge(ctx context.Context, tenantID, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, tenantID, collection, id string) error
	List(ctx context.Context, tenantID, collection string) ([]Document, error)
	// Tenants lists the tenant ids that own at least one document.
	Tenants(ctx context.Context) ([]string, error)
}

// Subscriber opens live snapshot subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, tenantID, collection string) (*Subscription, error)
}

// SyncedStore is a RecordStore whose collections can be watched.
type SyncedStore interface {
	RecordStore
	Subscriber
}

// Path returns the namespaced location of a collection or a document, e.g.
// tenants/t1/jobs/42.
func Path(tenantID, collection string, id ...string) string {
	parts := append([]string{"tenants", tenantID, collection}, id...)
	return strings.Join(parts, "/")
}

// CheckScope validates that tenantID may address collection.
func CheckScope(tenantID, collection string) error {
	if tenantID == "" {
		return ErrNoTenant
	}
	if strings.ContainsAny(tenantID, "/*") {
		return ErrPermissionDenied
	}
	if tenantID == SystemTenant {
		if collection != CollectionAccounts {
			return ErrPermissionDenied
		}
		return nil
	}
	if collection == CollectionAccounts {
		return ErrPermissionDenied
	}
	if !tenantCollections[collection] {
		return ErrUnknownCollection
	}
	return nil
}

func checkDocument(tenantID, collection, id string) error {
	if err := CheckScope(tenantID, collection); err != nil {
		return err
	}
	if id == "" || strings.Contains(id, "/") {
		return ErrNotFound
	}
	return nil
}

// mergeFields copies the top-level keys of partial into dst. Nested values
// are replaced wholesale.
func mergeFields(dst, partial map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneData(item)
		}
		return out
	default:
		return v
	}
}

func cloneDocument(d Document) Document {
	d.Data = cloneData(d.Data)
	return d
}
