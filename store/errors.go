package store

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrStoreUnavailable  = errors.New("record store unavailable")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNoTenant          = errors.New("no tenant selected")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrSubscriptionEnded = errors.New("subscription closed")
)
