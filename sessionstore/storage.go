// Package sessionstore provides durable persistence backends for the
// authenticated session record. The client keeps exactly one session per
// process; backends store its JSON encoding under a fixed key.
package sessionstore

import "context"

// StorageKey is the fixed key under which the session record is persisted.
const StorageKey = "drivedocs_session"

// Storage persists a single opaque session record.
type Storage interface {
	// Load returns the persisted record, or (nil, nil) when none exists.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the persisted record.
	Save(ctx context.Context, data []byte) error

	// Clear removes the persisted record. Clearing an absent record is not
	// an error.
	Clear(ctx context.Context) error
}
