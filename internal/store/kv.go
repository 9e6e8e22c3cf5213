// Package store persists document records through a pluggable key-value
// backend, keyed per document with a lightweight listing index.
package store

import "context"

// KV is the durable key-value collaborator. Implementations must make a
// Set of a single key atomic: readers see either the old or the new value,
// never a partial one.
type KV interface {
	// Get returns the value for key; found is false when key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes all keys.
	Clear(ctx context.Context) error
}
