// Package storage provides the key-value substrate under the session
// persistence layer. It abstracts the browser-wide storage namespace of the
// original client as an injected Store interface; production and test
// implementations differ only in backing medium.
package storage

import "context"

// Store is a flat key-value namespace holding serialized JSON payloads.
// Implementations are stateless with respect to callers (they perform I/O on
// each call without caching) and must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, creating or overwriting as needed.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys present in the store, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// Event notifies a watcher that a key changed. Removed is true when the key
// was deleted rather than written.
type Event struct {
	Key     string
	Removed bool
}

// Watcher is the optional change-notification extension of Store. It models
// the cross-tab storage events of the original client: another process (or
// another handle on the same substrate) mutating a key is observable, so
// dependent in-memory state can be refreshed rather than trusted as stale.
//
// Watchers receive every change on the substrate, including ones made through
// the same handle; callers decide which keys they care about.
type Watcher interface {
	// Watch returns a channel of change events. The channel is closed when
	// ctx is cancelled. Slow receivers may miss events; the channel carries
	// notifications, not a replayable log.
	Watch(ctx context.Context) (<-chan Event, error)
}
