package optnix

import (
	"context"
	"time"
)

// Cache TTL defaults. Documentation payloads change rarely; remote query
// results change often.
const (
	LongTTL  = 24 * time.Hour
	ShortTTL = 5 * time.Minute
)

// Cache stores opaque byte payloads under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use; a Get after a Put in the
// same process always observes the written value while the TTL holds.
type Cache interface {
	// Get returns the cached value and true on a fresh hit.
	Get(ctx context.Context, key string) ([]byte, bool)

	// GetStale returns the value of an entry even if its TTL has lapsed,
	// with true when anything (fresh or expired) is present. Used to
	// serve degraded data when the network is down.
	GetStale(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key for ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes a single entry.
	Invalidate(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
