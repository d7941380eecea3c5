package cache

import (
	"context"
	"time"

	"github.com/optnix/optnix"
)

// Compile-time interface checks for all cache tiers.
var (
	_ optnix.Cache = (*Memory)(nil)
	_ optnix.Cache = (*Filesystem)(nil)
	_ optnix.Cache = (*TwoTier)(nil)
)

// TwoTier fronts the filesystem tier with the memory tier. Reads promote
// filesystem hits into memory; writes go to both, so a read after a write
// within the same process always hits without touching disk.
type TwoTier struct {
	mem *Memory
	fs  *Filesystem
}

// NewTwoTier combines a memory tier and a filesystem tier.
func NewTwoTier(mem *Memory, fs *Filesystem) *TwoTier {
	return &TwoTier{mem: mem, fs: fs}
}

// Get consults memory first, then the filesystem. A filesystem hit is
// promoted into memory with its remaining TTL unknown, so it is stored with
// a conservative short TTL and will re-check disk once that lapses.
func (c *TwoTier) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := c.mem.Get(ctx, key); ok {
		return value, true
	}
	value, ok := c.fs.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = c.mem.Put(ctx, key, value, optnix.ShortTTL)
	return value, true
}

// GetStale returns any present value, fresh or expired, memory first.
func (c *TwoTier) GetStale(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := c.mem.GetStale(ctx, key); ok {
		return value, true
	}
	return c.fs.GetStale(ctx, key)
}

// Put writes to both tiers. The filesystem write happens first so a crash
// between the two never leaves memory claiming data the disk lost.
func (c *TwoTier) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.fs.Put(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.mem.Put(ctx, key, value, ttl)
}

// Invalidate removes the entry from both tiers.
func (c *TwoTier) Invalidate(ctx context.Context, key string) error {
	if err := c.mem.Invalidate(ctx, key); err != nil {
		return err
	}
	return c.fs.Invalidate(ctx, key)
}

// Clear empties both tiers.
func (c *TwoTier) Clear(ctx context.Context) error {
	if err := c.mem.Clear(ctx); err != nil {
		return err
	}
	return c.fs.Clear(ctx)
}
