package mock

import (
	"context"
	"time"

	"github.com/optnix/optnix"
)

var _ optnix.Cache = (*Cache)(nil)

// Cache is a mock implementation of optnix.Cache.
type Cache struct {
	GetFn        func(ctx context.Context, key string) ([]byte, bool)
	GetStaleFn   func(ctx context.Context, key string) ([]byte, bool)
	PutFn        func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateFn func(ctx context.Context, key string) error
	ClearFn      func(ctx context.Context) error
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	return c.GetFn(ctx, key)
}

func (c *Cache) GetStale(ctx context.Context, key string) ([]byte, bool) {
	return c.GetStaleFn(ctx, key)
}

func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.PutFn(ctx, key, value, ttl)
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.InvalidateFn(ctx, key)
}

func (c *Cache) Clear(ctx context.Context) error {
	return c.ClearFn(ctx)
}
