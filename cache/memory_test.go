package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnix/optnix/cache"
)

// fakeClock is a mutable time source for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Rewind(d time.Duration) {
	c.Advance(-d)
}

func TestMemory_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	m := cache.NewMemory(cache.WithClock(clock.Now))

	require.NoError(t, m.Put(ctx, "k", []byte("v"), time.Minute))

	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	m := cache.NewMemory(cache.WithClock(clock.Now))

	require.NoError(t, m.Put(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(59 * time.Second)
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok, "entry should be fresh before the TTL")

	clock.Advance(2 * time.Second)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok, "entry should expire after the TTL")

	// Expired entries were removed lazily on access.
	assert.Zero(t, m.Len())
}

func TestMemory_GetStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	m := cache.NewMemory(cache.WithClock(clock.Now))

	require.NoError(t, m.Put(ctx, "k", []byte("v"), time.Minute))
	clock.Advance(time.Hour)

	got, ok := m.GetStale(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_ClockRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	m := cache.NewMemory(cache.WithClock(clock.Now))

	require.NoError(t, m.Put(ctx, "k", []byte("v"), time.Minute))

	// The system clock jumps back past the store time. The entry's age
	// is unknowable, so it must expire rather than live forever.
	clock.Rewind(time.Hour)
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_LRUEviction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := cache.NewMemory(cache.WithMaxEntries(3))

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}

	// Touch k0 so k1 becomes least recently used.
	_, ok := m.Get(ctx, "k0")
	require.True(t, ok)

	require.NoError(t, m.Put(ctx, "k3", []byte("v"), time.Minute))

	_, ok = m.Get(ctx, "k1")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = m.Get(ctx, "k0")
	assert.True(t, ok)
	assert.Equal(t, 3, m.Len())
}

func TestMemory_InvalidateAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := cache.NewMemory()

	require.NoError(t, m.Put(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Put(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, m.Invalidate(ctx, "a"))
	_, ok := m.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Clear(ctx))
	_, ok = m.Get(ctx, "b")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := cache.NewMemory(cache.WithMaxEntries(16))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%20)
				_ = m.Put(ctx, key, []byte("v"), time.Minute)
				_, _ = m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.Len(), 16)
}
