package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnix/optnix/cache"
)

func newFilesystem(t *testing.T, clock *fakeClock) *cache.Filesystem {
	t.Helper()
	fs, err := cache.NewFilesystem(t.TempDir(), cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)
	return fs
}

func TestFilesystem_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	fs := newFilesystem(t, clock)

	require.NoError(t, fs.Put(ctx, "https://example.com/options.xhtml", []byte("<html/>"), time.Hour))

	got, ok := fs.Get(ctx, "https://example.com/options.xhtml")
	require.True(t, ok)
	assert.Equal(t, []byte("<html/>"), got)
}

func TestFilesystem_SurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	clock := newFakeClock()

	fs1, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, fs1.Put(ctx, "k", []byte("persisted"), time.Hour))

	// A second instance over the same directory sees the entry, as a
	// fresh process would after restart.
	fs2, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)

	got, ok := fs2.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}

func TestFilesystem_TTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	fs := newFilesystem(t, clock)

	require.NoError(t, fs.Put(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(2 * time.Minute)
	_, ok := fs.Get(ctx, "k")
	assert.False(t, ok)

	// The expired bytes remain reachable for degraded serving.
	got, ok := fs.GetStale(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestFilesystem_ClockRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	fs := newFilesystem(t, clock)

	require.NoError(t, fs.Put(ctx, "k", []byte("v"), time.Hour))

	clock.Rewind(48 * time.Hour)
	_, ok := fs.Get(ctx, "k")
	assert.False(t, ok, "a store time in the future must read as expired")
}

func TestFilesystem_CorruptMetadataIsAMiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	dir := t.TempDir()
	fs, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "k", []byte("v"), time.Hour))

	// Truncate every metadata sidecar.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, de := range entries {
		if filepath.Ext(de.Name()) == ".json" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, de.Name()), []byte("{not json"), 0o644))
		}
	}

	_, ok := fs.Get(ctx, "k")
	assert.False(t, ok)

	// The corrupt entry was discarded; a rebuild works.
	require.NoError(t, fs.Put(ctx, "k", []byte("v2"), time.Hour))
	got, ok := fs.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestFilesystem_KeyMismatchIsAMiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	dir := t.TempDir()
	fs, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "k", []byte("v"), time.Hour))

	// Rewrite sidecars to claim a different key.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, de := range entries {
		if filepath.Ext(de.Name()) == ".json" {
			raw := `{"key":"other","storedAt":"2025-06-01T12:00:00Z","ttlSeconds":3600}`
			require.NoError(t, os.WriteFile(filepath.Join(dir, de.Name()), []byte(raw), 0o644))
		}
	}

	_, ok := fs.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFilesystem_Sweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	dir := t.TempDir()
	fs, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "old", []byte("v"), time.Minute))
	clock.Advance(time.Hour)
	require.NoError(t, fs.Put(ctx, "new", []byte("v"), time.Hour))

	fs.Sweep()

	_, ok := fs.GetStale(ctx, "old")
	assert.False(t, ok, "sweep should remove expired entries entirely")
	_, ok = fs.Get(ctx, "new")
	assert.True(t, ok)
}

func TestFilesystem_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	dir := t.TempDir()
	fs, err := cache.NewFilesystem(dir, cache.WithFilesystemClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, fs.Put(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, fs.Clear(ctx))

	_, ok := fs.GetStale(ctx, "a")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTwoTier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	mem := cache.NewMemory(cache.WithClock(clock.Now))
	fs := newFilesystem(t, clock)
	c := cache.NewTwoTier(mem, fs)

	t.Run("read after write hits without touching disk state", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "k", []byte("v"), time.Hour))
		got, ok := c.Get(ctx, "k")
		require.True(t, ok)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("filesystem hit is promoted into memory", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "promote", []byte("v"), time.Hour))
		require.NoError(t, mem.Clear(ctx))

		_, ok := c.Get(ctx, "promote")
		require.True(t, ok)

		// Now present in the memory tier.
		_, ok = mem.Get(ctx, "promote")
		assert.True(t, ok)
	})

	t.Run("invalidate removes from both tiers", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "gone", []byte("v"), time.Hour))
		require.NoError(t, c.Invalidate(ctx, "gone"))

		_, ok := c.Get(ctx, "gone")
		assert.False(t, ok)
		_, ok = fs.GetStale(ctx, "gone")
		assert.False(t, ok)
	})
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(cache.EnvCacheDir, "/tmp/optnix-test-cache")

	dir, err := cache.DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/optnix-test-cache", dir)
}
