package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"

	"github.com/optnix/optnix"
)

// lockRetryDelay is how often a blocked flock attempt re-polls.
const lockRetryDelay = 50 * time.Millisecond

// sweepInterval is the number of Puts between opportunistic sweeps of
// expired on-disk entries. There is no background timer.
const sweepInterval = 16

// Filesystem is the persistent cache tier. Entries are addressed by a
// content hash of the key: <hash>.bin holds the value, <hash>.json a
// metadata sidecar carrying the original key, store time and TTL for
// diagnostics and recovery.
//
// Writes are atomic (write-to-temp-then-rename) so a crash mid-write never
// leaves a corrupt entry, and all access goes through per-entry file locks
// (shared for reads, exclusive for writes) so the directory may be shared
// by concurrent processes. An entry that cannot be read back, or whose
// sidecar names a different key (hash collision or tampering), is discarded
// and treated as a miss.
type Filesystem struct {
	dir  string
	now  func() time.Time
	puts atomic.Uint64
}

type metadata struct {
	Key        string    `json:"key"`
	StoredAt   time.Time `json:"storedAt"`
	TTLSeconds int64     `json:"ttlSeconds"`
}

func (md *metadata) ttl() time.Duration {
	return time.Duration(md.TTLSeconds) * time.Second
}

// FilesystemOption configures a Filesystem cache.
type FilesystemOption func(*Filesystem)

// WithFilesystemClock overrides the time source for expiry decisions.
func WithFilesystemClock(now func() time.Time) FilesystemOption {
	return func(f *Filesystem) {
		f.now = now
	}
}

// NewFilesystem creates the persistent tier rooted at dir, creating the
// directory if needed.
func NewFilesystem(dir string, opts ...FilesystemOption) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	f := &Filesystem{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Dir returns the cache root directory.
func (f *Filesystem) Dir() string {
	return f.dir
}

// Get returns the cached value and true on a fresh hit. Corrupt or expired
// entries are misses; corrupt ones are removed.
func (f *Filesystem) Get(ctx context.Context, key string) ([]byte, bool) {
	value, md, ok := f.read(ctx, key)
	if !ok {
		return nil, false
	}
	if f.expired(md) {
		return nil, false
	}
	return value, true
}

// GetStale returns the value even when its TTL has lapsed.
func (f *Filesystem) GetStale(ctx context.Context, key string) ([]byte, bool) {
	value, _, ok := f.read(ctx, key)
	return value, ok
}

func (f *Filesystem) read(ctx context.Context, key string) ([]byte, *metadata, bool) {
	hash := hashKey(key)
	lock := flock.New(f.path(hash, ".lock"))
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, nil, false
	}
	defer func() { _ = lock.Unlock() }()

	md, err := f.readMetadata(hash)
	if err != nil || md.Key != key {
		// ECORRUPT by taxonomy: unreadable or mismatched entry.
		// Degraded to a miss; the files are discarded and rebuilt on
		// the next Put.
		f.discard(hash)
		return nil, nil, false
	}

	value, err := os.ReadFile(f.path(hash, ".bin"))
	if err != nil {
		f.discard(hash)
		return nil, nil, false
	}
	return value, md, true
}

// Put stores value under key for ttl. Both the value file and the metadata
// sidecar are written to temp files and renamed into place.
func (f *Filesystem) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	hash := hashKey(key)
	lock := flock.New(f.path(hash, ".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock cache entry: %w", err)
	}
	if !locked {
		return optnix.Errorf(optnix.EINTERNAL, "cache entry %q is locked", key)
	}
	defer func() { _ = lock.Unlock() }()

	md := metadata{
		Key:        key,
		StoredAt:   f.now(),
		TTLSeconds: int64(ttl / time.Second),
	}
	raw, err := json.Marshal(&md)
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}

	if err := f.writeAtomic(f.path(hash, ".bin"), value); err != nil {
		return err
	}
	if err := f.writeAtomic(f.path(hash, ".json"), raw); err != nil {
		return err
	}

	f.maybeSweep()
	return nil
}

// Invalidate removes a single entry.
func (f *Filesystem) Invalidate(ctx context.Context, key string) error {
	hash := hashKey(key)
	lock := flock.New(f.path(hash, ".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock cache entry: %w", err)
	}
	if locked {
		defer func() { _ = lock.Unlock() }()
	}
	f.discard(hash)
	return nil
}

// Clear removes every entry, sidecar and lock file under the cache root.
func (f *Filesystem) Clear(context.Context) error {
	names, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, de := range names {
		switch filepath.Ext(de.Name()) {
		case ".bin", ".json", ".lock", ".tmp":
			_ = os.Remove(filepath.Join(f.dir, de.Name()))
		}
	}
	return nil
}

// maybeSweep removes expired entries every sweepInterval-th Put. Sweeping
// piggybacks on writes rather than running on its own timer.
func (f *Filesystem) maybeSweep() {
	if f.puts.Add(1)%sweepInterval != 0 {
		return
	}
	f.Sweep()
}

// Sweep removes every entry whose TTL has lapsed. Safe to call at any time.
func (f *Filesystem) Sweep() {
	names, err := os.ReadDir(f.dir)
	if err != nil {
		return
	}
	for _, de := range names {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		hash := strings.TrimSuffix(de.Name(), ".json")
		md, err := f.readMetadata(hash)
		if err != nil {
			f.discard(hash)
			continue
		}
		if f.expired(md) {
			f.discard(hash)
		}
	}
}

func (f *Filesystem) readMetadata(hash string) (*metadata, error) {
	raw, err := os.ReadFile(f.path(hash, ".json"))
	if err != nil {
		return nil, err
	}
	var md metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

func (f *Filesystem) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (f *Filesystem) discard(hash string) {
	_ = os.Remove(f.path(hash, ".bin"))
	_ = os.Remove(f.path(hash, ".json"))
}

func (f *Filesystem) expired(md *metadata) bool {
	now := f.now()
	if md.StoredAt.After(now) {
		return true
	}
	return now.Sub(md.StoredAt) >= md.ttl()
}

func (f *Filesystem) path(hash, ext string) string {
	return filepath.Join(f.dir, hash+ext)
}

func hashKey(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}
