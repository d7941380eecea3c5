package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvCacheDir overrides the cache root directory when set.
const EnvCacheDir = "OPTNIX_CACHE_DIR"

// DefaultDir resolves the cache root: $OPTNIX_CACHE_DIR when set, otherwise
// the per-platform user cache directory plus "optnix".
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "optnix"), nil
}
