package source

import (
	"context"
	"errors"
)

// Precache drives every context to Ready (or Degraded) synchronously. It is
// the warm-start entry point used at build/packaging time so the first real
// startup needs no network. Degraded loads count as success — the point is
// having data on disk, not having fresh data.
func Precache(ctx context.Context, contexts []*Context) error {
	var errs []error
	for _, c := range contexts {
		if err := c.Load(ctx); err != nil && !IsDegraded(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
