// Package slog provides logging decorators for the document fetcher and
// the source contexts.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/optnix/optnix"
)

// Ensure Fetcher implements optnix.Fetcher.
var _ optnix.Fetcher = (*Fetcher)(nil)

// Fetcher wraps a Fetcher with request logging.
type Fetcher struct {
	next   optnix.Fetcher
	logger *slog.Logger
}

// NewFetcher creates a new logging Fetcher.
func NewFetcher(next optnix.Fetcher, logger *slog.Logger) *Fetcher {
	return &Fetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*optnix.FetchResult, error) {
	begin := time.Now()
	res, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.Error("fetch failed",
			"url", url,
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	f.logger.Info("fetch",
		"url", url,
		"bytes", len(res.Body),
		"cached", res.FromCache,
		"stale", res.Stale,
		"duration", time.Since(begin),
	)
	return res, nil
}
