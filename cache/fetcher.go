package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/optnix/optnix"
)

// Ensure Fetcher implements optnix.Fetcher at compile time.
var _ optnix.Fetcher = (*Fetcher)(nil)

// Fetcher decorates a network fetcher with the cache-first policy:
// fresh cache hits are served directly; misses go to the network and the
// result is stored; a network failure with an expired entry on disk serves
// the stale bytes rather than failing outright. Concurrent misses for the
// same URL are coalesced so only one network fetch happens.
type Fetcher struct {
	next  optnix.Fetcher
	cache optnix.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewFetcher wraps next with cache. Fetched payloads are stored for ttl;
// a non-positive ttl falls back to the documentation default (LongTTL).
func NewFetcher(next optnix.Fetcher, cache optnix.Cache, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = optnix.LongTTL
	}
	return &Fetcher{next: next, cache: cache, ttl: ttl}
}

// Fetch returns the payload for the URL, preferring the cache.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*optnix.FetchResult, error) {
	if body, ok := f.cache.Get(ctx, url); ok {
		return &optnix.FetchResult{Body: body, FromCache: true}, nil
	}

	v, err, _ := f.group.Do(url, func() (interface{}, error) {
		// Re-check: a coalesced waiter may arrive after the winner
		// already populated the cache.
		if body, ok := f.cache.Get(ctx, url); ok {
			return &optnix.FetchResult{Body: body, FromCache: true}, nil
		}

		res, err := f.next.Fetch(ctx, url)
		if err != nil {
			if body, ok := f.cache.GetStale(ctx, url); ok {
				return &optnix.FetchResult{Body: body, FromCache: true, Stale: true}, nil
			}
			return nil, optnix.Errorf(optnix.EUNAVAILABLE, "fetch %s: %v", url, err)
		}

		if err := f.cache.Put(ctx, url, res.Body, f.ttl); err != nil {
			// A cache write failure degrades persistence, not the
			// fetch itself.
			return res, nil
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*optnix.FetchResult), nil
}
