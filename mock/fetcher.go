package mock

import (
	"context"

	"github.com/optnix/optnix"
)

var _ optnix.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of optnix.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*optnix.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*optnix.FetchResult, error) {
	return f.FetchFn(ctx, url)
}
