// Package http provides the network implementation of optnix.Fetcher.
// Callers almost always want it wrapped in cache.NewFetcher so payloads
// persist across restarts.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/optnix/optnix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests. The
// documentation payloads are a few megabytes at most.
const DefaultFetchTimeout = 30 * time.Second

// userAgent identifies us to the documentation hosts.
const userAgent = "optnix/1.0 (+https://github.com/optnix/optnix)"

// Ensure Fetcher implements optnix.Fetcher at compile time.
var _ optnix.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documentation payloads over plain HTTP GET. The
// documentation sites are static; no JavaScript rendering is involved.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient overrides the HTTP client. The client's own timeout wins over
// WithTimeout when set.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// Fetch retrieves the payload at the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*optnix.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &optnix.FetchResult{Body: body}, nil
}
