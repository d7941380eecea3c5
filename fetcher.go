package optnix

import "context"

// FetchResult is a fetched documentation payload.
type FetchResult struct {
	// Body is the raw payload (HTML or JSON).
	Body []byte

	// FromCache is true when the payload was served from cache rather
	// than the network.
	FromCache bool

	// Stale is true when the payload came from an expired cache entry
	// served because the network fetch failed. Callers should treat the
	// data as usable but degraded.
	Stale bool
}

// Fetcher retrieves raw documentation payloads by URL.
type Fetcher interface {
	// Fetch returns the payload for the URL. Implementations may consult
	// a cache before the network. Returns EUNAVAILABLE when neither the
	// network nor a cache entry can serve the request.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
