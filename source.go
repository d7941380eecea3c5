package optnix

import (
	"context"
	"time"
)

// State is a source context's lifecycle state.
type State string

// Lifecycle states. A context starts Uninitialized, moves to Loading when a
// load begins, and ends Ready on success. Degraded means queries are served
// from stale or partial data after a source failure.
const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateDegraded      State = "degraded"
)

// Status is a point-in-time snapshot of a source context.
type Status struct {
	Source  Source    `json:"source"`
	State   State     `json:"state"`
	Options int       `json:"options"`
	BuiltAt time.Time `json:"builtAt,omitzero"`
	LastErr string    `json:"lastError,omitempty"`
}

// SourceContext answers option queries for one documentation source.
// Local sources build an in-memory index; remote sources delegate to a
// search API. Queries issued before any data exists return ENOTREADY and
// never block.
type SourceContext interface {
	// Search evaluates a term/prefix/hierarchical query.
	Search(ctx context.Context, q Query) (*Result, error)

	// Lookup returns the option with exactly this path.
	// Returns ENOTFOUND if no such option exists.
	Lookup(ctx context.Context, path string) (*Option, []Option, error)

	// ByPrefix returns every option beneath a dot-separated path prefix.
	ByPrefix(ctx context.Context, prefix string, limit int) ([]Option, error)

	// Categories returns per-top-level-group option counts.
	Categories(ctx context.Context) ([]CategoryStat, error)

	// Status reports the context's lifecycle state.
	Status() Status
}
