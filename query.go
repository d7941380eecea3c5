package optnix

// QueryKind selects the query evaluation strategy.
type QueryKind string

// Supported query kinds.
const (
	// QueryTerm matches tokenized words against option paths and
	// descriptions ("enable git").
	QueryTerm QueryKind = "term"

	// QueryPrefix matches a dot-separated path prefix
	// ("programs.git" finds everything beneath it).
	QueryPrefix QueryKind = "prefix"

	// QueryHierarchical matches a single path segment anywhere in a path
	// ("enable" finds services.foo.enable and programs.bar.enable).
	QueryHierarchical QueryKind = "hierarchical"
)

// Query limits. A zero Limit falls back to DefaultQueryLimit; requests above
// MaxQueryLimit are clamped.
const (
	DefaultQueryLimit = 20
	MaxQueryLimit     = 100
)

// Query is a transient, per-call search request. It is never persisted.
type Query struct {
	Raw   string    `json:"raw"`
	Kind  QueryKind `json:"kind"`
	Limit int       `json:"limit"`
}

// Validate returns an error if the query is malformed.
func (q *Query) Validate() error {
	if q.Raw == "" {
		return Errorf(EINVALID, "query text required")
	}
	switch q.Kind {
	case QueryTerm, QueryPrefix, QueryHierarchical:
	default:
		return Errorf(EINVALID, "unknown query kind %q", q.Kind)
	}
	return nil
}

// EffectiveLimit resolves the result cap for this query.
func (q *Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return q.Limit
}

// RankedOption is an option plus its relevance score for one query.
type RankedOption struct {
	Option Option `json:"option"`
	Score  int    `json:"score"`
}

// Result is the outcome of a search query.
type Result struct {
	// Options sorted by descending score.
	Options []RankedOption `json:"options"`

	// Groups maps a first-level path segment ("programs", "services") to
	// the number of matched options beneath it. Populated when a query
	// returns many sibling options to help callers present categories.
	Groups map[string]int `json:"groups,omitempty"`

	// Related holds siblings under the same immediate parent. Populated
	// on single-option results.
	Related []Option `json:"related,omitempty"`

	// Fallback is true when AND semantics across query tokens produced
	// nothing and the engine fell back to OR semantics.
	Fallback bool `json:"fallback,omitempty"`

	// Total is the number of matches before the limit was applied.
	Total int `json:"total"`
}

// CategoryStat describes one top-level option group.
type CategoryStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
