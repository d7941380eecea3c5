// Package search evaluates queries against a built index generation and
// ranks the results. All evaluation is in-memory and non-blocking; the
// package holds no state of its own.
package search

import (
	"sort"
	"strings"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/index"
)

// groupThreshold is the result count above which results are grouped by
// their first-level path segment.
const groupThreshold = 10

// Search evaluates a query against a generation. A nil generation means the
// owning source context has not finished loading and yields ENOTREADY; an
// empty result set is success, not an error.
func Search(g *index.Generation, q optnix.Query) (*optnix.Result, error) {
	if g == nil {
		return nil, optnix.Errorf(optnix.ENOTREADY, "index not built yet")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(q.Raw)

	var (
		candidates []string
		fallback   bool
	)
	switch q.Kind {
	case optnix.QueryTerm:
		candidates, fallback = termCandidates(g, raw)
	case optnix.QueryPrefix:
		candidates = g.ByPrefix(raw)
	case optnix.QueryHierarchical:
		candidates = g.BySegment(raw)
	}

	ranked := rank(g, raw, candidates)

	result := &optnix.Result{
		Total:    len(ranked),
		Fallback: fallback,
	}
	if limit := q.EffectiveLimit(); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result.Options = ranked

	if len(ranked) > groupThreshold {
		result.Groups = groupByHead(ranked)
	}
	if len(ranked) == 1 {
		result.Related = g.Siblings(ranked[0].Option.Path)
	}

	return result, nil
}

// termCandidates resolves a term query to candidate paths. Multi-token
// queries require every token (AND); when that produces nothing the union
// is used instead so over-specific phrasing still returns something.
func termCandidates(g *index.Generation, raw string) (paths []string, fallback bool) {
	tokens := index.Tokenize(raw)
	if len(tokens) == 0 {
		return nil, false
	}

	postings := make([][]string, 0, len(tokens))
	for _, tok := range tokens {
		postings = append(postings, g.Postings(tok))
	}

	paths = intersect(postings)
	if len(paths) == 0 && len(tokens) > 1 {
		paths = union(postings)
		fallback = len(paths) > 0
	}
	return paths, fallback
}

// Lookup returns the option stored under an exact path together with its
// siblings under the same parent. Returns ENOTFOUND on a miss.
func Lookup(g *index.Generation, path string) (*optnix.Option, []optnix.Option, error) {
	if g == nil {
		return nil, nil, optnix.Errorf(optnix.ENOTREADY, "index not built yet")
	}
	if path == "" {
		return nil, nil, optnix.Errorf(optnix.EINVALID, "option path required")
	}
	o, ok := g.Lookup(path)
	if !ok {
		return nil, nil, optnix.Errorf(optnix.ENOTFOUND, "option %q not found", path)
	}
	return &o, g.Siblings(path), nil
}

// ByPrefix returns every option beneath a dot-separated path prefix, sorted
// by path. A non-positive limit applies the default query limit.
func ByPrefix(g *index.Generation, prefix string, limit int) ([]optnix.Option, error) {
	if g == nil {
		return nil, optnix.Errorf(optnix.ENOTREADY, "index not built yet")
	}
	if prefix == "" {
		return nil, optnix.Errorf(optnix.EINVALID, "prefix required")
	}
	if limit <= 0 {
		limit = optnix.DefaultQueryLimit
	}

	paths := g.ByPrefix(prefix)
	out := make([]optnix.Option, 0, min(len(paths), limit))
	for _, p := range paths {
		if len(out) >= limit {
			break
		}
		if o, ok := g.Lookup(p); ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// Categories returns per-top-level-group option counts.
func Categories(g *index.Generation) ([]optnix.CategoryStat, error) {
	if g == nil {
		return nil, optnix.Errorf(optnix.ENOTREADY, "index not built yet")
	}
	return g.TopLevel(), nil
}

// groupByHead counts ranked options per first-level path segment.
func groupByHead(ranked []optnix.RankedOption) map[string]int {
	groups := make(map[string]int)
	for _, r := range ranked {
		head, _, _ := strings.Cut(r.Option.Path, ".")
		groups[head]++
	}
	return groups
}

// intersect returns the paths present in every sorted posting list.
func intersect(postings [][]string) []string {
	if len(postings) == 0 {
		return nil
	}
	out := postings[0]
	for _, list := range postings[1:] {
		if len(out) == 0 {
			return nil
		}
		out = intersectTwo(out, list)
	}
	return out
}

func intersectTwo(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// union merges sorted posting lists, deduplicated.
func union(postings [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range postings {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
