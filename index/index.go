// Package index builds immutable, queryable search structures from option
// records: an inverted word index over paths and descriptions, a prefix
// trie over dot-separated path segments, and a flat hierarchy index mapping
// individual segments to the paths containing them.
package index

import (
	"sort"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/optnix/optnix"
)

// bloomFPRate is the accepted false positive rate for the token filter.
// False positives only cost a wasted map lookup.
const bloomFPRate = 0.01

// Generation is one complete, immutable snapshot of all derived search
// structures for a documentation source. A source context holds exactly one
// current generation and swaps in a replacement atomically; readers never
// observe a half-built generation.
type Generation struct {
	// ID uniquely identifies this build.
	ID string

	// Source that produced the options.
	Source optnix.Source

	// BuiltAt is when the build completed.
	BuiltAt time.Time

	// ContentHash fingerprints the option corpus. Two builds of the same
	// input share a hash regardless of ID or BuiltAt.
	ContentHash uint64

	options   map[string]optnix.Option
	paths     []string // sorted
	inverted  map[string][]string
	prefix    *trieNode
	hierarchy map[string][]string
	tokens    *bloom.BloomFilter
}

// Build derives a Generation from option records. It is pure and
// deterministic: the same input yields identical inverted, prefix and
// hierarchy structures. A path that appears twice keeps the later record
// (last-writer-wins within one build).
func Build(source optnix.Source, opts []optnix.Option) *Generation {
	options := make(map[string]optnix.Option, len(opts))
	for _, o := range opts {
		if o.Path == "" {
			continue
		}
		options[o.Path] = o
	}

	paths := make([]string, 0, len(options))
	for p := range options {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	g := &Generation{
		ID:        uuid.NewString(),
		Source:    source,
		BuiltAt:   time.Now(),
		options:   options,
		paths:     paths,
		inverted:  make(map[string][]string),
		prefix:    newTrieNode(),
		hierarchy: make(map[string][]string),
	}

	hash := xxhash.New()
	for _, path := range paths {
		o := options[path]

		_, _ = hash.WriteString(path)
		_, _ = hash.WriteString("\x00")
		_, _ = hash.WriteString(o.Description)
		_, _ = hash.WriteString("\x00")

		for _, tok := range Tokenize(path + " " + o.Description) {
			g.inverted[tok] = append(g.inverted[tok], path)
		}

		g.prefix.insert(path)

		for _, seg := range strings.Split(path, ".") {
			g.hierarchy[seg] = appendUnique(g.hierarchy[seg], path)
		}
	}
	g.ContentHash = hash.Sum64()

	for tok, posting := range g.inverted {
		g.inverted[tok] = sortUnique(posting)
	}

	g.tokens = bloom.NewWithEstimates(uint(max(len(g.inverted), 1)), bloomFPRate)
	for tok := range g.inverted {
		g.tokens.AddString(tok)
	}

	return g
}

// Len returns the number of indexed options.
func (g *Generation) Len() int {
	return len(g.options)
}

// Lookup returns the option stored under an exact path.
func (g *Generation) Lookup(path string) (optnix.Option, bool) {
	o, ok := g.options[path]
	return o, ok
}

// Paths returns all indexed paths in sorted order. The returned slice is
// shared and must not be mutated.
func (g *Generation) Paths() []string {
	return g.paths
}

// Postings returns the paths whose tokenized path or description contains
// the token. The bloom filter short-circuits tokens that were never indexed.
func (g *Generation) Postings(token string) []string {
	if !g.tokens.TestString(token) {
		return nil
	}
	return g.inverted[token]
}

// ByPrefix returns every path registered under a dot-separated prefix.
// When the prefix does not land on a segment boundary ("programs.gi"), it
// falls back to a starts-with scan over the sorted path set — linear, but
// bounded by the corpus size (low thousands).
func (g *Generation) ByPrefix(prefix string) []string {
	if paths := g.prefix.lookup(prefix); paths != nil {
		return paths
	}
	var out []string
	for _, p := range g.paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// BySegment returns every path containing the segment anywhere.
func (g *Generation) BySegment(segment string) []string {
	return g.hierarchy[segment]
}

// TopLevel returns sorted first-level segments and their option counts.
func (g *Generation) TopLevel() []optnix.CategoryStat {
	counts := make(map[string]int)
	for _, p := range g.paths {
		head, _, _ := strings.Cut(p, ".")
		counts[head]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]optnix.CategoryStat, 0, len(names))
	for _, name := range names {
		stats = append(stats, optnix.CategoryStat{Name: name, Count: counts[name]})
	}
	return stats
}

// Siblings returns the options sharing path's immediate parent, excluding
// path itself. Top-level paths have no siblings reported.
func (g *Generation) Siblings(path string) []optnix.Option {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return nil
	}
	parent := path[:idx]

	var out []optnix.Option
	for _, p := range g.ByPrefix(parent) {
		if p == path {
			continue
		}
		// Direct children only.
		rest := strings.TrimPrefix(p, parent+".")
		if rest == p || strings.Contains(rest, ".") {
			continue
		}
		if o, ok := g.Lookup(p); ok {
			out = append(out, o)
		}
	}
	return out
}

func appendUnique(list []string, s string) []string {
	if n := len(list); n > 0 && list[n-1] == s {
		return list
	}
	return append(list, s)
}

func sortUnique(list []string) []string {
	sort.Strings(list)
	out := list[:0]
	for i, s := range list {
		if i > 0 && s == list[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
