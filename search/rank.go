package search

import (
	"sort"
	"strings"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/index"
)

// Score weights. The ordering invariants are what matter: an exact path
// match always outranks a path prefix match, which outranks a substring
// match, which outranks a description-only match; among close scores,
// shorter paths and ".enable" leaves surface first. The exact values are
// tunable.
const (
	scoreExact    = 1000
	scorePrefix   = 500
	scoreContains = 250
	scoreIndirect = 50

	enableBonus    = 25
	segmentPenalty = 1
)

// rank scores candidate paths against the raw query and returns them in
// descending score order, ties broken by path for determinism.
func rank(g *index.Generation, raw string, candidates []string) []optnix.RankedOption {
	ranked := make([]optnix.RankedOption, 0, len(candidates))
	for _, path := range candidates {
		o, ok := g.Lookup(path)
		if !ok {
			continue
		}
		ranked = append(ranked, optnix.RankedOption{
			Option: o,
			Score:  score(path, raw),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Option.Path < ranked[j].Option.Path
	})
	return ranked
}

func score(path, raw string) int {
	var s int
	switch {
	case path == raw:
		s = scoreExact
	case strings.HasPrefix(path, raw):
		s = scorePrefix
	case strings.Contains(path, raw):
		s = scoreContains
	default:
		s = scoreIndirect
	}

	if strings.HasSuffix(path, ".enable") {
		s += enableBonus
	}
	s -= segmentPenalty * strings.Count(path, ".")

	return s
}
