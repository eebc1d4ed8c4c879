package aggregate

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MatchMode selects how allocation categories are compared with expense categories.
type MatchMode string

const (
	// MatchExact compares the raw strings, case and whitespace included.
	MatchExact MatchMode = "exact"
	// MatchNormalized trims, collapses inner whitespace and case-folds both sides.
	MatchNormalized MatchMode = "normalized"
)

const (
	maxSuggestions      = 3
	suggestionThreshold = 0.6
)

// CategoryMatcher decides whether two category names refer to the same budget line.
type CategoryMatcher struct {
	mode MatchMode
}

// NewCategoryMatcher returns a matcher; unknown modes compare exactly.
func NewCategoryMatcher(mode MatchMode) *CategoryMatcher {
	if mode != MatchNormalized {
		mode = MatchExact
	}
	return &CategoryMatcher{mode: mode}
}

// Mode is the effective mode.
func (m *CategoryMatcher) Mode() MatchMode { return m.mode }

// NormalizeCategory trims, collapses whitespace and lowercases name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Match reports whether expense category name belongs to allocation category budget.
func (m *CategoryMatcher) Match(budget, name string) bool {
	if m.mode == MatchNormalized {
		return NormalizeCategory(budget) == NormalizeCategory(name)
	}
	return budget == name
}

// similarity is 1 - distance/longest on normalized names.
func similarity(a, b string) float64 {
	a, b = NormalizeCategory(a), NormalizeCategory(b)
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Suggest returns up to three candidates that look like budget, closest first.
func (m *CategoryMatcher) Suggest(budget string, candidates []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, c := range candidates {
		if m.Match(budget, c) {
			continue
		}
		if s := similarity(budget, c); s >= suggestionThreshold {
			hits = append(hits, scored{name: c, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
