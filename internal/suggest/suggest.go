// Package suggest ranks candidate identifiers for "did you mean" hints
// on failed class and method lookups.
package suggest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// MaxSuggestions caps how many hints a failed lookup reports.
const MaxSuggestions = 3

// threshold below which a candidate is treated as unrelated.
const threshold = 0.55

type scored struct {
	name  string
	score float64
}

// Rank orders candidates by similarity to query and returns the top
// matches above the cutoff. Similarity blends Jaro-Winkler distance on
// the raw strings with stemmed-token overlap, so both typos
// ("Invoce" → "Invoice") and reordered words ("ReportHtml" →
// "HtmlReport") rank well.
func Rank(query string, candidates []string, limit int) []string {
	if limit <= 0 {
		limit = MaxSuggestions
	}
	qTokens := stemTokens(query)
	var ranked []scored
	for _, cand := range candidates {
		if cand == "" || cand == query {
			continue
		}
		if s := score(query, qTokens, cand); s >= threshold {
			ranked = append(ranked, scored{name: cand, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}

func score(query string, qTokens []string, cand string) float64 {
	sim, err := edlib.StringsSimilarity(strings.ToLower(query), strings.ToLower(cand), edlib.JaroWinkler)
	if err != nil {
		sim = 0
	}
	return 0.7*float64(sim) + 0.3*tokenOverlap(qTokens, stemTokens(cand))
}

// tokenOverlap is the fraction of query tokens present in the
// candidate's token set.
func tokenOverlap(q, c []string) float64 {
	if len(q) == 0 || len(c) == 0 {
		return 0
	}
	set := make(map[string]bool, len(c))
	for _, t := range c {
		set[t] = true
	}
	hits := 0
	for _, t := range q {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// stemTokens splits an identifier on case boundaries and separators and
// stems each piece, so "renderedReports" and "RenderReport" meet in the
// middle.
func stemTokens(ident string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, porter2.Stem(strings.ToLower(cur.String())))
			cur.Reset()
		}
	}
	runes := []rune(ident)
	for i, r := range runes {
		switch {
		case r == '.' || r == '_' || r == '$':
			flush()
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
