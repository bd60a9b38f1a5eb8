package address

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the edit-distance bound for the fuzzy rule.
const DefaultThreshold = 2

// MatchResult reports whether two strings denote the same entity and which
// rule decided it. Computed per comparison, never cached.
type MatchResult struct {
	Matched bool
	Reason  string
}

// Match compares two free-text addresses with the default fuzzy threshold.
func Match(a, b string) MatchResult {
	return MatchThreshold(a, b, DefaultThreshold)
}

// MatchThreshold runs the address decision ladder; the first rule that fires
// wins. Empty input on either side never matches.
func MatchThreshold(a, b string, threshold int) MatchResult {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return MatchResult{}
	}
	if na == nb {
		return MatchResult{Matched: true, Reason: "exact"}
	}
	if stripStreetType(na) == stripStreetType(nb) {
		return MatchResult{Matched: true, Reason: "street-type-stripped"}
	}
	if levenshtein.ComputeDistance(na, nb) <= threshold {
		return MatchResult{Matched: true, Reason: "fuzzy"}
	}
	return MatchResult{}
}

// stripStreetType drops a trailing street-type token from an already
// normalized address.
func stripStreetType(s string) string {
	tokens := strings.Fields(s)
	if n := len(tokens); n > 1 && streetTypeAbbrevs[tokens[n-1]] {
		tokens = tokens[:n-1]
	}
	return strings.Join(tokens, " ")
}
