package address

import "strings"

// fillerWords are dropped before token comparison of owner names.
var fillerWords = map[string]bool{
	"AND": true,
	"&":   true,
	"THE": true,
}

// commonFirstNames keeps the shared-surname rule from firing on a shared
// given name alone. Deliberately small; the rule is a loose heuristic and
// its false-positive rate is accepted, not quantified.
var commonFirstNames = map[string]bool{
	"JAMES": true, "JOHN": true, "ROBERT": true, "MICHAEL": true,
	"WILLIAM": true, "DAVID": true, "RICHARD": true, "JOSEPH": true,
	"THOMAS": true, "CHARLES": true, "CHRISTOPHER": true, "DANIEL": true,
	"MATTHEW": true, "ANTHONY": true, "MARK": true, "PAUL": true,
	"STEVEN": true, "ANDREW": true, "GEORGE": true, "KENNETH": true,
	"JOSHUA": true, "KEVIN": true, "BRIAN": true, "EDWARD": true,
	"MARY": true, "PATRICIA": true, "JENNIFER": true, "LINDA": true,
	"ELIZABETH": true, "BARBARA": true, "SUSAN": true, "JESSICA": true,
	"SARAH": true, "KAREN": true, "NANCY": true, "LISA": true,
	"BETTY": true, "MARGARET": true, "SANDRA": true, "ASHLEY": true,
}

// MatchNames decides whether two person/owner names denote the same party.
// Token subset (either direction, fillers removed) wins first; otherwise a
// shared token of length >= 3 that is not a common first name counts as a
// shared surname. Used to classify permit applicants as owner-builders.
func MatchNames(a, b string) MatchResult {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return MatchResult{}
	}
	if tokenSubset(ta, tb) || tokenSubset(tb, ta) {
		return MatchResult{Matched: true, Reason: "subset"}
	}
	for tok := range ta {
		if len(tok) >= 3 && tb[tok] && !commonFirstNames[tok] {
			return MatchResult{Matched: true, Reason: "shared-surname"}
		}
	}
	return MatchResult{}
}

func nameTokens(raw string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(Normalize(raw)) {
		if fillerWords[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

func tokenSubset(sub, super map[string]bool) bool {
	for tok := range sub {
		if !super[tok] {
			return false
		}
	}
	return true
}
