// Package address canonicalizes free-text street addresses and owner names
// and decides whether two of them denote the same entity.
package address

import (
	"regexp"
	"strings"
)

var (
	unitExpr         = regexp.MustCompile(`#\s*(\d+)`)
	hyphenSuffixExpr = regexp.MustCompile(`\b(\d+)-([A-Z])\b`)
	punctStripper    = strings.NewReplacer(".", "", ",", "")
)

// streetTypes maps long street-type tokens to their postal abbreviations.
// Replacement is whole-word only; a substring pass would rewrite tokens that
// merely contain a vocabulary word.
var streetTypes = map[string]string{
	"STREET":     "ST",
	"AVENUE":     "AVE",
	"BOULEVARD":  "BLVD",
	"DRIVE":      "DR",
	"LANE":       "LN",
	"ROAD":       "RD",
	"COURT":      "CT",
	"CIRCLE":     "CIR",
	"PLACE":      "PL",
	"TRAIL":      "TRL",
	"PARKWAY":    "PKWY",
	"HIGHWAY":    "HWY",
	"TERRACE":    "TER",
	"SQUARE":     "SQ",
	"LOOP":       "LOOP",
	"COVE":       "CV",
	"EXPRESSWAY": "EXPY",
}

var directionals = map[string]string{
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",
}

// streetTypeAbbrevs is the closed set of tokens a normalized address may end
// with when it carries a street type.
var streetTypeAbbrevs = func() map[string]bool {
	set := make(map[string]bool, len(streetTypes))
	for _, abbr := range streetTypes {
		set[abbr] = true
	}
	return set
}()

// Normalize canonicalizes a free-text address. Blank input yields ""; the
// function never fails and is idempotent.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = unitExpr.ReplaceAllString(s, "UNIT $1")
	s = punctStripper.Replace(s)
	// "123-A" house numbers collapse to "123A".
	s = hyphenSuffixExpr.ReplaceAllString(s, "$1$2")

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if abbr, ok := streetTypes[tok]; ok {
			tokens[i] = abbr
			continue
		}
		if abbr, ok := directionals[tok]; ok {
			tokens[i] = abbr
		}
	}

	return strings.Join(tokens, " ")
}

// Parts is a parsed situs address: house number, street core and a trailing
// street-type suffix when present.
type Parts struct {
	Number string
	Street string
	Suffix string
}

// Parse splits a free-text address into Parts after normalization. The suffix
// is separated out so remote queries can match on the broader street core.
func Parse(raw string) Parts {
	tokens := strings.Fields(Normalize(raw))
	if len(tokens) == 0 {
		return Parts{}
	}

	var parts Parts
	if tokens[0][0] >= '0' && tokens[0][0] <= '9' {
		parts.Number = tokens[0]
		tokens = tokens[1:]
	}
	if n := len(tokens); n > 1 && streetTypeAbbrevs[tokens[n-1]] {
		parts.Suffix = tokens[n-1]
		tokens = tokens[:n-1]
	}
	parts.Street = strings.Join(tokens, " ")
	return parts
}
