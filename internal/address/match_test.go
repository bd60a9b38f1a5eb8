package address

import "testing"

func TestMatchAddresses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b    string
		matched bool
		reason  string
	}{
		{"123 Main St", "123 MAIN ST", true, "exact"},
		{"123 Main", "123 MAIN ST", true, "street-type-stripped"},
		{"123 Main St", "123 Main Str", true, "fuzzy"},
		{"123 Main St", "456 Main St", false, ""},
		{"", "123 Main St", false, ""},
		{"123 Main St", "", false, ""},
	}

	for _, tc := range cases {
		got := Match(tc.a, tc.b)
		if got.Matched != tc.matched || got.Reason != tc.reason {
			t.Fatalf("Match(%q, %q) = %+v, want matched=%v reason=%q",
				tc.a, tc.b, got, tc.matched, tc.reason)
		}
	}
}

func TestMatchThreshold(t *testing.T) {
	t.Parallel()

	// One edit apart; a zero threshold must reject what the default accepts.
	if got := MatchThreshold("123 Main St", "123 Main Str", 0); got.Matched {
		t.Fatalf("threshold 0 should not fuzzy-match: %+v", got)
	}
	if got := MatchThreshold("123 Main St", "123 Main Str", 2); !got.Matched || got.Reason != "fuzzy" {
		t.Fatalf("threshold 2 should fuzzy-match: %+v", got)
	}
}

func TestMatchNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b    string
		matched bool
		reason  string
	}{
		{"John and Mary Castellanos", "Castellanos John", true, "subset"},
		{"The Smithfield Trust", "Smithfield Trust", true, "subset"},
		{"Robert Higgintower", "Susan Higgintower", true, "shared-surname"},
		// A shared common first name is not evidence of the same party.
		{"James Brownlee", "James Okafor", false, ""},
		{"Acme Builders LLC", "Jane Doe", false, ""},
		{"", "Jane Doe", false, ""},
	}

	for _, tc := range cases {
		got := MatchNames(tc.a, tc.b)
		if got.Matched != tc.matched || got.Reason != tc.reason {
			t.Fatalf("MatchNames(%q, %q) = %+v, want matched=%v reason=%q",
				tc.a, tc.b, got, tc.matched, tc.reason)
		}
	}
}
