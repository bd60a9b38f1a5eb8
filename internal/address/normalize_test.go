package address

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"123 Main Street", "123 MAIN ST"},
		{"123-A Main St", "123A MAIN ST"},
		{"123 Main St #4", "123 MAIN ST UNIT 4"},
		{"  456 north Elm Avenue ", "456 N ELM AVE"},
		{"789 W. Magnolia Ave, Unit 2", "789 W MAGNOLIA AVE UNIT 2"},
		{"1000   Decking   Rd", "1000 DECKING RD"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"123 Main Street",
		"123-A Main St",
		"123 Main St #4",
		"500 Southwest Boulevard",
		"1000 Decking Road",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNormalizeWholeWordOnly(t *testing.T) {
	t.Parallel()

	// "DECKING" contains no street-type token boundary; it must survive.
	if got := Normalize("12 Decking Street"); got != "12 DECKING ST" {
		t.Fatalf("unexpected normalization: %q", got)
	}
	// "STREETER" must not become "STER".
	if got := Normalize("44 Streeter Lane"); got != "44 STREETER LN" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		number string
		street string
		suffix string
	}{
		{"123 Main Street", "123", "MAIN", "ST"},
		{"123-A Oak Grove Ln", "123A", "OAK GROVE", "LN"},
		{"Main St", "", "MAIN", "ST"},
		{"123", "123", "", ""},
		{"", "", "", ""},
	}

	for _, tc := range cases {
		got := Parse(tc.in)
		if got.Number != tc.number || got.Street != tc.street || got.Suffix != tc.suffix {
			t.Fatalf("Parse(%q) = %+v, want {%s %s %s}", tc.in, got, tc.number, tc.street, tc.suffix)
		}
	}
}
