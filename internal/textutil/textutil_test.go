package textutil

import "testing"

func TestTitleCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  trip to oslo ", "Trip To Oslo"},
		{"DIY projects", "DIY Projects"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := TitleCase(tc.in); got != tc.want {
			t.Fatalf("TitleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Trip   to\tOslo "); got != "Trip to Oslo" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(`house: chores/2026?`); got != "house- chores-2026" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Date Night!"); got != "date_night" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
