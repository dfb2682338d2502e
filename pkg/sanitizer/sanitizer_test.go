package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Ada   Lovelace  ", "Ada Lovelace"},
		{"Ada\x00Lovelace", "AdaLovelace"},
		{"\tAda\nLovelace", "Ada Lovelace"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("unexpected email: %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+1 (555) 123-4567", "+15551234567"},
		{"+972.54.123.4567", "+972541234567"},
		{"+15551234567", "+15551234567"},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
