package messaging

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "+16045551234", "+16045551234"},
		{"formatted", "(604) 555-1234", "+6045551234"},
		{"whitespace", "  +1 604 555 1234 ", "+16045551234"},
		{"empty", "", ""},
		{"no digits", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.in); got != tt.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizePhone(t *testing.T) {
	if got := SanitizePhone("+1 (604) 555-1234"); got != "16045551234" {
		t.Fatalf("SanitizePhone = %q", got)
	}
	if got := SanitizePhone(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
