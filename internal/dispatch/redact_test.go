package dispatch

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRedactPCI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaced card", "charge 4111 1111 1111 1111 now", "charge " + RedactedPlaceholder + " now"},
		{"hyphenated card", "4111-1111-1111-1111", RedactedPlaceholder},
		{"bare 16 digits", "4111111111111111", RedactedPlaceholder},
		{"13 digits", "4222222222222", RedactedPlaceholder},
		{"short number left alone", "call me at 6045551234", "call me at 6045551234"},
		{"no digits", "my sink is leaking", "my sink is leaking"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactPCI(tt.in))
		})
	}
}

func TestRedactPCIIdempotent(t *testing.T) {
	once := RedactPCI("pay with 4111 1111 1111 1111 thanks")
	assert.Equal(t, once, RedactPCI(once))
}

func TestSafeBodyTruncatesBeforeRedacting(t *testing.T) {
	prefix := strings.Repeat("a", 495)
	body := prefix + " 4111 1111 1111 1111"

	got := SafeBody(body)
	assert.Len(t, got, 500)
	assert.NotContains(t, got, RedactedPlaceholder)
}

func TestSafeBodyTruncatesOnRunes(t *testing.T) {
	body := strings.Repeat("é", 600)

	got := SafeBody(body)
	assert.Equal(t, strings.Repeat("é", 500), got)
	assert.True(t, utf8.ValidString(got))
}

func TestSafeBodyRedactsWithinBound(t *testing.T) {
	got := SafeBody("4111 1111 1111 1111 please charge this")
	assert.Contains(t, got, RedactedPlaceholder)
	assert.NotContains(t, got, "4111")
}
