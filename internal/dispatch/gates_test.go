package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckGeography(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		blocked bool
	}{
		{"montreal area code", "5145551234", true},
		{"laval area code", "4505551234", true},
		{"quebec city area code", "4185551234", true},
		{"prefixed montreal number", "+915145551234", true},
		{"vancouver number", "6045551234", false},
		{"san francisco number", "+14155551234", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, blocked := CheckGeography(tt.from)
			assert.Equal(t, tt.blocked, blocked)
			if blocked {
				assert.Equal(t, OutcomeBlockedQuebec, outcome)
			}
		})
	}
}

func TestCheckContent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Outcome
	}{
		{"cbd uppercase", "CBD delivery?", OutcomeBlockedSHAFT},
		{"vape embedded", "do you sell Vape pens", OutcomeBlockedSHAFT},
		{"loan", "can I get a LOAN for the repair", OutcomeBlockedSHAFT},
		{"gun", "gun safe installation", OutcomeBlockedSHAFT},
		{"wrong number", "sorry, Wrong Number", OutcomeBlockedWrongNumber},
		{"plain request", "my sink is leaking", OutcomeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, blocked := CheckContent(tt.body)
			assert.Equal(t, tt.want != OutcomeOK, blocked)
			if blocked {
				assert.Equal(t, tt.want, outcome)
			}
		})
	}
}

func TestIsClosingPhrase(t *testing.T) {
	assert.True(t, IsClosingPhrase("thanks"))
	assert.True(t, IsClosingPhrase("  OK  "))
	assert.True(t, IsClosingPhrase("Got It"))
	assert.True(t, IsClosingPhrase("bye"))
	assert.False(t, IsClosingPhrase("thanks for nothing"))
	assert.False(t, IsClosingPhrase(""))
}

func TestMatchSafetyKeyword(t *testing.T) {
	keywords := []string{"gas leak", "hurt myself", " ", ""}

	kw, hit := MatchSafetyKeyword(keywords, "I think there is a GAS LEAK in the basement")
	assert.True(t, hit)
	assert.Equal(t, "gas leak", kw)

	_, hit = MatchSafetyKeyword(keywords, "my faucet drips")
	assert.False(t, hit)

	_, hit = MatchSafetyKeyword(nil, "gas leak")
	assert.False(t, hit)
}
