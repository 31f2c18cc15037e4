// Package leads tracks customer conversation threads scoped to one client.
package leads

import (
	"errors"
	"time"
)

// ErrLeadNotFound is returned when a lead cannot be located.
var ErrLeadNotFound = errors.New("leads: lead not found")

// Lead is one tracked customer conversation thread. There is at most one per
// distinct customer phone number per client.
type Lead struct {
	ID                  string
	ClientID            string
	CustomerPhone       string
	ConversationHistory string
	LastMessageSid      string
	AIPausedUntil       *time.Time
	Status              string
	CreatedAt           time.Time
}

// Paused reports whether the human-takeover pause is active at the given
// instant. Comparison happens in UTC.
func (l *Lead) Paused(now time.Time) bool {
	if l == nil || l.AIPausedUntil == nil {
		return false
	}
	return l.AIPausedUntil.UTC().After(now.UTC())
}
