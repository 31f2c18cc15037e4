// Package clients stores the subscribing trade businesses and resolves them
// by their inbound routing number.
package clients

import "time"

// Client is a subscribing trade business using the dispatcher.
type Client struct {
	ID            string
	BusinessName  string
	PhoneNumber   string
	City          string
	Timezone      string
	IndustryType  string
	TermsAgreedAt *time.Time
	CreatedAt     time.Time
}

// TermsAccepted reports whether the client has accepted the terms of service.
func (c *Client) TermsAccepted() bool {
	return c.TermsAgreedAt != nil && !c.TermsAgreedAt.IsZero()
}
