package dispatch

import "context"

// OutboundReply is a message the pipeline wants delivered back to the
// customer over SMS.
type OutboundReply struct {
	ClientID string
	To       string
	From     string
	Body     string
}

// ReplyMessenger delivers outbound replies. Implemented by the Twilio
// sender in production and by fakes in tests.
type ReplyMessenger interface {
	SendReply(ctx context.Context, reply OutboundReply) error
}
