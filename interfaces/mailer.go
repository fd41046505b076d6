package interfaces

import "context"

// MailerService sends outbound transactional mail. Delivery failures are
// reported, never retried here.
type MailerService interface {
	// SendReply sends an HTML reply, threading against inReplyTo when present.
	// The subject gets the usual "Re: " prefix.
	SendReply(ctx context.Context, to, subject, inReplyTo, html string) error

	// Send sends a standalone HTML email.
	Send(ctx context.Context, to, subject, html string) error
}
