package interfaces

import "context"

// IMAPPoller periodically drains unseen messages from the configured mailbox
// into the processing pipeline.
type IMAPPoller interface {
	Start(ctx context.Context) error
	Stop() error

	// PollNow runs one poll cycle immediately. A cycle already in flight makes
	// this a no-op.
	PollNow(ctx context.Context)
}
