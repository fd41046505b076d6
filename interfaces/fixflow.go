package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/dto"
)

// FixFlowService owns the tokenized follow-up flow for incomplete receipts.
type FixFlowService interface {
	// EnsureEditToken returns the receipt's edit token, minting one only if
	// none exists yet.
	EnsureEditToken(ctx context.Context, receiptID string) (string, error)

	// GetByToken resolves a token to the editable subset of receipt fields.
	// Returns nil when the token is unknown.
	GetByToken(ctx context.Context, token string) (*dto.FixReceiptView, error)

	// SubmitFix validates vendor/amount/date, updates the receipt and stamps
	// fix_completed_at. Repeated valid submissions are permitted and move the
	// completion timestamp forward.
	SubmitFix(ctx context.Context, token string, fix dto.FixSubmission) error

	// TrackOpen records the first open of a fix email. Later opens are no-ops,
	// unknown tokens are swallowed.
	TrackOpen(ctx context.Context, token string)

	// SendFixNotifications emails a fix request for every processed receipt
	// that is still incomplete and was never notified. Returns the send count.
	SendFixNotifications(ctx context.Context) (int, error)
}
