package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/dto"
)

// EmailProcessor is the single pipeline entry point both intake paths feed.
type EmailProcessor interface {
	ProcessEmail(ctx context.Context, msg *dto.InboundMessage) error

	// ReprocessInboundEmail replays all receipts linked to a stored record
	// through analysis again. Dedup is deliberately not consulted.
	ReprocessInboundEmail(ctx context.Context, inboundEmailID string) error

	// ReprocessReceipts re-analyzes the given receipts sequentially with a
	// small inter-item delay to respect analysis rate limits.
	ReprocessReceipts(ctx context.Context, receiptIDs []string) error
}
