package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/dto"
)

// AIService is the boundary to the external document-analysis capability.
type AIService interface {
	// AnalyzeReceipt sends one attachment for structured extraction. Oversized
	// files and unparseable model replies degrade to an empty result rather
	// than an error; errors are reserved for transport and API failures.
	AnalyzeReceipt(ctx context.Context, content []byte, mediaType string) (*dto.ReceiptAnalysis, error)
}
