package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceipt_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		receipt Receipt
		missing []string
	}{
		{
			name:    "complete receipt",
			receipt: Receipt{Vendor: "Acme", Amount: 10.5, Date: "2025-11-01"},
			missing: nil,
		},
		{
			name:    "everything missing",
			receipt: Receipt{},
			missing: []string{"Vendor", "Amount", "Date"},
		},
		{
			name:    "zero amount counts as missing",
			receipt: Receipt{Vendor: "Acme", Amount: 0, Date: "2025-11-01"},
			missing: []string{"Amount"},
		},
		{
			name:    "negative amount counts as missing",
			receipt: Receipt{Vendor: "Acme", Amount: -3, Date: "2025-11-01"},
			missing: []string{"Amount"},
		},
		{
			name:    "date before cutoff counts as missing",
			receipt: Receipt{Vendor: "Acme", Amount: 10, Date: "2025-09-30"},
			missing: []string{"Date"},
		},
		{
			name:    "date exactly at cutoff is accepted",
			receipt: Receipt{Vendor: "Acme", Amount: 10, Date: ReceiptDateCutoff},
			missing: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, tt.receipt.MissingFields())
			assert.Equal(t, len(tt.missing) == 0, tt.receipt.IsComplete())
		})
	}
}
