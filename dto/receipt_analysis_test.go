package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptAnalysis_UnmarshalJSON_AmountVariants(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		amount float64
	}{
		{"numeric amount", `{"vendor":"Acme","amount":12.34}`, 12.34},
		{"string amount", `{"vendor":"Acme","amount":"12.34"}`, 12.34},
		{"formatted string amount", `{"vendor":"Acme","amount":"$1,234.50"}`, 1234.50},
		{"null amount", `{"vendor":"Acme","amount":null}`, 0},
		{"missing amount", `{"vendor":"Acme"}`, 0},
		{"unparseable string", `{"vendor":"Acme","amount":"n/a"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var analysis ReceiptAnalysis
			require.NoError(t, json.Unmarshal([]byte(tt.input), &analysis))
			assert.Equal(t, tt.amount, analysis.Amount)
			assert.Equal(t, "Acme", analysis.Vendor)
		})
	}
}
