package dto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ReceiptAnalysis is the normalized output of the document-analysis capability
// for one attachment. Zero values mean the field could not be determined.
type ReceiptAnalysis struct {
	Vendor        string  `json:"vendor"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"payment_method"`
	RawText       string  `json:"raw_text"`
}

// UnmarshalJSON tolerates models returning the amount as a formatted string
// ("$1,234.50") instead of a number.
func (r *ReceiptAnalysis) UnmarshalJSON(data []byte) error {
	type alias ReceiptAnalysis
	aux := struct {
		*alias
		Amount json.RawMessage `json:"amount"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Amount) > 0 && string(aux.Amount) != "null" {
		var amount float64
		if err := json.Unmarshal(aux.Amount, &amount); err == nil {
			r.Amount = amount
		} else {
			var raw string
			if err := json.Unmarshal(aux.Amount, &raw); err == nil {
				r.Amount = parseAmountString(raw)
			}
		}
	}
	return nil
}

func parseAmountString(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}
