package ai

import (
	"fmt"
	"strings"

	"github.com/receiptops/receiptstack/internal/enum"
)

// receiptPrompt offers exactly the categories the fix flow accepts, so the
// model can never classify a receipt into something a later edit would reject.
var receiptPrompt = fmt.Sprintf(`Analyze this receipt and extract the following information as JSON:
{
  "vendor": "business name",
  "amount": "total amount as a number, without currency symbols",
  "currency": "3-letter currency code, e.g. USD",
  "date": "date in YYYY-MM-DD format",
  "category": "one of: %s",
  "description": "brief description of the purchase",
  "payment_method": "payment method if visible, e.g. Visa ending 1234",
  "raw_text": "all visible text on the receipt"
}

Rules:
- Use null for any field you cannot determine.
- The date must be the transaction date printed on the receipt, not today's date.
- If the year is printed as two digits, assume 20XX.
- The amount is the final total including tax and tip.
- Respond with the JSON object only, no other text.`, strings.Join(enum.ExpenseCategories, ", "))
