package dto

// FixReceiptView is the editable subset of a receipt exposed through a fix
// link. Nothing else leaks through the token.
type FixReceiptView struct {
	ID               string  `json:"id"`
	OriginalFilename string  `json:"originalFilename"`
	Vendor           string  `json:"vendor"`
	Amount           float64 `json:"amount"`
	Date             string  `json:"date"`
	Category         string  `json:"category"`
	UploaderName     string  `json:"uploaderName"`
}

// FixSubmission is the sender-provided correction. Vendor, amount and date are
// mandatory; category is optional.
type FixSubmission struct {
	Vendor   string  `json:"vendor"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}
