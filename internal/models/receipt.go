package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/utils"
)

// Receipt is one analyzable attachment turned into an expense record.
// InboundEmailID is nullable: receipts can also arrive via direct upload.
type Receipt struct {
	ID               string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Filename         string `gorm:"column:filename;type:varchar(255);not null" json:"filename"`
	OriginalFilename string `gorm:"column:original_filename;type:varchar(500);not null" json:"original_filename"`
	UploaderName     string `gorm:"column:uploader_name;type:varchar(255);not null" json:"uploader_name"`
	UploaderEmail    string `gorm:"column:uploader_email;type:varchar(255);index" json:"uploader_email"`

	// Extracted fields. Amount zero and empty strings mean "not detected".
	Vendor        string  `gorm:"column:vendor;type:varchar(255)" json:"vendor"`
	Amount        float64 `gorm:"column:amount;type:numeric" json:"amount"`
	Currency      string  `gorm:"column:currency;type:varchar(10);default:'USD'" json:"currency"`
	Date          string  `gorm:"column:date;type:varchar(10)" json:"date"`
	Category      string  `gorm:"column:category;type:varchar(100)" json:"category"`
	Description   string  `gorm:"column:description;type:text" json:"description"`
	PaymentMethod string  `gorm:"column:payment_method;type:varchar(100)" json:"payment_method"`
	RawText       string  `gorm:"column:raw_text;type:text" json:"raw_text"`

	Status enum.ReceiptStatus `gorm:"column:status;type:varchar(50);index;default:'pending'" json:"status"`

	InboundEmailID *string `gorm:"column:inbound_email_id;type:varchar(50);index" json:"inbound_email_id"`

	EditToken        string     `gorm:"column:edit_token;type:varchar(64);index" json:"edit_token"`
	FixEmailSent     bool       `gorm:"column:fix_email_sent;default:false" json:"fix_email_sent"`
	FixEmailOpenedAt *time.Time `gorm:"column:fix_email_opened_at;type:timestamp" json:"fix_email_opened_at"`
	FixCompletedAt   *time.Time `gorm:"column:fix_completed_at;type:timestamp" json:"fix_completed_at"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at;type:timestamp" json:"processed_at"`
}

// ReceiptDateCutoff is the earliest transaction date the books accept.
// Extracted dates before it count as missing and trigger the fix flow.
const ReceiptDateCutoff = "2025-10-01"

func (Receipt) TableName() string {
	return "receipts"
}

// MissingFields reports which of the required fields are absent or invalid.
// An empty result means the receipt is complete.
func (r *Receipt) MissingFields() []string {
	var missing []string
	if r.Vendor == "" {
		missing = append(missing, "Vendor")
	}
	if r.Amount <= 0 {
		missing = append(missing, "Amount")
	}
	if r.Date == "" || r.Date < ReceiptDateCutoff {
		missing = append(missing, "Date")
	}
	return missing
}

func (r *Receipt) IsComplete() bool {
	return len(r.MissingFields()) == 0
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("rcpt", 16)
	}
	if r.Status == "" {
		r.Status = enum.ReceiptStatusPending
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	r.CreatedAt = utils.Now()
	return nil
}
