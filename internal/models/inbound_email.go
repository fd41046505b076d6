package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/utils"
)

// InboundEmail is the persisted record of one accepted inbound message.
// MessageID is NULL when the provider omits the Message-ID header; those
// messages carry no dedup protection. The unique index is the dedup backstop
// when the same message arrives on both intake paths at once.
type InboundEmail struct {
	ID          string  `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MessageID   *string `gorm:"column:message_id;type:varchar(255);uniqueIndex" json:"message_id"`
	FromAddress string `gorm:"column:from_address;type:varchar(255);index;not null" json:"from_address"`
	FromName    string `gorm:"column:from_name;type:varchar(255)" json:"from_name"`
	ToAddress   string `gorm:"column:to_address;type:varchar(255)" json:"to_address"`
	Subject     string `gorm:"column:subject;type:varchar(1000)" json:"subject"`

	// BodyText is truncated to MaxStoredBodyLength at insert time.
	BodyText        string `gorm:"column:body_text;type:text" json:"body_text"`
	AttachmentCount int    `gorm:"column:attachment_count;default:0" json:"attachment_count"`

	Status       enum.InboundEmailStatus `gorm:"column:status;type:varchar(50);index;default:'received'" json:"status"`
	ErrorMessage string                  `gorm:"column:error_message;type:text" json:"error_message"`
	ReplySent    bool                    `gorm:"column:reply_sent;default:false" json:"reply_sent"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at;type:timestamp" json:"processed_at"`
}

// MaxStoredBodyLength caps how much of the plaintext body is persisted.
const MaxStoredBodyLength = 10000

func (InboundEmail) TableName() string {
	return "inbound_emails"
}

func (e *InboundEmail) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("inmail", 16)
	}
	if e.Status == "" {
		e.Status = enum.InboundEmailStatusReceived
	}
	e.CreatedAt = utils.Now()
	return nil
}
