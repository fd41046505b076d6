package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/internal/utils"
)

// AllowedSender is one entry of the sender allow-list. An empty table rejects
// every sender.
type AllowedSender struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"created_at"`
}

func (AllowedSender) TableName() string {
	return "allowed_senders"
}

func (s *AllowedSender) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateNanoIDWithPrefix("sndr", 12)
	}
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.CreatedAt = utils.Now()
	return nil
}
