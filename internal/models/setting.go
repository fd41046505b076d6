package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/internal/utils"
)

// Setting is one mutable runtime configuration entry (IMAP credentials, poll
// interval). Re-read at the start of every poll cycle so operator changes take
// effect without a restart.
type Setting struct {
	Key       string    `gorm:"column:key;type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

func (s *Setting) BeforeSave(tx *gorm.DB) error {
	s.UpdatedAt = utils.Now()
	return nil
}

// Setting keys for the IMAP polling contract.
const (
	SettingIMAPHost         = "imap_host"
	SettingIMAPPort         = "imap_port"
	SettingIMAPUsername     = "imap_username"
	SettingIMAPPassword     = "imap_password"
	SettingIMAPMailbox      = "imap_mailbox"
	SettingIMAPPollInterval = "imap_poll_interval"
)
