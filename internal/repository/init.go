package repository

import (
	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/models"
)

type Repositories struct {
	InboundEmailRepository  interfaces.InboundEmailRepository
	ReceiptRepository       interfaces.ReceiptRepository
	AllowedSenderRepository interfaces.AllowedSenderRepository
	SettingsRepository      interfaces.SettingsRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		InboundEmailRepository:  NewInboundEmailRepository(db),
		ReceiptRepository:       NewReceiptRepository(db),
		AllowedSenderRepository: NewAllowedSenderRepository(db),
		SettingsRepository:      NewSettingsRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.InboundEmail{},
		&models.Receipt{},
		&models.AllowedSender{},
		&models.Setting{},
	)
}
