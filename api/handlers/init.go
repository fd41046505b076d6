package handlers

import (
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/repository"
	"github.com/receiptops/receiptstack/services"
)

type Handlers struct {
	Inbox    *InboxHandler
	Receipts *ReceiptsHandler
	Senders  *SendersHandler
	Settings *SettingsHandler
	Fix      *FixHandler
}

func InitHandlers(log logger.Logger, repos *repository.Repositories, s *services.Services) *Handlers {
	return &Handlers{
		Inbox:    NewInboxHandler(log, repos, s.EmailProcessor, s.FileStore),
		Receipts: NewReceiptsHandler(log, repos, s.EmailProcessor, s.FixFlowService, s.FileStore),
		Senders:  NewSendersHandler(log, repos.AllowedSenderRepository),
		Settings: NewSettingsHandler(log, repos.SettingsRepository, s.IMAPPoller),
		Fix:      NewFixHandler(log, s.FixFlowService),
	}
}
