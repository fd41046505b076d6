package services

import (
	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/filestore"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/repository"
	"github.com/receiptops/receiptstack/services/ai"
	"github.com/receiptops/receiptstack/services/fixflow"
	"github.com/receiptops/receiptstack/services/imap"
	"github.com/receiptops/receiptstack/services/mailer"
	"github.com/receiptops/receiptstack/services/processor"
	"github.com/receiptops/receiptstack/services/storage"
	"github.com/receiptops/receiptstack/services/storage/aws_client"
)

type Services struct {
	AIService      interfaces.AIService
	FileStore      interfaces.FileStore
	StorageSync    interfaces.StorageSyncService
	MailerService  interfaces.MailerService
	FixFlowService interfaces.FixFlowService
	EmailProcessor interfaces.EmailProcessor
	IMAPPoller     interfaces.IMAPPoller
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	fileStore, err := filestore.NewLocalFileStore(cfg.AppConfig.UploadDir)
	if err != nil {
		return nil, err
	}

	s3Client := aws_client.NewS3Client(cfg.S3StorageConfig)
	storageSync := storage.NewStorageSyncService(s3Client, fileStore, cfg.S3StorageConfig)

	aiService := ai.NewAIService(cfg.AnalysisAPIConfig)
	mailerService := mailer.NewMailerService(cfg.SMTPOutConfig)
	fixFlowService := fixflow.NewFixFlowService(log, cfg.AppConfig, repos.ReceiptRepository, mailerService)

	emailProcessor := processor.NewEmailProcessor(
		log,
		cfg.AppConfig,
		repos.InboundEmailRepository,
		repos.ReceiptRepository,
		aiService,
		fileStore,
		storageSync,
		mailerService,
		fixFlowService,
	)

	imapPoller := imap.NewIMAPPoller(log, repos.SettingsRepository, repos.AllowedSenderRepository, emailProcessor)

	return &Services{
		AIService:      aiService,
		FileStore:      fileStore,
		StorageSync:    storageSync,
		MailerService:  mailerService,
		FixFlowService: fixFlowService,
		EmailProcessor: emailProcessor,
		IMAPPoller:     imapPoller,
	}, nil
}
