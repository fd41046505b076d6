package processor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	olog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/internal/utils"
	"github.com/receiptops/receiptstack/services/mailer"
)

// analyzableMediaTypes is the attachment allow-list. Anything else in the
// message is silently ignored.
var analyzableMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// reprocessDelay spaces sequential re-analysis calls to stay under the
// analysis API rate limits.
const reprocessDelay = time.Second

type emailProcessor struct {
	log              logger.Logger
	appConfig        *config.AppConfig
	inboundEmailRepo interfaces.InboundEmailRepository
	receiptRepo      interfaces.ReceiptRepository
	ai               interfaces.AIService
	fileStore        interfaces.FileStore
	storageSync      interfaces.StorageSyncService
	mailer           interfaces.MailerService
	fixFlow          interfaces.FixFlowService
}

func NewEmailProcessor(
	log logger.Logger,
	appConfig *config.AppConfig,
	inboundEmailRepo interfaces.InboundEmailRepository,
	receiptRepo interfaces.ReceiptRepository,
	aiService interfaces.AIService,
	fileStore interfaces.FileStore,
	storageSync interfaces.StorageSyncService,
	mailerService interfaces.MailerService,
	fixFlow interfaces.FixFlowService,
) interfaces.EmailProcessor {
	return &emailProcessor{
		log:              log,
		appConfig:        appConfig,
		inboundEmailRepo: inboundEmailRepo,
		receiptRepo:      receiptRepo,
		ai:               aiService,
		fileStore:        fileStore,
		storageSync:      storageSync,
		mailer:           mailerService,
		fixFlow:          fixFlow,
	}
}

func (p *emailProcessor) ProcessEmail(ctx context.Context, msg *dto.InboundMessage) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailProcessor.ProcessEmail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(olog.String("from", msg.FromAddress), olog.String("subject", msg.Subject))

	// Dedup on Message-ID. Messages without one are always processed.
	var messageID *string
	if msg.MessageID != "" {
		existing, lookupErr := p.inboundEmailRepo.GetByMessageID(ctx, msg.MessageID)
		if lookupErr != nil {
			tracing.TraceErr(span, lookupErr)
			return lookupErr
		}
		if existing != nil {
			p.log.Infof("duplicate message %s from %s, skipping", msg.MessageID, msg.FromAddress)
			span.LogFields(olog.String("result", "duplicate"))
			return nil
		}
		messageID = utils.ToPtr(msg.MessageID)
	}

	attachments := filterAnalyzable(msg.Attachments)

	email := &models.InboundEmail{
		MessageID:       messageID,
		FromAddress:     msg.FromAddress,
		FromName:        msg.FromName,
		ToAddress:       msg.ToAddress,
		Subject:         msg.Subject,
		BodyText:        msg.BodyText,
		AttachmentCount: len(attachments),
	}
	emailID, err := p.inboundEmailRepo.Create(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if emailID == "" {
		// Lost the insert race to the other intake path.
		p.log.Infof("duplicate message %s from %s, skipping", msg.MessageID, msg.FromAddress)
		span.LogFields(olog.String("result", "duplicate"))
		return nil
	}
	tracing.TagEntity(span, emailID)

	// Once the record exists, a pipeline-level failure must not strand it in a
	// non-terminal status.
	defer func() {
		if err != nil {
			p.markEmailError(ctx, emailID, err)
		}
	}()

	if len(attachments) == 0 {
		replySent := p.sendReply(ctx, msg, mailer.BuildNoAttachmentReplyHTML())
		return p.inboundEmailRepo.MarkProcessed(ctx, emailID, enum.InboundEmailStatusNoAttachments, replySent, "")
	}

	if err = p.inboundEmailRepo.UpdateStatus(ctx, emailID, enum.InboundEmailStatusProcessing); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	var processed []mailer.ProcessedRow
	var fixes []mailer.FixRow

	// Attachments are handled one at a time: a failure on one never blocks
	// the rest, it just drops that receipt out of the reply.
	for _, attachment := range attachments {
		receipt, err := p.processAttachment(ctx, emailID, msg, attachment)
		if err != nil {
			tracing.TraceErr(span, err)
			p.log.Errorf("attachment %q failed: %v", attachment.Filename, err)
			continue
		}

		if receipt.IsComplete() {
			processed = append(processed, mailer.ProcessedRow{
				OriginalFilename: receipt.OriginalFilename,
				Vendor:           receipt.Vendor,
				Amount:           receipt.Amount,
				Date:             receipt.Date,
				Category:         receipt.Category,
			})
			continue
		}

		token, err := p.fixFlow.EnsureEditToken(ctx, receipt.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			p.log.Errorf("failed to mint edit token for receipt %s: %v", receipt.ID, err)
			continue
		}
		fixes = append(fixes, mailer.FixRow{
			OriginalFilename: receipt.OriginalFilename,
			Vendor:           receipt.Vendor,
			Amount:           receipt.Amount,
			Date:             receipt.Date,
			Token:            token,
		})
	}

	var html string
	switch {
	case len(processed) > 0 && len(fixes) > 0:
		html = mailer.BuildMixedReplyHTML(p.appConfig.SiteURL, processed, fixes)
	case len(fixes) > 0:
		html = mailer.BuildFixReplyHTML(p.appConfig.SiteURL, fixes)
	case len(processed) > 0:
		html = mailer.BuildSuccessReplyHTML(p.appConfig.SiteURL, processed)
	}

	replySent := false
	if html != "" {
		replySent = p.sendReply(ctx, msg, html)
	}

	p.log.Infof("email %s processed: %d ok, %d need fixing, reply sent %t",
		emailID, len(processed), len(fixes), replySent)

	return p.inboundEmailRepo.MarkProcessed(ctx, emailID, enum.InboundEmailStatusProcessed, replySent, "")
}

func (p *emailProcessor) processAttachment(ctx context.Context, emailID string, msg *dto.InboundMessage, attachment dto.AttachmentPart) (*models.Receipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailProcessor.processAttachment")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(olog.String("filename", attachment.Filename), olog.String("contentType", attachment.ContentType))

	ext := utils.GetFileExtensionFromContentType(attachment.ContentType)
	storedFilename := uuid.NewString() + ext
	if err := p.fileStore.Save(storedFilename, attachment.Content); err != nil {
		return nil, errors.Wrap(err, "failed to store attachment")
	}

	originalFilename := attachment.Filename
	if originalFilename == "" {
		originalFilename = "receipt" + ext
	}

	receipt := &models.Receipt{
		Filename:         storedFilename,
		OriginalFilename: originalFilename,
		UploaderName:     msg.FromName,
		UploaderEmail:    msg.FromAddress,
		InboundEmailID:   &emailID,
	}
	receiptID, err := p.receiptRepo.Create(ctx, receipt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create receipt record")
	}
	tracing.TagEntity(span, receiptID)

	if err := p.analyzeReceipt(ctx, receipt, attachment.Content, attachment.ContentType); err != nil {
		return nil, err
	}

	p.syncReceipt(ctx, span, receipt)

	return receipt, nil
}

// analyzeReceipt runs one receipt through the analysis API and persists the
// outcome. Analysis failures park the receipt in error state with the detail
// recorded, ready for a later reprocess.
func (p *emailProcessor) analyzeReceipt(ctx context.Context, receipt *models.Receipt, content []byte, mediaType string) error {
	if err := p.receiptRepo.UpdateStatus(ctx, receipt.ID, enum.ReceiptStatusProcessing); err != nil {
		return err
	}

	analysis, err := p.ai.AnalyzeReceipt(ctx, content, mediaType)
	if err != nil {
		if repoErr := p.receiptRepo.SetError(ctx, receipt.ID, "Processing error: "+err.Error()); repoErr != nil {
			p.log.Errorf("failed to record receipt error for %s: %v", receipt.ID, repoErr)
		}
		return errors.Wrap(err, "analysis failed")
	}

	applyAnalysis(receipt, analysis)
	receipt.Status = enum.ReceiptStatusProcessed
	receipt.ProcessedAt = utils.NowPtr()

	if err := p.receiptRepo.Update(ctx, receipt); err != nil {
		return errors.Wrap(err, "failed to persist analysis result")
	}
	return nil
}

// markEmailError parks the record in the error state with the failure detail,
// so operators can find it through the admin API and retry with a reprocess.
func (p *emailProcessor) markEmailError(ctx context.Context, emailID string, cause error) {
	if repoErr := p.inboundEmailRepo.MarkProcessed(ctx, emailID, enum.InboundEmailStatusError, false, cause.Error()); repoErr != nil {
		p.log.Errorf("failed to record error state for email %s: %v", emailID, repoErr)
	}
}

// syncReceipt mirrors the file to object storage. Sync failures are logged,
// never fatal: the receipt data is already safe in the database.
func (p *emailProcessor) syncReceipt(ctx context.Context, span opentracing.Span, receipt *models.Receipt) {
	result, err := p.storageSync.SyncReceipt(ctx, receipt)
	if err != nil {
		tracing.TraceErr(span, err)
		p.log.Warnf("storage sync failed for receipt %s: %v", receipt.ID, err)
		return
	}
	span.LogFields(olog.String("syncResult", result.String()))
}

func (p *emailProcessor) ReprocessInboundEmail(ctx context.Context, inboundEmailID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailProcessor.ReprocessInboundEmail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, inboundEmailID)

	email, err := p.inboundEmailRepo.GetByID(ctx, inboundEmailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if email == nil {
		return errors.New("inbound email not found")
	}

	receipts, err := p.receiptRepo.ListByInboundEmail(ctx, inboundEmailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(receipts) == 0 {
		return errors.New("no receipts linked to this email")
	}

	if err := p.inboundEmailRepo.UpdateStatus(ctx, inboundEmailID, enum.InboundEmailStatusProcessing); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	for _, receipt := range receipts {
		if err := p.reprocessReceipt(ctx, receipt); err != nil {
			tracing.TraceErr(span, err)
			p.log.Errorf("reprocess failed for receipt %s: %v", receipt.ID, err)
		}
	}

	return p.inboundEmailRepo.MarkProcessed(ctx, inboundEmailID, enum.InboundEmailStatusProcessed, email.ReplySent, "")
}

func (p *emailProcessor) ReprocessReceipts(ctx context.Context, receiptIDs []string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailProcessor.ReprocessReceipts")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(olog.Int("count", len(receiptIDs)))

	for i, id := range receiptIDs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reprocessDelay):
			}
		}

		receipt, err := p.receiptRepo.GetByID(ctx, id)
		if err != nil {
			tracing.TraceErr(span, err)
			continue
		}
		if receipt == nil {
			p.log.Warnf("receipt %s not found, skipping reprocess", id)
			continue
		}

		if err := p.reprocessReceipt(ctx, receipt); err != nil {
			tracing.TraceErr(span, err)
			p.log.Errorf("reprocess failed for receipt %s: %v", id, err)
		}
	}
	return nil
}

// reprocessReceipt re-analyzes the stored file for an existing receipt.
func (p *emailProcessor) reprocessReceipt(ctx context.Context, receipt *models.Receipt) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailProcessor.reprocessReceipt")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, receipt.ID)

	content, err := p.fileStore.Read(receipt.Filename)
	if err != nil {
		if repoErr := p.receiptRepo.SetError(ctx, receipt.ID, "Reprocess error: "+err.Error()); repoErr != nil {
			p.log.Errorf("failed to record receipt error for %s: %v", receipt.ID, repoErr)
		}
		return errors.Wrap(err, "failed to read stored file")
	}

	mediaType := mediaTypeForStoredFile(receipt.Filename)
	if err := p.analyzeReceipt(ctx, receipt, content, mediaType); err != nil {
		return err
	}

	p.syncReceipt(ctx, span, receipt)
	return nil
}

func applyAnalysis(receipt *models.Receipt, analysis *dto.ReceiptAnalysis) {
	receipt.Vendor = analysis.Vendor
	receipt.Amount = analysis.Amount
	receipt.Currency = analysis.Currency
	if receipt.Currency == "" {
		receipt.Currency = "USD"
	}
	receipt.Date = analysis.Date
	receipt.Category = analysis.Category
	receipt.Description = analysis.Description
	receipt.PaymentMethod = analysis.PaymentMethod
	receipt.RawText = analysis.RawText
}

func (p *emailProcessor) sendReply(ctx context.Context, msg *dto.InboundMessage, html string) bool {
	inReplyTo := ""
	if msg.MessageID != "" {
		inReplyTo = "<" + msg.MessageID + ">"
	}
	if err := p.mailer.SendReply(ctx, msg.FromAddress, msg.Subject, inReplyTo, html); err != nil {
		p.log.Warnf("failed to send reply to %s: %v", msg.FromAddress, err)
		return false
	}
	return true
}

func filterAnalyzable(attachments []dto.AttachmentPart) []dto.AttachmentPart {
	var out []dto.AttachmentPart
	for _, attachment := range attachments {
		for _, mediaType := range analyzableMediaTypes {
			if strings.HasPrefix(attachment.ContentType, mediaType) {
				out = append(out, attachment)
				break
			}
		}
	}
	return out
}

func mediaTypeForStoredFile(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
