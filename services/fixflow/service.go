package fixflow

import (
	"context"
	"fmt"

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

var (
	ErrReceiptNotFound   = errors.New("receipt not found")
	ErrInvalidSubmission = errors.New("vendor, amount and date are required")
)

type fixFlowService struct {
	log         logger.Logger
	appConfig   *config.AppConfig
	receiptRepo interfaces.ReceiptRepository
	mailer      interfaces.MailerService
}

func NewFixFlowService(
	log logger.Logger,
	appConfig *config.AppConfig,
	receiptRepo interfaces.ReceiptRepository,
	mailerService interfaces.MailerService,
) interfaces.FixFlowService {
	return &fixFlowService{
		log:         log,
		appConfig:   appConfig,
		receiptRepo: receiptRepo,
		mailer:      mailerService,
	}
}

func (s *fixFlowService) EnsureEditToken(ctx context.Context, receiptID string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixFlowService.EnsureEditToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, receiptID)

	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if receipt == nil {
		return "", ErrReceiptNotFound
	}
	if receipt.EditToken != "" {
		return receipt.EditToken, nil
	}

	token := utils.GenerateEditToken()
	if err := s.receiptRepo.SetEditToken(ctx, receiptID, token); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return token, nil
}

func (s *fixFlowService) GetByToken(ctx context.Context, token string) (*dto.FixReceiptView, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixFlowService.GetByToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	receipt, err := s.receiptRepo.GetByEditToken(ctx, token)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if receipt == nil {
		return nil, nil
	}

	return &dto.FixReceiptView{
		ID:               receipt.ID,
		OriginalFilename: receipt.OriginalFilename,
		Vendor:           receipt.Vendor,
		Amount:           receipt.Amount,
		Date:             receipt.Date,
		Category:         receipt.Category,
		UploaderName:     receipt.UploaderName,
	}, nil
}

func (s *fixFlowService) SubmitFix(ctx context.Context, token string, fix dto.FixSubmission) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixFlowService.SubmitFix")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if fix.Vendor == "" || fix.Amount <= 0 || fix.Date == "" {
		return ErrInvalidSubmission
	}
	if fix.Category != "" && !enum.IsValidExpenseCategory(fix.Category) {
		return errors.Errorf("unknown category: %s", fix.Category)
	}

	receipt, err := s.receiptRepo.GetByEditToken(ctx, token)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if receipt == nil {
		return ErrReceiptNotFound
	}
	tracing.TagEntity(span, receipt.ID)

	receipt.Vendor = fix.Vendor
	receipt.Amount = fix.Amount
	receipt.Date = fix.Date
	if fix.Category != "" {
		receipt.Category = fix.Category
	}
	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	// Every valid submission moves the completion timestamp forward.
	if err := s.receiptRepo.MarkFixCompleted(ctx, receipt.ID); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("receipt %s fixed via edit token", receipt.ID)
	return nil
}

func (s *fixFlowService) TrackOpen(ctx context.Context, token string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixFlowService.TrackOpen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	// Tracking must never fail the pixel response.
	if err := s.receiptRepo.MarkFixEmailOpened(ctx, token); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to record fix email open: %v", err)
	}
}

func (s *fixFlowService) SendFixNotifications(ctx context.Context) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixFlowService.SendFixNotifications")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	receipts, err := s.receiptRepo.ListNeedingFixNotification(ctx, models.ReceiptDateCutoff)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	span.LogFields(olog.Int("candidates", len(receipts)))

	sent := 0
	for _, receipt := range receipts {
		if receipt.UploaderEmail == "" {
			continue
		}

		token := receipt.EditToken
		if token == "" {
			token, err = s.EnsureEditToken(ctx, receipt.ID)
			if err != nil {
				tracing.TraceErr(span, err)
				continue
			}
		}

		html := mailer.BuildFixNotificationHTML(
			s.appConfig.SiteURL,
			receipt.UploaderName,
			receipt.OriginalFilename,
			token,
			receipt.MissingFields(),
		)
		subject := fmt.Sprintf("Action needed: receipt %s", receipt.OriginalFilename)

		if err := s.mailer.Send(ctx, receipt.UploaderEmail, subject, html); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("failed to send fix notification for receipt %s: %v", receipt.ID, err)
			continue
		}

		if err := s.receiptRepo.MarkFixEmailSent(ctx, receipt.ID); err != nil {
			tracing.TraceErr(span, err)
		}
		sent++
	}

	s.log.Infof("fix notification sweep: %d candidates, %d sent", len(receipts), sent)
	return sent, nil
}
