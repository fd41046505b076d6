package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/internal/utils"
)

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) interfaces.ReceiptRepository {
	return &receiptRepository{
		db: db,
	}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *models.Receipt) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if receipt == nil {
		return "", nil
	}

	result := r.db.WithContext(ctx).Create(receipt)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return "", result.Error
	}

	return receipt.ID, nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var receipt models.Receipt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetByEditToken(ctx context.Context, token string) (*models.Receipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.GetByEditToken")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if token == "" {
		return nil, nil
	}

	var receipt models.Receipt
	if err := r.db.WithContext(ctx).Where("edit_token = ?", token).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) List(ctx context.Context, limit, offset int) ([]*models.Receipt, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var receipts []*models.Receipt
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Receipt{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&receipts).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) ListByInboundEmail(ctx context.Context, inboundEmailID string) ([]*models.Receipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.ListByInboundEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var receipts []*models.Receipt
	if err := r.db.WithContext(ctx).
		Where("inbound_email_id = ?", inboundEmailID).
		Order("created_at ASC").
		Find(&receipts).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) ListNeedingFixNotification(ctx context.Context, cutoffDate string) ([]*models.Receipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.ListNeedingFixNotification")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var receipts []*models.Receipt
	if err := r.db.WithContext(ctx).
		Where("status = ?", enum.ReceiptStatusProcessed).
		Where("fix_email_sent = ?", false).
		Where("uploader_email <> ''").
		Where("vendor = '' OR amount = 0 OR date = '' OR date < ?", cutoffDate).
		Order("created_at DESC").
		Find(&receipts).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) Update(ctx context.Context, receipt *models.Receipt) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, receipt.ID)

	err := r.db.WithContext(ctx).Save(receipt).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) UpdateStatus(ctx context.Context, id string, status enum.ReceiptStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) SetError(ctx context.Context, id string, detail string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.SetError")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   enum.ReceiptStatusError,
			"raw_text": detail,
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) SetEditToken(ctx context.Context, id string, token string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.SetEditToken")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ?", id).
		Update("edit_token", token).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) MarkFixEmailSent(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.MarkFixEmailSent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ?", id).
		Update("fix_email_sent", true).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) MarkFixEmailOpened(ctx context.Context, token string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.MarkFixEmailOpened")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// Only the first open counts.
	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("edit_token = ? AND fix_email_opened_at IS NULL", token).
		Update("fix_email_opened_at", utils.NowPtr()).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) MarkFixCompleted(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.MarkFixCompleted")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ?", id).
		Update("fix_completed_at", utils.NowPtr()).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Receipt{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *receiptRepository) DeleteByInboundEmail(ctx context.Context, inboundEmailID string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "receiptRepository.DeleteByInboundEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	receipts, err := r.ListByInboundEmail(ctx, inboundEmailID)
	if err != nil {
		return nil, err
	}

	filenames := make([]string, 0, len(receipts))
	for _, receipt := range receipts {
		filenames = append(filenames, receipt.Filename)
	}

	if err := r.db.WithContext(ctx).
		Where("inbound_email_id = ?", inboundEmailID).
		Delete(&models.Receipt{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return filenames, nil
}
