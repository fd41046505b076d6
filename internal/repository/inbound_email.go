package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/internal/utils"
)

type inboundEmailRepository struct {
	db *gorm.DB
}

func NewInboundEmailRepository(db *gorm.DB) interfaces.InboundEmailRepository {
	return &inboundEmailRepository{
		db: db,
	}
}

func (r *inboundEmailRepository) Create(ctx context.Context, email *models.InboundEmail) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if email == nil {
		return "", nil
	}

	if email.MessageID != nil {
		normalized := utils.NormalizeMessageID(*email.MessageID)
		if normalized == "" {
			email.MessageID = nil
		} else {
			email.MessageID = &normalized
		}
	}
	email.BodyText = utils.Truncate(email.BodyText, models.MaxStoredBodyLength)

	// The unique index on message_id closes the check-then-insert race between
	// the SMTP and IMAP intake paths: the loser of the race inserts nothing and
	// gets an empty id back.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(email)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		span.SetTag("duplicate", true)
		return "", nil
	}

	return email.ID, nil
}

func (r *inboundEmailRepository) GetByID(ctx context.Context, id string) (*models.InboundEmail, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var email models.InboundEmail
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

func (r *inboundEmailRepository) GetByMessageID(ctx context.Context, messageID string) (*models.InboundEmail, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.GetByMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	messageID = utils.NormalizeMessageID(messageID)
	if messageID == "" {
		return nil, nil
	}

	var email models.InboundEmail
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

func (r *inboundEmailRepository) List(ctx context.Context, limit, offset int) ([]*models.InboundEmail, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var emails []*models.InboundEmail
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.InboundEmail{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return emails, count, nil
}

func (r *inboundEmailRepository) UpdateStatus(ctx context.Context, id string, status enum.InboundEmailStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	err := r.db.WithContext(ctx).Model(&models.InboundEmail{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *inboundEmailRepository) MarkProcessed(ctx context.Context, id string, status enum.InboundEmailStatus, replySent bool, errorMessage string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.MarkProcessed")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	updates := map[string]interface{}{
		"status":        status,
		"reply_sent":    replySent,
		"processed_at":  utils.NowPtr(),
		"error_message": errorMessage,
	}

	err := r.db.WithContext(ctx).Model(&models.InboundEmail{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *inboundEmailRepository) SetReplySent(ctx context.Context, id string, sent bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.SetReplySent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.InboundEmail{}).
		Where("id = ?", id).
		Update("reply_sent", sent).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *inboundEmailRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboundEmailRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InboundEmail{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
