package repository

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
)

type allowedSenderRepository struct {
	db *gorm.DB
}

func NewAllowedSenderRepository(db *gorm.DB) interfaces.AllowedSenderRepository {
	return &allowedSenderRepository{
		db: db,
	}
}

func (r *allowedSenderRepository) List(ctx context.Context) ([]*models.AllowedSender, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "allowedSenderRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var senders []*models.AllowedSender
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&senders).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return senders, nil
}

func (r *allowedSenderRepository) Add(ctx context.Context, email, name string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "allowedSenderRepository.Add")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	sender := &models.AllowedSender{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  name,
	}

	// Re-adding an existing address is a no-op.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(sender)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return "", result.Error
	}

	return sender.ID, nil
}

func (r *allowedSenderRepository) Remove(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "allowedSenderRepository.Remove")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AllowedSender{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *allowedSenderRepository) IsAllowed(ctx context.Context, email string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "allowedSenderRepository.IsAllowed")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AllowedSender{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}

	// Fail closed: no configured senders means nobody gets in.
	if count == 0 {
		span.SetTag("allow_list_empty", true)
		return false, nil
	}

	var matched int64
	err := r.db.WithContext(ctx).Model(&models.AllowedSender{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&matched).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}

	return matched > 0, nil
}
