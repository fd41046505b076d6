package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
)

// MinPollInterval is the floor for the IMAP poll interval.
const MinPollInterval = 30 * time.Second

const defaultPollInterval = 60 * time.Second

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) interfaces.SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.Get")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var setting models.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		tracing.TraceErr(span, err)
		return "", err
	}
	return setting.Value, nil
}

func (r *settingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var settings []models.Setting
	if err := r.db.WithContext(ctx).Find(&settings).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.Set")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	setting := &models.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *settingsRepository) IMAPSettings(ctx context.Context) (*dto.IMAPSettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.IMAPSettings")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	settings := &dto.IMAPSettings{
		Host:         all[models.SettingIMAPHost],
		Username:     all[models.SettingIMAPUsername],
		Password:     all[models.SettingIMAPPassword],
		Mailbox:      all[models.SettingIMAPMailbox],
		Port:         993,
		PollInterval: defaultPollInterval,
	}

	if settings.Mailbox == "" {
		settings.Mailbox = "INBOX"
	}
	if port, err := strconv.Atoi(all[models.SettingIMAPPort]); err == nil && port > 0 {
		settings.Port = port
	}
	if seconds, err := strconv.Atoi(all[models.SettingIMAPPollInterval]); err == nil && seconds > 0 {
		settings.PollInterval = time.Duration(seconds) * time.Second
	}
	if settings.PollInterval < MinPollInterval {
		settings.PollInterval = MinPollInterval
	}

	return settings, nil
}
