package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) (string, error)
	GetByID(ctx context.Context, id string) (*models.Receipt, error)
	GetByEditToken(ctx context.Context, token string) (*models.Receipt, error)
	List(ctx context.Context, limit, offset int) ([]*models.Receipt, int64, error)
	ListByInboundEmail(ctx context.Context, inboundEmailID string) ([]*models.Receipt, error)

	// ListNeedingFixNotification returns processed receipts with an uploader
	// email, no fix email sent yet, and at least one required field missing or
	// a date before the cutoff.
	ListNeedingFixNotification(ctx context.Context, cutoffDate string) ([]*models.Receipt, error)

	Update(ctx context.Context, receipt *models.Receipt) error
	UpdateStatus(ctx context.Context, id string, status enum.ReceiptStatus) error
	SetError(ctx context.Context, id string, detail string) error
	SetEditToken(ctx context.Context, id string, token string) error
	MarkFixEmailSent(ctx context.Context, id string) error

	// MarkFixEmailOpened stamps fix_email_opened_at only when it is still
	// unset; later opens keep the first timestamp.
	MarkFixEmailOpened(ctx context.Context, token string) error
	MarkFixCompleted(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error
	DeleteByInboundEmail(ctx context.Context, inboundEmailID string) ([]string, error)
}
