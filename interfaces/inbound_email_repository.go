package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
)

type InboundEmailRepository interface {
	Create(ctx context.Context, email *models.InboundEmail) (string, error)
	GetByID(ctx context.Context, id string) (*models.InboundEmail, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.InboundEmail, error)
	List(ctx context.Context, limit, offset int) ([]*models.InboundEmail, int64, error)
	UpdateStatus(ctx context.Context, id string, status enum.InboundEmailStatus) error
	MarkProcessed(ctx context.Context, id string, status enum.InboundEmailStatus, replySent bool, errorMessage string) error
	SetReplySent(ctx context.Context, id string, sent bool) error
	Delete(ctx context.Context, id string) error
}
