package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/internal/models"
)

type AllowedSenderRepository interface {
	List(ctx context.Context) ([]*models.AllowedSender, error)
	Add(ctx context.Context, email, name string) (string, error)
	Remove(ctx context.Context, id string) error

	// IsAllowed is fail-closed: an empty allow-list rejects every sender.
	// Matching is case-insensitive.
	IsAllowed(ctx context.Context, email string) (bool, error)
}
