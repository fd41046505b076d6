package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
)

// FileStore persists raw attachment bytes under opaque stored filenames.
type FileStore interface {
	Save(filename string, content []byte) error
	Read(filename string) ([]byte, error)
	Delete(filename string) error
}

// StorageSyncService mirrors a stored receipt file to the object-storage
// target under a logical path built from its extracted fields. Syncing the
// same receipt twice reports already_exists instead of duplicating.
type StorageSyncService interface {
	SyncReceipt(ctx context.Context, receipt *models.Receipt) (enum.SyncResult, error)
}
