package interfaces

import (
	"context"

	"github.com/receiptops/receiptstack/dto"
)

// SettingsRepository is the injected provider for mutable runtime
// configuration. Callers re-read at the start of every poll cycle and at
// sender-authorization time rather than caching.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error

	// IMAPSettings assembles the polling contract, enforcing the poll
	// interval floor.
	IMAPSettings(ctx context.Context) (*dto.IMAPSettings, error)
}
