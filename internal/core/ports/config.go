package ports

import (
	"context"

	"github.com/proveloce/connect/internal/core/domain"
)

// ConfigRepository persists the global configuration map.
type ConfigRepository interface {
	Upsert(ctx context.Context, entry domain.ConfigEntry) error
	Get(ctx context.Context, key string) (*domain.ConfigEntry, error)
	All(ctx context.Context) ([]domain.ConfigEntry, error)
}

// ConfigCache is the hot tier backing the 1-second polling endpoint, so the
// fast poll never touches the primary store.
type ConfigCache interface {
	GetLive(ctx context.Context) (map[string]string, error)
	SetLive(ctx context.Context, values map[string]string) error
	// BumpVersion advances the marker observed by polling clients.
	BumpVersion(ctx context.Context) (int64, error)
	Version(ctx context.Context) (int64, error)
}

// ConfigService serves both configuration tiers and gates writes.
type ConfigService interface {
	// Public returns the full configuration map (the slow tier).
	Public(ctx context.Context) (map[string]string, error)
	// Live returns the hot-key subset (the fast tier), cache-backed.
	Live(ctx context.Context) (map[string]string, error)
	// LiveVersion reports the current change marker for the fast tier.
	LiveVersion(ctx context.Context) (int64, error)
	// Update overwrites one key. Restricted to superadmin.
	Update(ctx context.Context, actor domain.AuthContext, key, value, category string) error
	// Seed writes default entries for any missing well-known keys.
	Seed(ctx context.Context) error
}
