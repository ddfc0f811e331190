package input

import (
	"context"

	"marketplace-e2e/internal/domain/entity"
)

type WalletCacheProvisioner interface {
	EnsureWalletCache(ctx context.Context, cfg entity.WalletSetupConfig) (*entity.CachedProfile, error)
}
