package storage

import (
	"context"
	"fmt"

	"github.com/bookbuddy/storefront/pkg/config"
	"github.com/bookbuddy/storefront/pkg/logger"
)

// Open returns the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		store, err := OpenGorm(ctx, cfg.Storage.Driver, cfg.DB, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageDriverRedis:
		store, err := OpenRedis(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
