package service

import (
	"context"
	"fmt"

	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/adapters/repository/filestore"
	"github.com/okian/fantasyfamily/internal/adapters/repository/pgstore"
	"github.com/okian/fantasyfamily/internal/adapters/repository/sqlitestore"
	"github.com/okian/fantasyfamily/internal/config"
)

// OpenStore builds the persistence back-end selected by cfg.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreFile:
		return filestore.New(cfg.StorePath)
	case config.StoreSQLite:
		return sqlitestore.Open(ctx, cfg.StorePath)
	case config.StorePostgres:
		return pgstore.Connect(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// OptionsFromConfig maps configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithSaveDebounce(cfg.SaveDebounce()),
		WithQueueSize(cfg.SaveQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithCatalogFile(cfg.CatalogFile),
	}
}
