package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/wordbrowser/internal/adapter/kv/memory"
	"github.com/heartmarshall/wordbrowser/internal/adapter/kv/sqlite"
	postgres "github.com/heartmarshall/wordbrowser/internal/adapter/postgres"
	pgkv "github.com/heartmarshall/wordbrowser/internal/adapter/postgres/kv"
	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/service/browse"
)

// Storage is the snapshot key-value store plus a health probe.
type Storage interface {
	browse.KV
	Ping(ctx context.Context) error
}

// OpenStorage opens the backend selected by cfg.Storage.Driver. The returned
// close function releases it and is never nil.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; bookmarks are lost on restart")
		return memory.New(), func() {}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("sqlite storage opened", slog.String("path", cfg.Storage.SQLitePath))
		return store, func() { _ = store.Close() }, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		logger.Info("postgres storage connected", slog.Int("migrations_applied", applied))
		return pgkv.New(pool), pool.Close, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
