package main

import (
	"context"
	"fmt"

	"github.com/hostelmart/hostelmart-backend/internal/storage"
	"github.com/hostelmart/hostelmart-backend/internal/storage/filestore"
	"github.com/hostelmart/hostelmart-backend/internal/storage/redisstore"
	"github.com/hostelmart/hostelmart-backend/internal/storage/sqlstore"
	"github.com/hostelmart/hostelmart-backend/pkg/config"
	"github.com/hostelmart/hostelmart-backend/pkg/db"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/migrate"
	"github.com/hostelmart/hostelmart-backend/pkg/redis"
)

// openBackend connects the configured snapshot store. The returned backend
// owns its client and releases it on Close.
func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Backend, error) {
	ctx = logg.WithField(ctx, "backend", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.BackendFile:
		store, err := filestore.New(cfg.Storage.FilePath)
		if err != nil {
			return nil, err
		}
		logg.Info(logg.WithField(ctx, "path", cfg.Storage.FilePath), "storage.ready")
		return store, nil

	case config.BackendPostgres, config.BackendSQLite:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("dev migrations: %w", err)
		}
		store, err := sqlstore.New(client, sqlstore.DefaultSnapshotID)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ensure snapshot schema: %w", err)
		}
		revision, err := store.Revision(ctx)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("read snapshot revision: %w", err)
		}
		logg.Info(logg.WithField(ctx, "revision", revision), "storage.ready")
		return store, nil

	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		store, err := redisstore.New(client, cfg.Redis.SnapshotLockTTL)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		logg.Info(ctx, "storage.ready")
		return store, nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}
