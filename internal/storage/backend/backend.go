// Package backend picks the storage.Storage implementation named in the
// configuration. It lives apart from package storage so the concrete
// drivers can import storage without a cycle.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/postgres"
	"github.com/aanand-mishra/student-management/internal/storage/redisstore"
	"github.com/aanand-mishra/student-management/internal/storage/sqlite"
)

// Open connects to the configured backend, applying schema migrations
// where the backend has a schema.
func Open(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("backend: create storage dir: %w", err)
			}
		}
		return sqlite.New(cfg.Storage.Path)

	case config.DriverPostgres:
		return postgres.New(ctx, cfg.Storage.DSN)

	case config.DriverRedis:
		return redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})

	default:
		return nil, fmt.Errorf("backend: unknown storage driver %q", cfg.Storage.Driver)
	}
}
