package kv

import (
	"context"
	"fmt"
	"strings"

	fsstore "fieldbook/internal/infra/kv/fs"
	pgstore "fieldbook/internal/infra/kv/postgres"
	redisstore "fieldbook/internal/infra/kv/redis"
	s3store "fieldbook/internal/infra/kv/s3"
	sqlitestore "fieldbook/internal/infra/kv/sqlite"
)

type (
	// S3Config re-exports the infra S3 configuration.
	S3Config = s3store.Config
	// RedisConfig re-exports the infra Redis configuration.
	RedisConfig = redisstore.Config
)

// Config selects and configures one driver.
type Config struct {
	Driver      Driver
	FSRoot      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
	Redis       RedisConfig
}

// Open constructs the Store named by cfg.Driver. An empty driver means the
// filesystem store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(cfg.Driver))))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverSQLite:
		return sqlitestore.New(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return pgstore.New(ctx, cfg.PostgresDSN)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverRedis:
		return redisstore.New(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown kv driver %s", cfg.Driver)
	}
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }
