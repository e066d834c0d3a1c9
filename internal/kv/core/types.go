// Package core defines the key-value contract that persistence backends
// implement. The persistence adapter only ever stores a handful of keys, each
// holding one serialized document.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory; nothing survives a restart.
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores keys in a single SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores keys in a single Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverRedis stores keys as Redis strings.
	DriverRedis Driver = "redis"
)

// Drivers lists every supported driver.
var Drivers = []Driver{DriverMemory, DriverFilesystem, DriverSQLite, DriverPostgres, DriverS3, DriverRedis}

// Store is a minimal string key-value store. A missing key is not an error:
// GetItem reports it through found and RemoveItem ignores it.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Driver() Driver
	Close() error
}

// ErrEmptyKey is returned for blank keys.
var ErrEmptyKey = errors.New("kv: empty key")
