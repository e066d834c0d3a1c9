// Package kv re-exports the key-value abstractions and wraps the infra-backed
// drivers. Packages outside the kv tree depend on kv.Store only.
package kv

import (
	memorystore "fieldbook/internal/infra/kv/memory"
	"fieldbook/internal/kv/core"
)

type (
	// Driver identifies a key-value backend driver.
	Driver = core.Driver
	// Store is the interface every key-value backend implements.
	Store = core.Store
)

// Supported drivers.
const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverS3         = core.DriverS3
	DriverRedis      = core.DriverRedis
)

// Drivers lists every supported driver.
var Drivers = core.Drivers

// ErrEmptyKey is returned for blank keys.
var ErrEmptyKey = core.ErrEmptyKey

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }
