// Package persistence stores the record graph as one JSON document in a
// key-value store. It migrates older storage keys on first read and falls
// back to process memory when the configured store cannot be written.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"fieldbook/internal/kv"
	"fieldbook/internal/logging"
	"fieldbook/internal/normalize"
	"fieldbook/pkg/domain"
)

// CanonicalKey holds the current document format.
const CanonicalKey = "fieldbook.records.v2"

// LegacyKeys are read, newest first, when the canonical key is absent. The
// first holds a customers-only object, the second a bare customer array.
var LegacyKeys = []string{"fieldbook.records.v1", "fieldbook.customers"}

// Source says where a loaded graph came from.
type Source string

// Load sources.
const (
	SourceEmpty     Source = "empty"
	SourceCanonical Source = "canonical"
	SourceLegacy    Source = "legacy"
)

// ErrUnreadable marks a Load whose store read failed. Such a report says
// nothing about what is stored, unlike absence or corruption.
var ErrUnreadable = errors.New("persistence: store read failed")

// LoadReport describes a Load. Failed is set when stored data existed but
// could not be read or parsed; the graph returned alongside is then the empty
// default graph.
type LoadReport struct {
	Source   Source
	Key      string
	Failed   bool
	Migrated bool
	Err      error
}

// Unreadable reports whether the store itself failed during the Load. A
// graph loaded this way must not be written back.
func (r LoadReport) Unreadable() bool {
	return r.Failed && errors.Is(r.Err, ErrUnreadable)
}

// Adapter reads and writes the graph. It is safe for use by one caller at a
// time; internal/core serialises access.
type Adapter struct {
	store    kv.Store
	original kv.Store
	logger   logging.Logger
	degraded bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for fallbacks, corrupt documents and
// migrations.
func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) { a.logger = logging.OrNoop(l) }
}

// Open probes store with one trial write and remove. When the probe fails the
// adapter logs a warning and keeps everything in memory for its lifetime.
func Open(ctx context.Context, store kv.Store, opts ...Option) *Adapter {
	a := &Adapter{store: store, original: store, logger: logging.Noop{}}
	for _, opt := range opts {
		opt(a)
	}
	if err := kv.Probe(ctx, store); err != nil {
		driver := "none"
		if store != nil {
			driver = string(store.Driver())
		}
		a.logger.Warn("persistence: store unusable, falling back to memory", "driver", driver, "error", err)
		a.store = kv.NewMemory()
		a.degraded = true
	}
	return a
}

// Driver reports the driver actually in use.
func (a *Adapter) Driver() kv.Driver { return a.store.Driver() }

// Degraded reports whether the adapter fell back to memory.
func (a *Adapter) Degraded() bool { return a.degraded }

// Load returns the stored graph. It never fails: absence and corruption yield
// the empty default graph and are described by the report.
func (a *Adapter) Load(ctx context.Context) (domain.Graph, LoadReport) {
	raw, found, err := a.store.GetItem(ctx, CanonicalKey)
	if err != nil {
		a.logger.Warn("persistence: read failed", "key", CanonicalKey, "error", err)
		return domain.EmptyGraph(), LoadReport{Source: SourceEmpty, Key: CanonicalKey, Failed: true,
			Err: fmt.Errorf("%w: %s: %w", ErrUnreadable, CanonicalKey, err)}
	}
	if found {
		g, err := normalize.Decode([]byte(raw), normalize.WithLogger(a.logger))
		if err != nil {
			a.logger.Warn("persistence: stored document is corrupt", "key", CanonicalKey, "error", err)
			return g, LoadReport{Source: SourceEmpty, Key: CanonicalKey, Failed: true, Err: err}
		}
		return g, LoadReport{Source: SourceCanonical, Key: CanonicalKey}
	}

	var failures []error
	for _, key := range LegacyKeys {
		raw, found, err := a.store.GetItem(ctx, key)
		if err != nil {
			a.logger.Warn("persistence: read failed", "key", key, "error", err)
			failures = append(failures, fmt.Errorf("%w: %s: %w", ErrUnreadable, key, err))
			continue
		}
		if !found {
			continue
		}
		g, err := normalize.Decode([]byte(raw), normalize.WithLogger(a.logger))
		if err != nil {
			a.logger.Warn("persistence: legacy document is corrupt", "key", key, "error", err)
			failures = append(failures, err)
			continue
		}
		report := LoadReport{Source: SourceLegacy, Key: key}
		if err := a.write(ctx, g); err != nil {
			a.logger.Warn("persistence: migration write failed", "key", key, "error", err)
			report.Err = err
			return g, report
		}
		report.Migrated = true
		a.logger.Info("persistence: migrated legacy document", "from", key, "to", CanonicalKey,
			"customers", len(g.Customers))
		return g, report
	}
	if len(failures) > 0 {
		return domain.EmptyGraph(), LoadReport{Source: SourceEmpty, Failed: true, Err: errors.Join(failures...)}
	}
	return domain.EmptyGraph(), LoadReport{Source: SourceEmpty}
}

// Save re-normalizes g and writes it under the canonical key, then removes
// any legacy keys. A graph that cannot be encoded is refused before anything
// is written; otherwise only the canonical write can fail the call.
func (a *Adapter) Save(ctx context.Context, g domain.Graph) error {
	normalized, err := normalize.Graph(g, normalize.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("persistence: %w", err)
	}
	return a.write(ctx, normalized)
}

func (a *Adapter) write(ctx context.Context, g domain.Graph) error {
	raw, err := normalize.Encode(g)
	if err != nil {
		return err
	}
	if err := a.store.SetItem(ctx, CanonicalKey, string(raw)); err != nil {
		return fmt.Errorf("persistence: write %s: %w", CanonicalKey, err)
	}
	for _, key := range LegacyKeys {
		if err := a.store.RemoveItem(ctx, key); err != nil {
			a.logger.Warn("persistence: could not remove legacy key", "key", key, "error", err)
		}
	}
	return nil
}

// Close releases the configured store, including when the adapter fell back
// to memory.
func (a *Adapter) Close() error {
	var errs []error
	if a.degraded {
		errs = append(errs, a.store.Close())
	}
	if a.original != nil {
		errs = append(errs, a.original.Close())
	}
	return errors.Join(errs...)
}
