package kv

import (
	"context"
	"fmt"
)

// ProbeKey is written and removed once to check that a store accepts writes.
const ProbeKey = "fieldbook.__probe__"

// Probe performs one trial write, read and remove against store.
func Probe(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("no store configured")
	}
	if err := store.SetItem(ctx, ProbeKey, "1"); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	v, found, err := store.GetItem(ctx, ProbeKey)
	if err != nil {
		return fmt.Errorf("probe read: %w", err)
	}
	if !found || v != "1" {
		return fmt.Errorf("probe read: value not returned")
	}
	if err := store.RemoveItem(ctx, ProbeKey); err != nil {
		return fmt.Errorf("probe remove: %w", err)
	}
	return nil
}
