// Package kvtest holds the behaviour every key-value driver must share, so each
// driver's tests can run the same checks against a live instance.
package kvtest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fieldbook/internal/kv/core"
)

// Exercise runs the shared contract against store. The store must start empty
// for the keys used here.
func Exercise(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := store.GetItem(ctx, "fieldbook.contract"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := store.RemoveItem(ctx, "fieldbook.contract"); err != nil {
		t.Fatalf("remove missing key: %v", err)
	}

	payload := `{"customers":[{"id":"c1","name":"Acme ✓"}]}`
	if err := store.SetItem(ctx, "fieldbook.contract", payload); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found, err := store.GetItem(ctx, "fieldbook.contract")
	if err != nil || !found {
		t.Fatalf("get after set: found=%v err=%v", found, err)
	}
	if got != payload {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}

	large := strings.Repeat("x", 256<<10)
	if err := store.SetItem(ctx, "fieldbook.contract", large); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, err = store.GetItem(ctx, "fieldbook.contract")
	if err != nil || got != large {
		t.Fatalf("overwrite not visible: len=%d err=%v", len(got), err)
	}

	if err := store.SetItem(ctx, "fieldbook.contract.other", ""); err != nil {
		t.Fatalf("set empty value: %v", err)
	}
	if v, found, err := store.GetItem(ctx, "fieldbook.contract.other"); err != nil || !found || v != "" {
		t.Fatalf("empty value should be stored: %q found=%v err=%v", v, found, err)
	}

	if err := store.RemoveItem(ctx, "fieldbook.contract"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, found, err := store.GetItem(ctx, "fieldbook.contract"); err != nil || found {
		t.Fatalf("expected key gone, found=%v err=%v", found, err)
	}
	if _, found, _ := store.GetItem(ctx, "fieldbook.contract.other"); !found {
		t.Fatalf("removing one key must not touch another")
	}
	_ = store.RemoveItem(ctx, "fieldbook.contract.other")

	if err := store.SetItem(ctx, "  ", "x"); !errors.Is(err, core.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
