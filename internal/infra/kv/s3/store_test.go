package s3

import (
	"context"
	"slices"
	"testing"

	"fieldbook/internal/kv/core"
	"fieldbook/internal/kv/kvtest"
)

func TestStoreContract(t *testing.T) {
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %v", store.Driver())
	}
	kvtest.Exercise(t, store)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestObjectNamesCarryPrefix(t *testing.T) {
	store, rt := newMock()
	ctx := context.Background()
	if err := store.SetItem(ctx, "fieldbook.records.v2", `{"customers":[]}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	keys := rt.keys()
	if !slices.Equal(keys, []string{"fieldbook/fieldbook.records.v2.json"}) {
		t.Fatalf("unexpected object keys %v", keys)
	}
}

func TestServerErrorsSurface(t *testing.T) {
	store, rt := newMock()
	rt.fail = true
	ctx := context.Background()
	if _, _, err := store.GetItem(ctx, "k"); err == nil {
		t.Fatalf("expected get error")
	}
	if err := store.SetItem(ctx, "k", "v"); err == nil {
		t.Fatalf("expected put error")
	}
	if err := store.RemoveItem(ctx, "k"); err == nil {
		t.Fatalf("expected delete error")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	store, err := New(context.Background(), Config{
		Bucket:          "records",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.bucket != "records" || store.prefix != "" {
		t.Fatalf("unexpected store config %+v", store)
	}
}

func TestDecodeChunked(t *testing.T) {
	body := []byte("5;chunk-signature=abc\r\nhello\r\n6\r\n world\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n")
	out, ok := decodeChunked(body)
	if !ok || string(out) != "hello world" {
		t.Fatalf("unexpected decode %q ok=%v", out, ok)
	}
	if _, ok := decodeChunked([]byte("zz\r\nhello")); ok {
		t.Fatalf("expected invalid hex to fail")
	}
	if _, ok := decodeChunked([]byte("ff\r\nshort\r\n")); ok {
		t.Fatalf("expected short chunk to fail")
	}
}
