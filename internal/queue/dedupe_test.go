package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AthbiHC/mobasher/internal/config"
)

func newTestDedupe(t *testing.T) *Dedupe {
	t.Helper()
	cfg := &config.DedupeConfig{
		Path:           filepath.Join(t.TempDir(), "dedupe"),
		DefaultTTL:     time.Minute,
		GCIntervalMins: 60,
	}
	d, err := NewDedupe(cfg)
	if err != nil {
		t.Fatalf("NewDedupe() error = %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSetIfAbsentFirstCallSets(t *testing.T) {
	d := newTestDedupe(t)
	ctx := context.Background()

	ok, err := d.SetIfAbsent(ctx, "asr:queued:seg-1:2026-03-01T00:00:00Z", time.Minute)
	if err != nil {
		t.Fatalf("SetIfAbsent() error = %v", err)
	}
	if !ok {
		t.Fatal("expected first SetIfAbsent to return true")
	}
}

func TestSetIfAbsentSecondCallIsNoOp(t *testing.T) {
	d := newTestDedupe(t)
	ctx := context.Background()
	key := "asr:queued:seg-2:2026-03-01T00:00:00Z"

	if _, err := d.SetIfAbsent(ctx, key, time.Minute); err != nil {
		t.Fatalf("first SetIfAbsent() error = %v", err)
	}
	ok, err := d.SetIfAbsent(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("second SetIfAbsent() error = %v", err)
	}
	if ok {
		t.Fatal("expected second SetIfAbsent to return false while key is unexpired")
	}
}

func TestSetIfAbsentResetsAfterTTL(t *testing.T) {
	d := newTestDedupe(t)
	ctx := context.Background()
	key := "asr:queued:seg-3:2026-03-01T00:00:00Z"

	if _, err := d.SetIfAbsent(ctx, key, 50*time.Millisecond); err != nil {
		t.Fatalf("first SetIfAbsent() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	ok, err := d.SetIfAbsent(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("SetIfAbsent() after expiry error = %v", err)
	}
	if !ok {
		t.Fatal("expected SetIfAbsent to return true once the prior TTL has expired")
	}
}

func TestSetIfAbsentDistinctKeysAreIndependent(t *testing.T) {
	d := newTestDedupe(t)
	ctx := context.Background()

	okA, err := d.SetIfAbsent(ctx, "asr:queued:seg-a:2026-03-01T00:00:00Z", time.Minute)
	if err != nil {
		t.Fatalf("SetIfAbsent(a) error = %v", err)
	}
	okB, err := d.SetIfAbsent(ctx, "asr:queued:seg-b:2026-03-01T00:00:00Z", time.Minute)
	if err != nil {
		t.Fatalf("SetIfAbsent(b) error = %v", err)
	}
	if !okA || !okB {
		t.Fatalf("expected both distinct keys to be set: okA=%v okB=%v", okA, okB)
	}
}
