package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"saber/config"
	"saber/internal/pkg/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.Store{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "accounting.db"),
		MaxOpenConns: 1,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRecordProcessedFile_CompareAndSet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if err := c.RecordProcessedFile(ctx, "250718.out", "aaaa", 10); err != nil {
		t.Fatalf("first record: %v", err)
	}
	done, err := c.IsFileProcessed(ctx, "250718.out", "aaaa")
	if err != nil || !done {
		t.Fatalf("expected processed=true, got %v err=%v", done, err)
	}

	// Same (filename, checksum) pair: the CAS loser must see ErrDuplicateEntry.
	err = c.RecordProcessedFile(ctx, "250718.out", "aaaa", 10)
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	// Changed content means a new checksum and a distinct entry.
	if err := c.RecordProcessedFile(ctx, "250718.out", "bbbb", 12); err != nil {
		t.Fatalf("new checksum must be a new entry: %v", err)
	}
	// Same content under another name is also distinct, scoped by path.
	if err := c.RecordProcessedFile(ctx, "copy.out", "aaaa", 10); err != nil {
		t.Fatalf("same checksum under new name must be a new entry: %v", err)
	}

	done, err = c.IsFileProcessed(ctx, "250718.out", "cccc")
	if err != nil || done {
		t.Fatalf("unknown checksum must not be processed, got %v err=%v", done, err)
	}
}

func TestApplyQuotaUsage_UpsertIncrement(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if err := c.ApplyQuotaUsage(ctx, "ai_lab", model.ResourceGPU, "2025-07", 60); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := c.ApplyQuotaUsage(ctx, "ai_lab", model.ResourceGPU, "2025-07", 50); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	q, err := c.GetQuota(ctx, "ai_lab", model.ResourceGPU, "2025-07")
	if err != nil {
		t.Fatalf("GetQuota: %v", err)
	}
	if q == nil || q.ConsumedHours != 110 {
		t.Fatalf("consumed expected 110, got %+v", q)
	}
	if q.LimitSet {
		t.Error("usage-created row must not report an administered limit")
	}

	// Administering a limit must not disturb accumulated consumption.
	if err := c.SetQuotaLimit(ctx, "ai_lab", model.ResourceGPU, "2025-07", 100); err != nil {
		t.Fatalf("SetQuotaLimit: %v", err)
	}
	q, err = c.GetQuota(ctx, "ai_lab", model.ResourceGPU, "2025-07")
	if err != nil {
		t.Fatalf("GetQuota: %v", err)
	}
	if q.LimitHours != 100 || q.ConsumedHours != 110 {
		t.Errorf("expected limit=100 consumed=110, got %+v", q)
	}
	if !q.LimitSet {
		t.Error("administering a limit must mark the row limit_set")
	}

	// Distinct periods are distinct keys.
	if err := c.ApplyQuotaUsage(ctx, "ai_lab", model.ResourceGPU, "2025-08", 5); err != nil {
		t.Fatalf("apply other period: %v", err)
	}
	q, _ = c.GetQuota(ctx, "ai_lab", model.ResourceGPU, "2025-08")
	if q == nil || q.ConsumedHours != 5 {
		t.Errorf("other period expected consumed=5, got %+v", q)
	}
}

func TestEnsureWallet_Idempotent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	w1, err := c.EnsureWallet(ctx, "cfd")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	w2, err := c.EnsureWallet(ctx, "cfd")
	if err != nil {
		t.Fatalf("EnsureWallet again: %v", err)
	}
	if w1.ID != w2.ID {
		t.Errorf("expected same wallet row, got ids %d and %d", w1.ID, w2.ID)
	}
	if !w2.Active {
		t.Error("auto-created wallet should be active")
	}
}

func TestGetTopByHours_RejectsUnknownDimension(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.GetTopByHours(context.Background(), "password", JobFilter{}, 5); err == nil {
		t.Error("expected error for unknown dimension")
	}
}
