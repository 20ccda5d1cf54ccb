package quota

import (
	"context"
	"testing"
	"time"

	"saber/internal/pkg/model"
)

// fakeStore keeps quota rows in a map, mirroring the upsert-increment
// contract of the real store.
type fakeStore struct {
	rows map[string]*model.Quota
}

func key(w, rt, p string) string { return w + "|" + rt + "|" + p }

func (f *fakeStore) ApplyQuotaUsage(_ context.Context, wallet, resourceType, period string, hours float64) error {
	k := key(wallet, resourceType, period)
	if q, ok := f.rows[k]; ok {
		q.ConsumedHours += hours
		return nil
	}
	f.rows[k] = &model.Quota{WalletName: wallet, ResourceType: resourceType, Period: period, ConsumedHours: hours}
	return nil
}

func (f *fakeStore) GetQuota(_ context.Context, wallet, resourceType, period string) (*model.Quota, error) {
	return f.rows[key(wallet, resourceType, period)], nil
}

func (f *fakeStore) setLimit(w, rt, p string, limit float64) {
	k := key(w, rt, p)
	if q, ok := f.rows[k]; ok {
		q.LimitHours = limit
		q.LimitSet = true
		return
	}
	f.rows[k] = &model.Quota{WalletName: w, ResourceType: rt, Period: p, LimitHours: limit, LimitSet: true}
}

func TestApplyUsageAndOverage(t *testing.T) {
	fs := &fakeStore{rows: make(map[string]*model.Quota)}
	tr := NewTracker(fs)
	ctx := context.Background()

	if err := tr.ApplyUsage(ctx, "ai_lab", model.ResourceGPU, "2025-07", 60); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}
	if err := tr.ApplyUsage(ctx, "ai_lab", model.ResourceGPU, "2025-07", 50); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}
	fs.setLimit("ai_lab", model.ResourceGPU, "2025-07", 100)

	ov, err := tr.CheckOverage(ctx, "ai_lab", model.ResourceGPU, "2025-07")
	if err != nil {
		t.Fatalf("CheckOverage: %v", err)
	}
	if ov.ConsumedHours != 110 {
		t.Errorf("consumed expected 110, got %v", ov.ConsumedHours)
	}
	if ov.OverageHours != 10 {
		t.Errorf("overage expected 10, got %v", ov.OverageHours)
	}
}

func TestCheckOverage_UnderLimitAndMissingKey(t *testing.T) {
	fs := &fakeStore{rows: make(map[string]*model.Quota)}
	tr := NewTracker(fs)
	ctx := context.Background()

	if err := tr.ApplyUsage(ctx, "cfd", model.ResourceCPU, "2025-07", 40); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}
	fs.setLimit("cfd", model.ResourceCPU, "2025-07", 100)

	ov, err := tr.CheckOverage(ctx, "cfd", model.ResourceCPU, "2025-07")
	if err != nil {
		t.Fatalf("CheckOverage: %v", err)
	}
	if ov.OverageHours != 0 {
		t.Errorf("no overage expected under the limit, got %v", ov.OverageHours)
	}

	ov, err = tr.CheckOverage(ctx, "nobody", model.ResourceCPU, "2025-07")
	if err != nil {
		t.Fatalf("CheckOverage missing key: %v", err)
	}
	if ov.ConsumedHours != 0 || ov.LimitHours != 0 || ov.OverageHours != 0 {
		t.Errorf("missing key must report zeroes, got %+v", ov)
	}
}

func TestCheckOverage_ZeroLimitIsHardZero(t *testing.T) {
	fs := &fakeStore{rows: make(map[string]*model.Quota)}
	tr := NewTracker(fs)
	ctx := context.Background()

	fs.setLimit("frozen", model.ResourceCPU, "2025-07", 0)
	if err := tr.ApplyUsage(ctx, "frozen", model.ResourceCPU, "2025-07", 5); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}

	ov, err := tr.CheckOverage(ctx, "frozen", model.ResourceCPU, "2025-07")
	if err != nil {
		t.Fatalf("CheckOverage: %v", err)
	}
	if !ov.LimitSet {
		t.Error("administered limit must report limit_set")
	}
	// An administered zero allowance means every hour is overage.
	if ov.OverageHours != 5 {
		t.Errorf("overage expected 5 against a zero limit, got %v", ov.OverageHours)
	}
}

func TestCheckOverage_NoAdministeredLimit(t *testing.T) {
	fs := &fakeStore{rows: make(map[string]*model.Quota)}
	tr := NewTracker(fs)
	ctx := context.Background()

	// Ingestion auto-creates quota rows without a limit; consumption alone
	// never counts as overage.
	if err := tr.ApplyUsage(ctx, "cfd", model.ResourceCPU, "2025-07", 500); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}
	ov, err := tr.CheckOverage(ctx, "cfd", model.ResourceCPU, "2025-07")
	if err != nil {
		t.Fatalf("CheckOverage: %v", err)
	}
	if ov.LimitSet || ov.OverageHours != 0 {
		t.Errorf("no administered limit must mean no overage, got %+v", ov)
	}
}

func TestApplyUsage_RejectsNegative(t *testing.T) {
	tr := NewTracker(&fakeStore{rows: make(map[string]*model.Quota)})
	if err := tr.ApplyUsage(context.Background(), "w", model.ResourceCPU, "2025-07", -1); err == nil {
		t.Error("expected error for negative usage")
	}
}

func TestApplyUsage_ZeroCreatesEntry(t *testing.T) {
	fs := &fakeStore{rows: make(map[string]*model.Quota)}
	tr := NewTracker(fs)
	ctx := context.Background()

	if err := tr.ApplyUsage(ctx, "w", model.ResourceCPU, "2025-07", 0); err != nil {
		t.Fatalf("ApplyUsage: %v", err)
	}
	q, _ := fs.GetQuota(ctx, "w", model.ResourceCPU, "2025-07")
	if q == nil || q.ConsumedHours != 0 {
		t.Fatalf("zero usage must still create the quota entry, got %+v", q)
	}
}

func TestPeriod(t *testing.T) {
	ts := time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC)
	if p := Period(ts); p != "2025-07" {
		t.Errorf("period expected 2025-07, got %s", p)
	}
}
