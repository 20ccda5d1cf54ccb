// Package quota tracks billed consumption per (wallet, resource class,
// accounting period) key and reports overage against administered limits.
package quota

import (
	"context"
	"fmt"
	"time"

	"saber/internal/pkg/model"
)

// Store is the persistence the tracker needs: an atomic upsert-increment and
// a point read. *store.Client satisfies it.
type Store interface {
	ApplyQuotaUsage(ctx context.Context, wallet, resourceType, period string, hours float64) error
	GetQuota(ctx context.Context, wallet, resourceType, period string) (*model.Quota, error)
}

// Period returns the accounting period key a job bills into, keyed by its
// start time: "YYYY-MM" in UTC.
func Period(t time.Time) string { return t.UTC().Format("2006-01") }

// Overage is the consumption status of one quota key.
// OverageHours = max(0, consumed - limit) once a limit has been administered;
// a key with LimitSet false has no allowance to exceed. An administered limit
// of zero is a hard-zero allowance: all consumption is overage.
type Overage struct {
	WalletName    string  `json:"wallet_name"`
	ResourceType  string  `json:"resource_type"`
	Period        string  `json:"period"`
	ConsumedHours float64 `json:"consumed_hours"`
	LimitHours    float64 `json:"limit_hours"`
	LimitSet      bool    `json:"limit_set"`
	OverageHours  float64 `json:"overage_hours"`
}

// Tracker aggregates resolved usage per wallet and period.
type Tracker struct {
	store Store
}

func NewTracker(s Store) *Tracker { return &Tracker{store: s} }

// ApplyUsage increments consumed quantity for the key, creating the quota
// entry with zero prior consumption (and no administered limit) if none
// exists. Zero-hour usage still creates the entry, so a wallet's quota key
// is visible from its first attributed job. Consumption may exceed the
// limit; overage is reported, never blocked.
func (t *Tracker) ApplyUsage(ctx context.Context, wallet, resourceType, period string, hours float64) error {
	if hours < 0 {
		return fmt.Errorf("negative usage %f for wallet %s", hours, wallet)
	}
	return t.store.ApplyQuotaUsage(ctx, wallet, resourceType, period, hours)
}

// CheckOverage reports consumed, limit and overage for the key. A key that
// was never written reports all zeroes.
func (t *Tracker) CheckOverage(ctx context.Context, wallet, resourceType, period string) (Overage, error) {
	o := Overage{WalletName: wallet, ResourceType: resourceType, Period: period}
	q, err := t.store.GetQuota(ctx, wallet, resourceType, period)
	if err != nil {
		return o, err
	}
	if q == nil {
		return o, nil
	}
	o.ConsumedHours = q.ConsumedHours
	o.LimitHours = q.LimitHours
	o.LimitSet = q.LimitSet
	if q.LimitSet && q.ConsumedHours > q.LimitHours {
		o.OverageHours = q.ConsumedHours - q.LimitHours
	}
	return o, nil
}
