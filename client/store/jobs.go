package store

import (
	"context"
	"fmt"
	"time"

	"saber/internal/pkg/model"

	"gorm.io/gorm"
)

// JobFilter narrows job listing and aggregation queries. Zero-value fields
// are ignored.
type JobFilter struct {
	UserName     string
	UserGroup    string
	Queue        string
	WalletName   string
	ResourceType string
	Period       string
	Start        time.Time
	End          time.Time
}

func (f JobFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.UserName != "" {
		tx = tx.Where("user_name = ?", f.UserName)
	}
	if f.UserGroup != "" {
		tx = tx.Where("user_group = ?", f.UserGroup)
	}
	if f.Queue != "" {
		tx = tx.Where("queue = ?", f.Queue)
	}
	if f.WalletName != "" {
		tx = tx.Where("wallet_name = ?", f.WalletName)
	}
	if f.ResourceType != "" {
		tx = tx.Where("resource_type = ?", f.ResourceType)
	}
	if f.Period != "" {
		tx = tx.Where("period = ?", f.Period)
	}
	if !f.Start.IsZero() {
		tx = tx.Where("start_time >= ?", f.Start)
	}
	if !f.End.IsZero() {
		tx = tx.Where("start_time < ?", f.End)
	}
	return tx
}

// AppendJobs appends ingested job usage records. Rows are immutable once
// written; callers run this inside the per-file transaction.
func (c *Client) AppendJobs(ctx context.Context, jobs model.Jobs) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	if len(jobs) == 0 {
		return nil
	}
	return c.DB.WithContext(ctx).Create(&jobs).Error
}

// GetJobsPaged queries jobs with filters and pagination, newest first.
// Returns the paged jobs and the total count before paging.
func (c *Client) GetJobsPaged(ctx context.Context, f JobFilter, offset, limit int) (model.Jobs, int64, error) {
	if c == nil || c.DB == nil {
		return nil, 0, fmt.Errorf("nil store client")
	}
	base := f.apply(c.DB.WithContext(ctx).Model(&model.Job{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	res := make(model.Jobs, 0)
	q := base.Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// UsageTotal is one aggregate row of billed usage.
type UsageTotal struct {
	ResourceType  string  `json:"resource_type"`
	BilledHours   float64 `json:"billed_hours"`
	Jobs          int64   `json:"jobs"`
	AvgRunSeconds float64 `json:"avg_run_seconds"`
}

// GetUsageTotals aggregates billed hours and job counts per resource class
// over the filtered job set.
func (c *Client) GetUsageTotals(ctx context.Context, f JobFilter) ([]UsageTotal, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	res := make([]UsageTotal, 0, 2)
	err := f.apply(c.DB.WithContext(ctx).Model(&model.Job{})).
		Select("resource_type, COALESCE(SUM(billed_hours),0) AS billed_hours, COUNT(*) AS jobs, COALESCE(AVG(run_time_seconds),0) AS avg_run_seconds").
		Group("resource_type").
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}

// NameHours is one top-N aggregation row.
type NameHours struct {
	Name        string  `json:"name"`
	BilledHours float64 `json:"billed_hours"`
}

// topGroupColumns whitelists GROUP BY targets for GetTopByHours.
var topGroupColumns = map[string]string{
	"user":   "user_name",
	"group":  "user_group",
	"wallet": "wallet_name",
	"queue":  "queue",
}

// GetTopByHours returns the top consumers of billed hours grouped by the
// given dimension ("user", "group", "wallet" or "queue").
func (c *Client) GetTopByHours(ctx context.Context, by string, f JobFilter, limit int) ([]NameHours, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	col, ok := topGroupColumns[by]
	if !ok {
		return nil, fmt.Errorf("unsupported top-by dimension: %s", by)
	}
	if limit <= 0 {
		limit = 5
	}
	res := make([]NameHours, 0, limit)
	err := f.apply(c.DB.WithContext(ctx).Model(&model.Job{})).
		Select(col + " AS name, COALESCE(SUM(billed_hours),0) AS billed_hours").
		Group(col).
		Order("billed_hours DESC").
		Limit(limit).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}
