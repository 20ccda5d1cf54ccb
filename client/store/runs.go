package store

import (
	"context"
	"fmt"

	"saber/internal/pkg/model"
)

// SaveIngestionRun persists the summary of one completed ingestion pass.
func (c *Client) SaveIngestionRun(ctx context.Context, run *model.IngestionRun) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Create(run).Error
}

// GetIngestionRunsPaged lists past runs, newest first.
func (c *Client) GetIngestionRunsPaged(ctx context.Context, offset, limit int) (model.IngestionRuns, int64, error) {
	if c == nil || c.DB == nil {
		return nil, 0, fmt.Errorf("nil store client")
	}
	base := c.DB.WithContext(ctx).Model(&model.IngestionRun{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	res := make(model.IngestionRuns, 0)
	q := base.Order("started_at DESC")
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
