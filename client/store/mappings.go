package store

import (
	"context"
	"fmt"

	"saber/internal/pkg/model"
)

// GetMappingEdges returns every mapping edge in one consistent read. The
// resolver turns the result into an immutable per-run snapshot.
func (c *Client) GetMappingEdges(ctx context.Context) (model.MappingEdges, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	res := make(model.MappingEdges, 0)
	if err := c.DB.WithContext(ctx).Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// CreateMappingEdge inserts an administrative mapping edge. Shape validation
// (user->wallet, group->wallet, group->group) is the caller's job.
func (c *Client) CreateMappingEdge(ctx context.Context, e *model.MappingEdge) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Create(e).Error
}

// DeleteMappingEdge removes a mapping edge by id. Takes effect on the next
// ingestion run; in-flight runs keep their snapshot.
func (c *Client) DeleteMappingEdge(ctx context.Context, id uint64) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Delete(&model.MappingEdge{}, id).Error
}
