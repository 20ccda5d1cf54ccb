package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saber/internal/pkg/model"
)

// ApplyQuotaUsage atomically adds hours to the consumed quantity of the
// (wallet, resource class, period) key, creating the quota row with a zero
// limit if none exists. Single upsert statement, no read-modify-write, so
// parallel attribution cannot lose updates.
func (c *Client) ApplyQuotaUsage(ctx context.Context, wallet, resourceType, period string, hours float64) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	q := model.Quota{
		WalletName:    wallet,
		ResourceType:  resourceType,
		Period:        period,
		ConsumedHours: hours,
	}
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_name"}, {Name: "resource_type"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]any{
			"consumed_hours": gorm.Expr("consumed_hours + ?", hours),
		}),
	}).Create(&q).Error
}

// SetQuotaLimit upserts the administered limit for the key, leaving any
// accumulated consumption untouched.
func (c *Client) SetQuotaLimit(ctx context.Context, wallet, resourceType, period string, limitHours float64) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	q := model.Quota{
		WalletName:   wallet,
		ResourceType: resourceType,
		Period:       period,
		LimitHours:   limitHours,
		LimitSet:     true,
	}
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_name"}, {Name: "resource_type"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]any{
			"limit_hours": limitHours,
			"limit_set":   true,
		}),
	}).Create(&q).Error
}

// GetQuota fetches one quota row, nil if the key has never been written.
func (c *Client) GetQuota(ctx context.Context, wallet, resourceType, period string) (*model.Quota, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	var q model.Quota
	res := c.DB.WithContext(ctx).
		Where("wallet_name = ? AND resource_type = ? AND period = ?", wallet, resourceType, period).
		Limit(1).Find(&q)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &q, nil
}

// GetQuotas lists quota rows, optionally filtered by wallet and period.
func (c *Client) GetQuotas(ctx context.Context, wallet, period string) (model.Quotas, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	tx := c.DB.WithContext(ctx).Model(&model.Quota{})
	if wallet != "" {
		tx = tx.Where("wallet_name = ?", wallet)
	}
	if period != "" {
		tx = tx.Where("period = ?", period)
	}
	res := make(model.Quotas, 0)
	if err := tx.Order("wallet_name, period, resource_type").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}
