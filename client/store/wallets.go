package store

import (
	"context"
	"fmt"

	"saber/internal/pkg/model"
)

// GetWalletsPaged lists wallets with pagination, ordered by name.
func (c *Client) GetWalletsPaged(ctx context.Context, offset, limit int) (model.Wallets, int64, error) {
	if c == nil || c.DB == nil {
		return nil, 0, fmt.Errorf("nil store client")
	}
	base := c.DB.WithContext(ctx).Model(&model.Wallet{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	res := make(model.Wallets, 0)
	q := base.Order("name")
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

// GetWalletByName fetches a single wallet, nil if absent.
func (c *Client) GetWalletByName(ctx context.Context, name string) (*model.Wallet, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	var w model.Wallet
	res := c.DB.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&w)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &w, nil
}

// CreateWallet inserts a wallet row.
func (c *Client) CreateWallet(ctx context.Context, w *model.Wallet) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Create(w).Error
}

// EnsureWallet creates the named wallet if it does not exist yet and returns
// it. Used during ingestion so that a resolved wallet name always has a row.
func (c *Client) EnsureWallet(ctx context.Context, name string) (*model.Wallet, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	w := model.Wallet{Name: name, DisplayName: name, Active: true}
	err := c.DB.WithContext(ctx).Where(model.Wallet{Name: name}).FirstOrCreate(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWallet updates display name and active flag by wallet id.
func (c *Client) UpdateWallet(ctx context.Context, id uint64, displayName string, active bool) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Model(&model.Wallet{}).
		Where("id = ?", id).
		Updates(map[string]any{"display_name": displayName, "active": active}).Error
}

// DeleteWallet removes a wallet row by id. Attributed jobs keep their wallet
// name; deletion is administrative cleanup, not re-attribution.
func (c *Client) DeleteWallet(ctx context.Context, id uint64) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	return c.DB.WithContext(ctx).Delete(&model.Wallet{}, id).Error
}
