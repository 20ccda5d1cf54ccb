package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"saber/internal/pkg/model"
)

// IsFileProcessed reports whether a ledger entry exists for the exact
// (filename, checksum) pair.
func (c *Client) IsFileProcessed(ctx context.Context, filename, checksum string) (bool, error) {
	if c == nil || c.DB == nil {
		return false, fmt.Errorf("nil store client")
	}
	var n int64
	err := c.DB.WithContext(ctx).Model(&model.ProcessedFile{}).
		Where("filename = ? AND checksum = ?", filename, checksum).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordProcessedFile inserts the ledger entry for a fully ingested file.
// The unique (filename, checksum) index makes this a compare-and-set: only
// one concurrent caller wins, the loser gets ErrDuplicateEntry.
func (c *Client) RecordProcessedFile(ctx context.Context, filename, checksum string, recordCount int) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil store client")
	}
	entry := model.ProcessedFile{
		Filename:    filename,
		Checksum:    checksum,
		RecordCount: recordCount,
		ProcessedAt: time.Now().UTC(),
	}
	err := c.DB.WithContext(ctx).Create(&entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s@%s", ErrDuplicateEntry, filename, checksum)
	}
	return err
}

// GetProcessedFiles returns all ledger entries, newest first.
func (c *Client) GetProcessedFiles(ctx context.Context) ([]model.ProcessedFile, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil store client")
	}
	res := make([]model.ProcessedFile, 0)
	err := c.DB.WithContext(ctx).Order("processed_at DESC").Find(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}
