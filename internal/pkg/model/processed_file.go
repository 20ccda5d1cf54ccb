package model

import "time"

// ProcessedFile represents a row in processed_files: one successful ingestion
// of one source file at one content checksum. A file is "ingested" iff a row
// with its (filename, checksum) pair exists; changed content means a new
// checksum and therefore a new row, never an update of the old one.
type ProcessedFile struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Filename    string    `gorm:"column:filename;uniqueIndex:uq_file_checksum" json:"filename"`
	Checksum    string    `gorm:"column:checksum;uniqueIndex:uq_file_checksum" json:"checksum"`
	RecordCount int       `gorm:"column:record_count" json:"record_count"`
	ProcessedAt time.Time `gorm:"column:processed_at" json:"processed_at"`
}

func (ProcessedFile) TableName() string { return "processed_files" }
