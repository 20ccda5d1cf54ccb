package model

import "time"

// IngestionRuns is a slice of IngestionRun.
type IngestionRuns []IngestionRun

// IngestionRun represents a row in ingestion_runs: the persisted summary of
// one ingestion pass over the log directory, so operators can reconcile error
// categories without reading logs.
type IngestionRun struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID            string    `gorm:"column:run_id;uniqueIndex" json:"run_id"`
	StartedAt        time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt       time.Time `gorm:"column:finished_at" json:"finished_at"`
	FilesScanned     int       `gorm:"column:files_scanned" json:"files_scanned"`
	FilesSkipped     int       `gorm:"column:files_skipped" json:"files_skipped"`
	FilesProcessed   int       `gorm:"column:files_processed" json:"files_processed"`
	FilesFailed      int       `gorm:"column:files_failed" json:"files_failed"`
	DuplicateFiles   int       `gorm:"column:duplicate_files" json:"duplicate_files"`
	RecordsIngested  int       `gorm:"column:records_ingested" json:"records_ingested"`
	MalformedRecords int       `gorm:"column:malformed_records" json:"malformed_records"`
	AttributionGaps  int       `gorm:"column:attribution_gaps" json:"attribution_gaps"`
	GapsUnmapped     int       `gorm:"column:gaps_unmapped" json:"gaps_unmapped"`
	GapsCycle        int       `gorm:"column:gaps_cycle" json:"gaps_cycle"`
	GapsDepth        int       `gorm:"column:gaps_depth" json:"gaps_depth"`
	GapsAmbiguous    int       `gorm:"column:gaps_ambiguous" json:"gaps_ambiguous"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }
