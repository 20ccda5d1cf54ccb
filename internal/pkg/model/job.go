package model

import "time"

// Resource classes. Every job is billed in exactly one unit per class:
// node-hours for CPU, core-hours for GPU.
const (
	ResourceCPU = "CPU"
	ResourceGPU = "GPU"
)

// Jobs is a slice of Job.
type Jobs []Job

// Job represents a row in jobs: one ingested job-completion record.
// Rows are append-only; a re-ingested file with changed content produces new
// rows under its new source checksum, the old rows are kept.
type Job struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	JobID              string    `gorm:"column:job_id;index" json:"job_id"`
	JobName            string    `gorm:"column:job_name" json:"job_name"`
	UserName           string    `gorm:"column:user_name;index" json:"user_name"`
	UserGroup          string    `gorm:"column:user_group;index" json:"user_group"`
	Queue              string    `gorm:"column:queue;index" json:"queue"`
	JobStatus          string    `gorm:"column:job_status" json:"job_status"`
	Nodes              int       `gorm:"column:nodes" json:"nodes"`
	Cores              int       `gorm:"column:cores" json:"cores"`
	Memory             string    `gorm:"column:memory" json:"memory"`
	RunTimeSeconds     int64     `gorm:"column:run_time_seconds" json:"run_time_seconds"`
	QueueTime          time.Time `gorm:"column:queue_time" json:"queue_time"`
	StartTime          time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime            time.Time `gorm:"column:end_time" json:"end_time"`
	ElapseLimitSeconds int64     `gorm:"column:elapse_limit_seconds" json:"elapse_limit_seconds"`
	ResourceType       string    `gorm:"column:resource_type;index" json:"resource_type"`
	BilledHours        float64   `gorm:"column:billed_hours" json:"billed_hours"`
	WalletName         string    `gorm:"column:wallet_name;index" json:"wallet_name"`
	Period             string    `gorm:"column:period;index" json:"period"`
	SourceFile         string    `gorm:"column:source_file;index" json:"source_file"`
	SourceChecksum     string    `gorm:"column:source_checksum;index" json:"source_checksum"`
}

func (Job) TableName() string { return "jobs" }
