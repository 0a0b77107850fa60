package models

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one execution of a source's scrape pipeline. Created with status
// running, finalized exactly once as completed or failed, immutable after.
type Run struct {
	ID           int
	Source       Source `gorm:"index"`
	StartTime    time.Time
	EndTime      *time.Time
	Status       RunStatus `gorm:"index"`
	JobsFound    int
	NewJobs      int
	ErrorMessage string
}

func NewRun(source Source, now time.Time) *Run {
	return &Run{
		Source:    source,
		StartTime: now,
		Status:    RunRunning,
	}
}
