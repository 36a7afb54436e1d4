// Package task tracks scrape tasks from submission to their terminal state.
// Records live in memory for the process lifetime and are never recycled.
package task

import (
	"time"

	"github.com/pagescout/pagescout/pkg/model"
)

// Status is a task lifecycle state. Tasks move strictly forward:
// pending → scraping → processing → completed or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScraping   Status = "scraping"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is a snapshot of one scrape task. Result is set iff the task
// completed; Error is set iff it failed. The embedded Result is immutable
// once published.
type Task struct {
	ID        string
	URL       string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Result    *model.Result
	Error     string
}
