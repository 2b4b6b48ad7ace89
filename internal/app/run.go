package app

import "time"

// Run tracks one CLI invocation. Its ID tags every log line the invocation
// writes, so lines from concurrent processes sharing snapstore.log can be
// told apart.
type Run struct {
	ID      string
	Command string
	Started time.Time
	Status  string // "success" or "error"
}

// NewRun creates a run for command started at now.
func NewRun(command string, now time.Time) *Run {
	return &Run{
		ID:      now.UTC().Format("20060102T150405Z"),
		Command: command,
		Started: now,
		Status:  "success",
	}
}

// Fail marks the run as failed. A failed run stays failed.
func (r *Run) Fail() {
	r.Status = "error"
}
