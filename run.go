package mediavault

import (
	"context"
	"time"
)

// Run modes.
const (
	ModeDownload = "download"
	ModeDelete   = "delete"
	ModeSweep    = "sweep" // download, then delete what was downloaded
)

// Run records the outcome of one engine run for the history ledger.
type Run struct {
	ID             string    `json:"id"`
	Mode           string    `json:"mode"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Batches        int       `json:"batches"`
	Downloaded     int       `json:"downloaded"`
	Skipped        int       `json:"skipped"`
	DownloadFailed int       `json:"downloadFailed"`
	Deleted        int       `json:"deleted"`
	DeleteFailed   int       `json:"deleteFailed"`
	Err            string    `json:"err,omitempty"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	switch r.Mode {
	case ModeDownload, ModeDelete, ModeSweep:
	default:
		return Errorf(EINVALID, "invalid run mode %q", r.Mode)
	}
	return nil
}

// RunService persists run history.
type RunService interface {
	// CreateRun records a completed run. The ID is assigned by the
	// implementation.
	CreateRun(ctx context.Context, run *Run) error

	// FindRuns retrieves runs matching the filter, most recent first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Mode *string `json:"mode"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
