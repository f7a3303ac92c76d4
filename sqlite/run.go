package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jciesla/mediavault"
)

// Compile-time interface verification.
var _ mediavault.RunService = (*RunService)(nil)

// RunService implements mediavault.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun records a completed run.
func (s *RunService) CreateRun(ctx context.Context, run *mediavault.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, started_at, finished_at, batches, downloaded, skipped, download_failed, deleted, delete_failed, err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Mode,
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339),
		run.Batches, run.Downloaded, run.Skipped, run.DownloadFailed,
		run.Deleted, run.DeleteFailed, run.Err)

	return err
}

// FindRuns retrieves runs matching the filter, most recent first.
func (s *RunService) FindRuns(ctx context.Context, filter mediavault.RunFilter) ([]*mediavault.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT id, mode, started_at, finished_at, batches, downloaded, skipped, download_failed, deleted, delete_failed, err
		FROM runs WHERE 1=1`)

	if filter.Mode != nil {
		query.WriteString(" AND mode = ?")
		args = append(args, *filter.Mode)
	}

	query.WriteString(" ORDER BY started_at DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*mediavault.Run
	for rows.Next() {
		var run mediavault.Run
		var startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.Mode, &startedAt, &finishedAt,
			&run.Batches, &run.Downloaded, &run.Skipped, &run.DownloadFailed,
			&run.Deleted, &run.DeleteFailed, &run.Err); err != nil {
			return nil, err
		}

		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}

		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
