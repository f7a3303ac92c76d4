package main

import (
	"fmt"
	"path/filepath"

	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/sqlite"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	runs := deps.Runs
	if runs == nil {
		db := sqlite.NewDB(filepath.Join(c.Dir, "mediavault.db"))
		if err := db.Open(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", err)
			return err
		}
		defer db.Close()
		runs = sqlite.NewRunService(db)
	}

	filter := mediavault.RunFilter{Limit: c.Limit}
	if c.Mode != "" {
		filter.Mode = &c.Mode
	}

	found, err := runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mediavault.ErrorMessage(err))
		return err
	}

	if len(found) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded yet.")
		return nil
	}

	for _, r := range found {
		status := "ok"
		if r.Err != "" {
			status = "aborted: " + r.Err
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %-8s  batches=%d downloaded=%d skipped=%d dl_failed=%d deleted=%d del_failed=%d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Mode,
			r.Batches, r.Downloaded, r.Skipped, r.DownloadFailed, r.Deleted, r.DeleteFailed, status)
	}
	return nil
}
