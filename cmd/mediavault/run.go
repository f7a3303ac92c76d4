package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/fs"
	"github.com/jciesla/mediavault/s3"
	"github.com/jciesla/mediavault/sqlite"
	"github.com/jciesla/mediavault/transfer"
	"github.com/jciesla/mediavault/zip"
)

// executeRun wires an engine for one action command and runs it. Item-level
// failures are reported in the summary but are not fatal; listing,
// authentication, archive, and failure log faults return an error and a
// non-zero exit.
func executeRun(deps *Dependencies, mode string, remote RemoteFlags, store StoreFlags, batchSize, workers int) error {
	lib, err := deps.NewLibrary(deps.Ctx, s3.Config{
		Endpoint:        remote.Endpoint,
		Region:          remote.Region,
		Bucket:          remote.Bucket,
		Prefix:          remote.Prefix,
		AccessKeyID:     remote.AccessKey,
		SecretAccessKey: remote.SecretKey,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mediavault.ErrorMessage(err))
		return err
	}
	lib = decorate(lib, remote, deps.Logger)

	engine := &transfer.Engine{
		Library:   lib,
		Failures:  fs.NewFailureLog(filepath.Join(store.Dir, fs.DefaultFailureLogName)),
		BatchSize: batchSize,
		Workers:   workers,
	}
	if remote.Verbose {
		engine.Logger = deps.Logger
	}

	if mode != mediavault.ModeDelete {
		archive := zip.NewStore(filepath.Join(store.Dir, store.Archive))
		if err := archive.Open(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", err)
			return err
		}
		defer archive.Close()
		engine.Archive = archive
	}

	startedAt := time.Now().UTC()
	result, runErr := engine.Run(deps.Ctx, mode)

	printSummary(deps, result, runErr)
	recordRun(deps, store, mode, startedAt, result, runErr)

	return runErr
}

// printSummary writes the final counts, and on a fatal abort how many
// batches completed before it.
func printSummary(deps *Dependencies, result *transfer.Result, runErr error) {
	if result == nil {
		return
	}
	fmt.Fprintf(deps.Stdout,
		"batches: %d  downloaded: %d  skipped: %d  download failed: %d  deleted: %d  delete failed (logged): %d\n",
		result.Batches, result.Downloaded, result.Skipped, result.DownloadFailed,
		result.Deleted, result.DeleteFailed)

	if runErr != nil {
		fmt.Fprintf(deps.Stderr, "aborted after %d completed batches: %s\n", result.Batches, runErr)
	}
}

// recordRun appends the run to the history ledger. History is best-effort:
// a ledger fault must not turn a completed run into a failed exit.
func recordRun(deps *Dependencies, store StoreFlags, mode string, startedAt time.Time, result *transfer.Result, runErr error) {
	runs := deps.Runs
	if runs == nil {
		db := sqlite.NewDB(filepath.Join(store.Dir, "mediavault.db"))
		if err := db.Open(); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: run history unavailable: %s\n", err)
			return
		}
		defer db.Close()
		runs = sqlite.NewRunService(db)
	}

	run := &mediavault.Run{
		Mode:       mode,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	if result != nil {
		run.Batches = result.Batches
		run.Downloaded = result.Downloaded
		run.Skipped = result.Skipped
		run.DownloadFailed = result.DownloadFailed
		run.Deleted = result.Deleted
		run.DeleteFailed = result.DeleteFailed
	}
	if runErr != nil {
		run.Err = runErr.Error()
	}

	if err := runs.CreateRun(deps.Ctx, run); err != nil {
		fmt.Fprintf(deps.Stderr, "warning: failed to record run: %s\n", err)
	}
}
