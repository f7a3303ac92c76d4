// Package transfer provides the batch synchronization engine. It iterates a
// remote media collection in bounded batches, downloads items concurrently
// into the archive, and deletes items sequentially with retry against
// transient server faults.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jciesla/mediavault"
)

// ProgressType indicates the type of progress event.
type ProgressType int

// Progress event types.
const (
	ProgressBatchStarted ProgressType = iota
	ProgressDownloaded
	ProgressSkipped
	ProgressDownloadFailed
	ProgressDeleted
	ProgressDeleteFailed
	ProgressBatchFinished
)

// ProgressEvent reports progress during a run. The remote collection size
// is unknown until the listing is exhausted, so events carry a running
// batch number rather than a total.
type ProgressEvent struct {
	Type  ProgressType
	Batch int
	Item  *mediavault.MediaItem
	Err   error
}

// ProgressFunc is a callback for reporting run progress.
type ProgressFunc func(event ProgressEvent)

// Result summarizes a run. On a fatal abort the engine returns the partial
// Result alongside the error so callers can report how many batches
// completed before the abort.
type Result struct {
	Batches        int
	Downloaded     int
	Skipped        int
	DownloadFailed int
	Deleted        int
	DeleteFailed   int // logged to the failure log
}

// Engine orchestrates batch download and deletion runs against a remote
// media collection. The engine owns the archive and failure log for the
// duration of a run; the library is borrowed from the caller and never
// closed.
type Engine struct {
	Library   mediavault.RemoteLibrary
	Archive   mediavault.Archive
	Failures  mediavault.FailureLog
	BatchSize int
	Workers   int
	Retryer   *Retryer
	Classify  Classifier
	Logger    *slog.Logger
	Progress  ProgressFunc
}

// Run executes one run in the given mode. Batches are strictly sequential:
// batch N+1 never starts before batch N's downloads and, if applicable,
// deletions have all finished. Cancellation is honored at batch
// boundaries; an in-flight batch is allowed to finish.
//
// In sweep mode an item becomes eligible for deletion once its local copy
// was verified this run: freshly downloaded, already current in the
// archive, or corrected with a timestamp patch. An item whose download
// failed is never deleted. Deletions follow the batch's listing order.
func (e *Engine) Run(ctx context.Context, mode string) (*Result, error) {
	batchSize := e.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}
	retryer := e.Retryer
	if retryer == nil {
		retryer = NewRetryer(time.Second)
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch mode {
	case mediavault.ModeDownload, mediavault.ModeDelete, mediavault.ModeSweep:
	default:
		return nil, mediavault.Errorf(mediavault.EINVALID, "invalid run mode %q", mode)
	}

	downloader := &Downloader{
		Library:  e.Library,
		Archive:  e.Archive,
		Retryer:  retryer,
		Classify: e.Classify,
		Workers:  e.Workers,
		Progress: e.Progress,
	}
	deleter := &Deleter{
		Library:  e.Library,
		Failures: e.Failures,
		Retryer:  retryer,
		Classify: e.Classify,
		Progress: e.Progress,
	}

	// Listing faults are retried around each page fetch; a fault that
	// survives the retryer aborts the run.
	it := NewIterator(batchSize, func(ctx context.Context, cursor string) (*mediavault.Page, error) {
		var page *mediavault.Page
		err := retryer.Do(ctx, func(ctx context.Context) error {
			var lerr error
			page, lerr = e.Library.ListPage(ctx, cursor)
			return lerr
		}, e.Classify)
		return page, err
	})

	result := &Result{}
	for {
		// Cooperative cancellation: no new batch after a cancel signal.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := it.Next(ctx)
		if err != nil {
			return result, err
		}
		if batch == nil {
			break
		}

		e.emit(ProgressEvent{Type: ProgressBatchStarted, Batch: result.Batches + 1})
		logger.Info("batch started", "batch", result.Batches+1, "items", len(batch), "mode", mode)

		toDelete := batch
		if mode == mediavault.ModeDownload || mode == mediavault.ModeSweep {
			dl, err := downloader.DownloadBatch(ctx, batch)
			result.Downloaded += len(dl.Downloaded)
			result.Skipped += len(dl.Skipped)
			result.DownloadFailed += len(dl.Failed)
			if err != nil {
				return result, fmt.Errorf("batch %d: %w", result.Batches+1, err)
			}
			if err := e.Archive.Commit(ctx); err != nil {
				return result, fmt.Errorf("batch %d: commit archive: %w", result.Batches+1, err)
			}
			// Only items with a verified local copy are ever deleted,
			// in the batch's listing order.
			toDelete = dl.Archived(batch)
		}

		if mode == mediavault.ModeDelete || mode == mediavault.ModeSweep {
			del, err := deleter.DeleteBatch(ctx, toDelete)
			result.Deleted += del.Deleted
			result.DeleteFailed += del.Logged
			if err != nil {
				return result, fmt.Errorf("batch %d: %w", result.Batches+1, err)
			}
		}

		result.Batches++
		e.emit(ProgressEvent{Type: ProgressBatchFinished, Batch: result.Batches})
		logger.Info("batch finished",
			"batch", result.Batches,
			"downloaded", result.Downloaded,
			"skipped", result.Skipped,
			"download_failed", result.DownloadFailed,
			"deleted", result.Deleted,
			"delete_failed", result.DeleteFailed,
		)
	}

	return result, nil
}

func (e *Engine) emit(event ProgressEvent) {
	if e.Progress != nil {
		e.Progress(event)
	}
}
