package transfer

import (
	"context"
	"fmt"

	"github.com/jciesla/mediavault"
)

// BatchDeletion holds the per-batch outcome of a deletion pass.
type BatchDeletion struct {
	Deleted int
	Logged  int // permanently failed deletions appended to the failure log
}

// Deleter deletes the items of one batch from the remote collection.
// Deletes run strictly sequentially in listing order: the remote store
// exhibits lock contention when deletes race on overlapping internal
// structures, so pooling them only multiplies transient conflicts.
type Deleter struct {
	Library  mediavault.RemoteLibrary
	Failures mediavault.FailureLog
	Retryer  *Retryer
	Classify Classifier
	Progress ProgressFunc
}

// DeleteBatch deletes each item in order, retrying transient faults. An
// item that still cannot be deleted is appended to the failure log exactly
// once and the batch continues; a failure log write error is fatal, since
// failure records must never be silently dropped.
func (d *Deleter) DeleteBatch(ctx context.Context, batch []*mediavault.MediaItem) (*BatchDeletion, error) {
	result := &BatchDeletion{}

	for _, item := range batch {
		err := d.Retryer.Do(ctx, func(ctx context.Context) error {
			return d.Library.Delete(ctx, item)
		}, d.Classify)
		if err == nil {
			result.Deleted++
			d.emit(ProgressDeleted, item, nil)
			continue
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if lerr := d.Failures.Append(ctx, item.Filename, err.Error()); lerr != nil {
			return result, fmt.Errorf("failure log %q: %w", item.Filename, lerr)
		}
		result.Logged++
		d.emit(ProgressDeleteFailed, item, err)
	}

	return result, nil
}

func (d *Deleter) emit(typ ProgressType, item *mediavault.MediaItem, err error) {
	if d.Progress != nil {
		d.Progress(ProgressEvent{Type: typ, Item: item, Err: err})
	}
}
