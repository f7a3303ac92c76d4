package transfer

import (
	"context"
	"fmt"

	"github.com/jciesla/mediavault"
	"golang.org/x/sync/errgroup"
)

// ItemFailure records a single item-level failure with its cause.
type ItemFailure struct {
	Item *mediavault.MediaItem
	Err  error
}

// BatchDownload holds the per-batch outcome of a download pass. Skipped
// items were already current in the archive (or needed only a timestamp
// patch); both downloaded and skipped items have a verified local copy.
type BatchDownload struct {
	Downloaded []*mediavault.MediaItem
	Skipped    []*mediavault.MediaItem
	Failed     []ItemFailure
}

// Archived returns the batch items with a verified local copy after this
// pass, in the batch's listing order. Downloads finish in completion order,
// so the result is filtered from the original batch rather than assembled
// from the Downloaded and Skipped slices.
func (b *BatchDownload) Archived(batch []*mediavault.MediaItem) []*mediavault.MediaItem {
	archived := make(map[*mediavault.MediaItem]struct{}, len(b.Downloaded)+len(b.Skipped))
	for _, item := range b.Downloaded {
		archived[item] = struct{}{}
	}
	for _, item := range b.Skipped {
		archived[item] = struct{}{}
	}

	out := make([]*mediavault.MediaItem, 0, len(archived))
	for _, item := range batch {
		if _, ok := archived[item]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Downloader downloads the items of one batch with a bounded worker pool
// and writes them into the archive with the remote timestamps. Workers only
// fetch; all archive writes happen on the calling goroutine, so the archive
// sees a single writer.
type Downloader struct {
	Library  mediavault.RemoteLibrary
	Archive  mediavault.Archive
	Retryer  *Retryer
	Classify Classifier
	Workers  int
	Progress ProgressFunc
}

// fetchResult is the outcome of one worker fetch.
type fetchResult struct {
	item *mediavault.MediaItem
	data []byte
	err  error
}

// DownloadBatch downloads all items in the batch using at most Workers
// concurrent fetches. A single item's failure never aborts its siblings;
// an archive write failure is fatal and aborts the batch's remaining
// writes. The returned BatchDownload is valid even when err is non-nil.
func (d *Downloader) DownloadBatch(ctx context.Context, batch []*mediavault.MediaItem) (*BatchDownload, error) {
	result := &BatchDownload{}

	// Skip-logic runs up front on the calling goroutine: items already
	// current are skipped, stale entries get a metadata-only correction,
	// only the rest are fetched.
	var toFetch []*mediavault.MediaItem
	for _, item := range batch {
		entry, ok := d.Archive.Entry(item.Filename)
		switch {
		case ok && entry.Current(item.CreatedAt, item.ModifiedAt):
			result.Skipped = append(result.Skipped, item)
			d.emit(ProgressSkipped, item, nil)
		case ok:
			if err := d.Archive.PatchTimestamps(ctx, item.Filename, item.CreatedAt, item.ModifiedAt); err != nil {
				return result, fmt.Errorf("patch timestamps %q: %w", item.Filename, err)
			}
			result.Skipped = append(result.Skipped, item)
			d.emit(ProgressSkipped, item, nil)
		default:
			toFetch = append(toFetch, item)
		}
	}

	if len(toFetch) == 0 {
		return result, nil
	}

	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}

	resultCh := make(chan fetchResult, len(toFetch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for _, item := range toFetch {
			item := item
			g.Go(func() error {
				var data []byte
				err := d.Retryer.Do(gctx, func(ctx context.Context) error {
					var ferr error
					data, ferr = d.Library.Fetch(ctx, item)
					return ferr
				}, d.Classify)
				resultCh <- fetchResult{item: item, data: data, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Single writer: archive mutation happens only here, as results arrive.
	for res := range resultCh {
		if res.err != nil {
			result.Failed = append(result.Failed, ItemFailure{Item: res.item, Err: res.err})
			d.emit(ProgressDownloadFailed, res.item, res.err)
			continue
		}

		err := d.Archive.Upsert(ctx, res.item.Filename, res.data, res.item.CreatedAt, res.item.ModifiedAt)
		if err != nil {
			return result, fmt.Errorf("archive %q: %w", res.item.Filename, err)
		}
		result.Downloaded = append(result.Downloaded, res.item)
		d.emit(ProgressDownloaded, res.item, nil)
	}

	return result, nil
}

func (d *Downloader) emit(typ ProgressType, item *mediavault.MediaItem, err error) {
	if d.Progress != nil {
		d.Progress(ProgressEvent{Type: typ, Item: item, Err: err})
	}
}
