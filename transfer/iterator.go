package transfer

import (
	"context"
	"fmt"

	"github.com/jciesla/mediavault"
)

// PageFunc fetches one page of the remote listing starting at cursor.
// The engine supplies a retry-wrapped PageFunc; the iterator itself never
// retries, so a surfaced error is a non-recoverable listing fault.
type PageFunc func(ctx context.Context, cursor string) (*mediavault.Page, error)

// Iterator turns a paged remote listing into a lazy, finite, non-restartable
// sequence of fixed-size batches. Consuming a batch advances the cursor
// irrevocably; no item is revisited within one run.
type Iterator struct {
	size   int
	next   PageFunc
	cursor string
	buf    []*mediavault.MediaItem
	done   bool
}

// NewIterator creates an Iterator producing batches of up to size items in
// listing order. Sizes below 1 are treated as 1.
func NewIterator(size int, next PageFunc) *Iterator {
	if size < 1 {
		size = 1
	}
	return &Iterator{size: size, next: next}
}

// Next returns the next batch, or nil once the listing is exhausted. Every
// batch holds exactly size items except possibly the last. A listing fault
// aborts the sequence: after an error, subsequent calls return nil.
func (it *Iterator) Next(ctx context.Context) ([]*mediavault.MediaItem, error) {
	for !it.done && len(it.buf) < it.size {
		page, err := it.next(ctx, it.cursor)
		if err != nil {
			it.done = true
			it.buf = nil
			return nil, fmt.Errorf("list page: %w", err)
		}
		it.buf = append(it.buf, page.Items...)
		if page.NextCursor == nil {
			it.done = true
		} else {
			it.cursor = *page.NextCursor
		}
	}

	if len(it.buf) == 0 {
		return nil, nil
	}

	n := it.size
	if len(it.buf) < n {
		n = len(it.buf)
	}
	batch := it.buf[:n:n]
	it.buf = it.buf[n:]
	return batch, nil
}
