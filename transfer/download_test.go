package transfer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/mock"
	"github.com/jciesla/mediavault/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryArchive is an in-memory Archive for engine-level tests. It also
// asserts the single-writer rule: concurrent mutation fails the test.
type memoryArchive struct {
	t       *testing.T
	mu      sync.Mutex
	writing bool
	entries map[string]*mediavault.ArchiveEntry
	data    map[string][]byte
	commits int
}

func newMemoryArchive(t *testing.T) *memoryArchive {
	return &memoryArchive{
		t:       t,
		entries: make(map[string]*mediavault.ArchiveEntry),
		data:    make(map[string][]byte),
	}
}

func (a *memoryArchive) enter() func() {
	a.mu.Lock()
	if a.writing {
		a.mu.Unlock()
		a.t.Error("concurrent archive mutation")
		return func() {}
	}
	a.writing = true
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		a.writing = false
		a.mu.Unlock()
	}
}

func (a *memoryArchive) Entry(filename string) (*mediavault.ArchiveEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[filename]
	if !ok {
		return nil, false
	}
	e := *entry
	return &e, true
}

func (a *memoryArchive) Upsert(ctx context.Context, filename string, data []byte, createdAt, modifiedAt time.Time) error {
	defer a.enter()()
	a.entries[filename] = &mediavault.ArchiveEntry{
		Filename:   filename,
		Size:       int64(len(data)),
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
	}
	a.data[filename] = data
	return nil
}

func (a *memoryArchive) PatchTimestamps(ctx context.Context, filename string, createdAt, modifiedAt time.Time) error {
	defer a.enter()()
	entry, ok := a.entries[filename]
	if !ok {
		return mediavault.Errorf(mediavault.ENOTFOUND, "entry %q not found", filename)
	}
	entry.CreatedAt = createdAt
	entry.ModifiedAt = modifiedAt
	return nil
}

func (a *memoryArchive) Commit(ctx context.Context) error {
	defer a.enter()()
	a.commits++
	return nil
}

// concurrencyTracker counts in-flight calls and records the peak.
type concurrencyTracker struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (c *concurrencyTracker) enter() {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()
}

func (c *concurrencyTracker) exit() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *concurrencyTracker) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

func noRetry() *transfer.Retryer {
	return &transfer.Retryer{Delays: []time.Duration{0, 0}}
}

func TestDownloader_DownloadBatch(t *testing.T) {
	t.Parallel()

	t.Run("downloads all items and stores remote timestamps", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2019, 3, 14, 9, 26, 53, 0, time.UTC)
		modified := time.Date(2022, 7, 1, 8, 0, 0, 0, time.UTC)
		batch := fakeItems(5)
		for _, item := range batch {
			item.CreatedAt = created
			item.ModifiedAt = modified
		}

		archive := newMemoryArchive(t)
		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, item *mediavault.MediaItem) ([]byte, error) {
					return []byte("bytes of " + item.ID), nil
				},
			},
			Archive: archive,
			Retryer: noRetry(),
			Workers: 2,
		}

		result, err := d.DownloadBatch(context.Background(), batch)

		require.NoError(t, err)
		assert.Len(t, result.Downloaded, 5)
		assert.Empty(t, result.Skipped)
		assert.Empty(t, result.Failed)

		for _, item := range batch {
			entry, ok := archive.Entry(item.Filename)
			require.True(t, ok, item.Filename)
			assert.Equal(t, []byte("bytes of "+item.ID), archive.data[item.Filename])
			assert.True(t, entry.CreatedAt.Equal(created))
			assert.True(t, entry.ModifiedAt.Equal(modified))
		}
	})

	t.Run("never exceeds the worker limit", func(t *testing.T) {
		t.Parallel()

		tracker := &concurrencyTracker{}
		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, item *mediavault.MediaItem) ([]byte, error) {
					tracker.enter()
					defer tracker.exit()
					time.Sleep(2 * time.Millisecond)
					return []byte("x"), nil
				},
			},
			Archive: newMemoryArchive(t),
			Retryer: noRetry(),
			Workers: 10,
		}

		result, err := d.DownloadBatch(context.Background(), fakeItems(100))

		require.NoError(t, err)
		assert.Len(t, result.Downloaded, 100)
		assert.LessOrEqual(t, tracker.Peak(), 10)
	})

	t.Run("one item's failure never blocks the rest of the batch", func(t *testing.T) {
		t.Parallel()

		batch := fakeItems(6)
		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, item *mediavault.MediaItem) ([]byte, error) {
					if item.ID == batch[2].ID {
						return nil, mediavault.Errorf(mediavault.ENOTFOUND, "gone")
					}
					return []byte("x"), nil
				},
			},
			Archive: newMemoryArchive(t),
			Retryer: noRetry(),
			Workers: 3,
		}

		result, err := d.DownloadBatch(context.Background(), batch)

		require.NoError(t, err)
		assert.Len(t, result.Downloaded, 5)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, batch[2].ID, result.Failed[0].Item.ID)
		assert.Equal(t, mediavault.ENOTFOUND, mediavault.ErrorCode(result.Failed[0].Err))
	})

	t.Run("retries transient fetch faults", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		calls := 0
		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, _ *mediavault.MediaItem) ([]byte, error) {
					mu.Lock()
					defer mu.Unlock()
					calls++
					if calls < 3 {
						return nil, mediavault.Errorf(mediavault.EUNAVAILABLE, "overloaded")
					}
					return []byte("x"), nil
				},
			},
			Archive: newMemoryArchive(t),
			Retryer: noRetry(),
			Workers: 1,
		}

		result, err := d.DownloadBatch(context.Background(), fakeItems(1))

		require.NoError(t, err)
		assert.Len(t, result.Downloaded, 1)
		assert.Equal(t, 3, calls)
	})

	t.Run("skips current entries without fetching", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		modified := time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC)
		batch := fakeItems(2)
		batch[0].CreatedAt, batch[0].ModifiedAt = created, modified
		batch[1].CreatedAt, batch[1].ModifiedAt = created, modified

		archive := newMemoryArchive(t)
		require.NoError(t, archive.Upsert(context.Background(), batch[0].Filename, []byte("x"), created, modified))

		fetched := 0
		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, _ *mediavault.MediaItem) ([]byte, error) {
					fetched++
					return []byte("x"), nil
				},
			},
			Archive: archive,
			Retryer: noRetry(),
			Workers: 1,
		}

		result, err := d.DownloadBatch(context.Background(), batch)

		require.NoError(t, err)
		assert.Len(t, result.Downloaded, 1)
		assert.Len(t, result.Skipped, 1)
		assert.Equal(t, 1, fetched)
	})

	t.Run("patches stale timestamps without re-fetching", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		modified := time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC)
		batch := fakeItems(1)
		batch[0].CreatedAt, batch[0].ModifiedAt = created, modified

		archive := newMemoryArchive(t)
		// Entry exists with wall-clock timestamps from an earlier run.
		require.NoError(t, archive.Upsert(context.Background(), batch[0].Filename, []byte("x"),
			time.Now(), time.Now()))

		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, _ *mediavault.MediaItem) ([]byte, error) {
					t.Error("unexpected fetch")
					return nil, nil
				},
			},
			Archive: archive,
			Retryer: noRetry(),
			Workers: 1,
		}

		result, err := d.DownloadBatch(context.Background(), batch)

		require.NoError(t, err)
		assert.Empty(t, result.Downloaded)
		assert.Len(t, result.Skipped, 1)

		entry, ok := archive.Entry(batch[0].Filename)
		require.True(t, ok)
		assert.True(t, entry.CreatedAt.Equal(created))
		assert.True(t, entry.ModifiedAt.Equal(modified))
	})

	t.Run("archived items keep the batch listing order", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		batch := fakeItems(6)
		for _, item := range batch {
			item.CreatedAt, item.ModifiedAt = created, created
		}

		// A skipped item in the middle and one at the front; the rest are
		// fetched concurrently and finish in arbitrary order.
		archive := newMemoryArchive(t)
		require.NoError(t, archive.Upsert(context.Background(), batch[0].Filename, []byte("x"), created, created))
		require.NoError(t, archive.Upsert(context.Background(), batch[3].Filename, []byte("x"), created, created))

		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, item *mediavault.MediaItem) ([]byte, error) {
					if item.ID == batch[1].ID {
						time.Sleep(5 * time.Millisecond)
					}
					if item.ID == batch[2].ID {
						return nil, mediavault.Errorf(mediavault.ENOTFOUND, "gone")
					}
					return []byte("x"), nil
				},
			},
			Archive: archive,
			Retryer: noRetry(),
			Workers: 4,
		}

		result, err := d.DownloadBatch(context.Background(), batch)

		require.NoError(t, err)
		assert.Equal(t,
			[]*mediavault.MediaItem{batch[0], batch[1], batch[3], batch[4], batch[5]},
			result.Archived(batch))
	})

	t.Run("archive failure aborts the batch", func(t *testing.T) {
		t.Parallel()

		d := &transfer.Downloader{
			Library: &mock.RemoteLibrary{
				FetchFn: func(_ context.Context, _ *mediavault.MediaItem) ([]byte, error) {
					return []byte("x"), nil
				},
			},
			Archive: &mock.Archive{
				EntryFn: func(string) (*mediavault.ArchiveEntry, bool) { return nil, false },
				UpsertFn: func(context.Context, string, []byte, time.Time, time.Time) error {
					return mediavault.Errorf(mediavault.EINTERNAL, "disk full")
				},
			},
			Retryer: noRetry(),
			Workers: 2,
		}

		_, err := d.DownloadBatch(context.Background(), fakeItems(4))

		require.Error(t, err)
		assert.Equal(t, mediavault.EINTERNAL, mediavault.ErrorCode(err))
	})
}
