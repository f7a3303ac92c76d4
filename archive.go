package mediavault

import (
	"context"
	"time"
)

// ArchiveEntry describes one stored entry in the local archive.
// Filenames are unique within the archive; timestamps mirror the remote
// collection, not local download time.
type ArchiveEntry struct {
	Filename   string
	Size       int64
	Hash       string // content hash of the stored bytes
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Current reports whether the entry's timestamps match the given pair.
// Used for skip-logic: a current entry does not need re-download.
func (e *ArchiveEntry) Current(createdAt, modifiedAt time.Time) bool {
	return e.CreatedAt.Equal(createdAt) && e.ModifiedAt.Equal(modifiedAt)
}

// Archive persists downloaded media entries with their remote timestamps.
// Implementations must serialize concurrent mutation; the engine routes all
// writes through a single goroutine but implementations may be shared.
type Archive interface {
	// Entry returns the stored entry for a filename, if any.
	Entry(filename string) (*ArchiveEntry, bool)

	// Upsert writes or overwrites the named entry with the given bytes and
	// timestamps. Calling it twice with identical arguments leaves the
	// archive in the same observable state.
	Upsert(ctx context.Context, filename string, data []byte, createdAt, modifiedAt time.Time) error

	// PatchTimestamps updates only the stored timestamps of an existing
	// entry without touching its bytes. Returns ENOTFOUND if the entry
	// does not exist.
	PatchTimestamps(ctx context.Context, filename string, createdAt, modifiedAt time.Time) error

	// Commit durably writes all staged changes. The engine commits at
	// every batch boundary so a later failure never loses prior batches.
	Commit(ctx context.Context) error
}
