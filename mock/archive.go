package mock

import (
	"context"
	"time"

	"github.com/jciesla/mediavault"
)

var _ mediavault.Archive = (*Archive)(nil)

// Archive is a mock implementation of mediavault.Archive.
type Archive struct {
	EntryFn           func(filename string) (*mediavault.ArchiveEntry, bool)
	UpsertFn          func(ctx context.Context, filename string, data []byte, createdAt, modifiedAt time.Time) error
	PatchTimestampsFn func(ctx context.Context, filename string, createdAt, modifiedAt time.Time) error
	CommitFn          func(ctx context.Context) error
}

func (a *Archive) Entry(filename string) (*mediavault.ArchiveEntry, bool) {
	return a.EntryFn(filename)
}

func (a *Archive) Upsert(ctx context.Context, filename string, data []byte, createdAt, modifiedAt time.Time) error {
	return a.UpsertFn(ctx, filename, data, createdAt, modifiedAt)
}

func (a *Archive) PatchTimestamps(ctx context.Context, filename string, createdAt, modifiedAt time.Time) error {
	return a.PatchTimestampsFn(ctx, filename, createdAt, modifiedAt)
}

func (a *Archive) Commit(ctx context.Context) error {
	return a.CommitFn(ctx)
}
