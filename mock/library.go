package mock

import (
	"context"

	"github.com/jciesla/mediavault"
)

var _ mediavault.RemoteLibrary = (*RemoteLibrary)(nil)

// RemoteLibrary is a mock implementation of mediavault.RemoteLibrary.
type RemoteLibrary struct {
	ListPageFn func(ctx context.Context, cursor string) (*mediavault.Page, error)
	FetchFn    func(ctx context.Context, item *mediavault.MediaItem) ([]byte, error)
	DeleteFn   func(ctx context.Context, item *mediavault.MediaItem) error
}

func (l *RemoteLibrary) ListPage(ctx context.Context, cursor string) (*mediavault.Page, error) {
	return l.ListPageFn(ctx, cursor)
}

func (l *RemoteLibrary) Fetch(ctx context.Context, item *mediavault.MediaItem) ([]byte, error) {
	return l.FetchFn(ctx, item)
}

func (l *RemoteLibrary) Delete(ctx context.Context, item *mediavault.MediaItem) error {
	return l.DeleteFn(ctx, item)
}
