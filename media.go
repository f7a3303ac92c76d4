package mediavault

import (
	"context"
	"time"
)

// MediaItem represents a single item in the remote media collection.
// Items are immutable once listed; the identifier is stable across
// listing calls within a session.
type MediaItem struct {
	ID         string    // opaque remote identifier
	Filename   string    // unique within the collection
	Size       int64     // byte size as reported by the listing
	CreatedAt  time.Time // remote creation timestamp
	ModifiedAt time.Time // remote modification timestamp
}

// Validate returns an error if the item contains invalid fields.
func (m *MediaItem) Validate() error {
	if m.ID == "" {
		return Errorf(EINVALID, "media item ID required")
	}
	if m.Filename == "" {
		return Errorf(EINVALID, "media item filename required")
	}
	return nil
}

// Page is one page of a remote listing. An empty Cursor means the listing
// started from the beginning; a nil NextCursor means the listing is done.
type Page struct {
	Items      []*MediaItem
	NextCursor *string
}

// RemoteLibrary is the remote media collection client consumed by the
// engine. Implementations own authentication and the wire protocol; the
// engine only borrows the client and never closes it.
//
// Errors must carry application error codes so the engine can classify
// them: ECONFLICT and EUNAVAILABLE are retried, everything else is
// treated as permanent.
type RemoteLibrary interface {
	// ListPage returns one page of items starting at cursor.
	// An empty cursor starts from the beginning of the collection.
	ListPage(ctx context.Context, cursor string) (*Page, error)

	// Fetch downloads the content of an item.
	Fetch(ctx context.Context, item *MediaItem) ([]byte, error)

	// Delete permanently removes an item from the remote collection.
	Delete(ctx context.Context, item *MediaItem) error
}
