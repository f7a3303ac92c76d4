package transfer

import (
	"context"

	"github.com/jciesla/mediavault"
	"golang.org/x/time/rate"
)

var _ mediavault.RemoteLibrary = (*RateLimitedLibrary)(nil)

// RateLimitedLibrary wraps a RemoteLibrary with a token-bucket rate limit
// shared across listing, fetch, and delete calls. The remote store's rate
// limits are otherwise respected only implicitly through batch size and
// worker count.
type RateLimitedLibrary struct {
	next    mediavault.RemoteLibrary
	limiter *rate.Limiter
}

// NewRateLimitedLibrary creates a RateLimitedLibrary allowing rps requests
// per second with a burst of 1 (no bursting allowed).
func NewRateLimitedLibrary(next mediavault.RemoteLibrary, rps float64) *RateLimitedLibrary {
	return &RateLimitedLibrary{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// ListPage waits for the rate limit, then delegates.
func (l *RateLimitedLibrary) ListPage(ctx context.Context, cursor string) (*mediavault.Page, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.ListPage(ctx, cursor)
}

// Fetch waits for the rate limit, then delegates.
func (l *RateLimitedLibrary) Fetch(ctx context.Context, item *mediavault.MediaItem) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Fetch(ctx, item)
}

// Delete waits for the rate limit, then delegates.
func (l *RateLimitedLibrary) Delete(ctx context.Context, item *mediavault.MediaItem) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.next.Delete(ctx, item)
}
