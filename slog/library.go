// Package slog provides logging decorators for mediavault services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jciesla/mediavault"
)

// Ensure LoggingLibrary implements mediavault.RemoteLibrary.
var _ mediavault.RemoteLibrary = (*LoggingLibrary)(nil)

// LoggingLibrary wraps a RemoteLibrary with duration-annotated logging.
type LoggingLibrary struct {
	next   mediavault.RemoteLibrary
	logger *slog.Logger
}

// NewLoggingLibrary creates a new LoggingLibrary.
func NewLoggingLibrary(next mediavault.RemoteLibrary, logger *slog.Logger) *LoggingLibrary {
	return &LoggingLibrary{next: next, logger: logger}
}

// ListPage delegates to the wrapped library and logs the operation.
func (l *LoggingLibrary) ListPage(ctx context.Context, cursor string) (page *mediavault.Page, err error) {
	defer func(begin time.Time) {
		count := 0
		if page != nil {
			count = len(page.Items)
		}
		l.logger.Info("list page",
			"cursor", cursor,
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.ListPage(ctx, cursor)
}

// Fetch delegates to the wrapped library and logs the operation.
func (l *LoggingLibrary) Fetch(ctx context.Context, item *mediavault.MediaItem) (data []byte, err error) {
	defer func(begin time.Time) {
		l.logger.Info("fetch item",
			"id", item.ID,
			"filename", item.Filename,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Fetch(ctx, item)
}

// Delete delegates to the wrapped library and logs the operation.
func (l *LoggingLibrary) Delete(ctx context.Context, item *mediavault.MediaItem) (err error) {
	defer func(begin time.Time) {
		l.logger.Info("delete item",
			"id", item.ID,
			"filename", item.Filename,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Delete(ctx, item)
}
