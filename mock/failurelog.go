package mock

import (
	"context"

	"github.com/jciesla/mediavault"
)

var _ mediavault.FailureLog = (*FailureLog)(nil)

// FailureLog is a mock implementation of mediavault.FailureLog.
type FailureLog struct {
	AppendFn func(ctx context.Context, identifier, reason string) error
}

func (l *FailureLog) Append(ctx context.Context, identifier, reason string) error {
	return l.AppendFn(ctx, identifier, reason)
}
