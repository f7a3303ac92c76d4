package mock

import (
	"context"

	"github.com/jciesla/mediavault"
)

var _ mediavault.RunService = (*RunService)(nil)

// RunService is a mock implementation of mediavault.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, run *mediavault.Run) error
	FindRunsFn  func(ctx context.Context, filter mediavault.RunFilter) ([]*mediavault.Run, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *mediavault.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindRuns(ctx context.Context, filter mediavault.RunFilter) ([]*mediavault.Run, error) {
	return s.FindRunsFn(ctx, filter)
}
