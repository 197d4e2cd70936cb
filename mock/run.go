package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var _ cardgap.RunService = (*RunService)(nil)

// RunService is a mock implementation of cardgap.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, run *cardgap.HarvestRun) error
	FinishRunFn func(ctx context.Context, run *cardgap.HarvestRun) error
	FindRunsFn  func(ctx context.Context, filter cardgap.RunFilter) ([]*cardgap.HarvestRun, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *cardgap.HarvestRun) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FinishRun(ctx context.Context, run *cardgap.HarvestRun) error {
	return s.FinishRunFn(ctx, run)
}

func (s *RunService) FindRuns(ctx context.Context, filter cardgap.RunFilter) ([]*cardgap.HarvestRun, error) {
	return s.FindRunsFn(ctx, filter)
}
