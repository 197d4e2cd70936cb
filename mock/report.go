package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var _ cardgap.ReportService = (*ReportService)(nil)

// ReportService is a mock implementation of cardgap.ReportService.
type ReportService struct {
	ReportFn func(ctx context.Context, req cardgap.ReportRequest) (*cardgap.Report, error)
}

func (s *ReportService) Report(ctx context.Context, req cardgap.ReportRequest) (*cardgap.Report, error) {
	return s.ReportFn(ctx, req)
}
