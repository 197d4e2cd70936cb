package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/cardgap"
)

// Ensure LoggingCardService implements cardgap.CardService.
var _ cardgap.CardService = (*LoggingCardService)(nil)

// LoggingCardService wraps a CardService with debug logging.
type LoggingCardService struct {
	next   cardgap.CardService
	logger *slog.Logger
}

// NewLoggingCardService creates a new LoggingCardService.
func NewLoggingCardService(next cardgap.CardService, logger *slog.Logger) *LoggingCardService {
	return &LoggingCardService{next: next, logger: logger}
}

// FetchCard delegates to the wrapped service and logs the operation.
// Missing cards are logged without an error.
func (s *LoggingCardService) FetchCard(ctx context.Context, modelID string) (card *cardgap.Card, err error) {
	defer func(begin time.Time) {
		bytes := 0
		if card != nil {
			bytes = len(card.Content)
		}
		attrs := []any{
			"model", modelID,
			"bytes", bytes,
			"duration", time.Since(begin),
		}
		switch {
		case cardgap.ErrorCode(err) == cardgap.ENOTFOUND:
			s.logger.Debug("fetch card", append(attrs, "missing", true)...)
		case err != nil:
			s.logger.Warn("fetch card", append(attrs, "err", err)...)
		default:
			s.logger.Debug("fetch card", attrs...)
		}
	}(time.Now())
	return s.next.FetchCard(ctx, modelID)
}
