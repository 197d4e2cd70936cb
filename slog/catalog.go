// Package slog provides logging decorators for cardgap services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/cardgap"
)

// Ensure LoggingCatalog implements cardgap.Catalog.
var _ cardgap.Catalog = (*LoggingCatalog)(nil)

// LoggingCatalog wraps a Catalog with logging of each listing.
type LoggingCatalog struct {
	next   cardgap.Catalog
	logger *slog.Logger
}

// NewLoggingCatalog creates a new LoggingCatalog.
func NewLoggingCatalog(next cardgap.Catalog, logger *slog.Logger) *LoggingCatalog {
	return &LoggingCatalog{next: next, logger: logger}
}

// ListModels delegates to the wrapped catalog and logs how many models it listed.
func (c *LoggingCatalog) ListModels(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) (err error) {
	count := 0
	defer func(begin time.Time) {
		c.logger.Info("list models",
			"tag", q.Tag,
			"limit", q.Limit,
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.ListModels(ctx, q, func(m *cardgap.ModelInfo) error {
		count++
		return fn(m)
	})
}
