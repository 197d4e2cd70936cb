package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var _ cardgap.Catalog = (*Catalog)(nil)

// Catalog is a mock implementation of cardgap.Catalog.
type Catalog struct {
	ListModelsFn func(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error
}

func (c *Catalog) ListModels(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
	return c.ListModelsFn(ctx, q, fn)
}

// ListIDs returns a ListModelsFn that lists models with the given IDs,
// honouring the query limit.
func ListIDs(ids ...string) func(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
	return func(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
		for i, id := range ids {
			if q.Limit > 0 && i >= q.Limit {
				return nil
			}
			if err := fn(&cardgap.ModelInfo{ID: id}); err != nil {
				return err
			}
		}
		return nil
	}
}
