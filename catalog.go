package cardgap

import (
	"context"
	"time"
)

// ModelInfo represents a model listed by the hub catalog.
type ModelInfo struct {
	ID           string    `json:"id"`
	Downloads    int       `json:"downloads"`
	Likes        int       `json:"likes"`
	Tags         []string  `json:"tags"`
	PipelineTag  string    `json:"pipelineTag"`
	LastModified time.Time `json:"lastModified"`
}

// CatalogQuery represents a filter for ListModels.
// Results are always ranked by downloads, most downloaded first.
type CatalogQuery struct {
	Tag string `json:"tag"`

	// Limit caps the number of models returned. Zero means no limit.
	Limit int `json:"limit"`
}

// Validate returns an error if the query contains invalid fields.
func (q *CatalogQuery) Validate() error {
	if q.Tag == "" {
		return Errorf(EINVALID, "catalog tag required")
	}
	if q.Limit < 0 {
		return Errorf(EINVALID, "catalog limit must not be negative")
	}
	return nil
}

// Catalog lists models from a model hub.
type Catalog interface {
	// ListModels calls fn for each model matching the query, in rank order.
	// Listing stops at the first error returned by fn.
	ListModels(ctx context.Context, q CatalogQuery, fn func(*ModelInfo) error) error
}
