package cardgap

import (
	"context"
	"time"
)

// Card represents a model's documentation card.
type Card struct {
	ModelID string `json:"modelId"`

	// Content is the raw card file, including any YAML front matter.
	Content string `json:"content"`

	// Text is the card body after the front matter.
	Text string `json:"text"`

	// Metadata holds the parsed front matter. It is empty when the card has
	// no front matter or the front matter could not be parsed.
	Metadata map[string]any `json:"metadata,omitempty"`

	ContentHash string    `json:"contentHash"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Validate returns an error if the card contains invalid fields.
func (c *Card) Validate() error {
	if c.ModelID == "" {
		return Errorf(EINVALID, "card model ID required")
	}
	return nil
}

// CardService retrieves model cards.
type CardService interface {
	// FetchCard retrieves the card of a model.
	// Returns ENOTFOUND if the model has no card.
	FetchCard(ctx context.Context, modelID string) (*Card, error)
}

// CardCache stores previously fetched cards.
type CardCache interface {
	// FindCard retrieves a cached card.
	// Returns ENOTFOUND if the card is not cached.
	FindCard(ctx context.Context, modelID string) (*Card, error)

	// SaveCard inserts or replaces a cached card.
	SaveCard(ctx context.Context, card *Card) error
}
