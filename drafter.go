package cardgap

import "context"

// Drafter writes draft content for sections a model card is missing.
type Drafter interface {
	// Draft returns markdown for the missing sections of the card.
	// Returns EINVALID if no sections are missing.
	Draft(ctx context.Context, card *Card, missing []MissingHeader) (string, error)
}
