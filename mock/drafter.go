package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var _ cardgap.Drafter = (*Drafter)(nil)

// Drafter is a mock implementation of cardgap.Drafter.
type Drafter struct {
	DraftFn func(ctx context.Context, card *cardgap.Card, missing []cardgap.MissingHeader) (string, error)
}

func (d *Drafter) Draft(ctx context.Context, card *cardgap.Card, missing []cardgap.MissingHeader) (string, error) {
	return d.DraftFn(ctx, card, missing)
}
