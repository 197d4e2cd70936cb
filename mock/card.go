package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var (
	_ cardgap.CardService = (*CardService)(nil)
	_ cardgap.CardCache   = (*CardCache)(nil)
)

// CardService is a mock implementation of cardgap.CardService.
type CardService struct {
	FetchCardFn func(ctx context.Context, modelID string) (*cardgap.Card, error)
}

func (s *CardService) FetchCard(ctx context.Context, modelID string) (*cardgap.Card, error) {
	return s.FetchCardFn(ctx, modelID)
}

// CardCache is a mock implementation of cardgap.CardCache.
type CardCache struct {
	FindCardFn func(ctx context.Context, modelID string) (*cardgap.Card, error)
	SaveCardFn func(ctx context.Context, card *cardgap.Card) error
}

func (c *CardCache) FindCard(ctx context.Context, modelID string) (*cardgap.Card, error) {
	return c.FindCardFn(ctx, modelID)
}

func (c *CardCache) SaveCard(ctx context.Context, card *cardgap.Card) error {
	return c.SaveCardFn(ctx, card)
}
