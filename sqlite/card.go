package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/bloom"
)

// Compile-time interface verification.
var _ cardgap.CardCache = (*CardService)(nil)

// CardService implements cardgap.CardCache using SQLite.
//
// A Bloom filter of cached model IDs, loaded by Warm, answers lookups for
// uncached models without a query. Before Warm every lookup queries.
// CardService is safe for concurrent use.
type CardService struct {
	db *DB

	mu     sync.RWMutex // guards filter
	filter *bloom.Filter
}

// NewCardService creates a new CardService.
func NewCardService(db *DB) *CardService {
	return &CardService{db: db}
}

// Warm loads the IDs of all cached cards into a Bloom filter sized for
// expected entries.
func (s *CardService) Warm(ctx context.Context, expected uint) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count); err != nil {
		return err
	}
	if n := uint(count) * 2; n > expected {
		expected = n
	}
	if expected == 0 {
		expected = 1000
	}

	filter := bloom.NewFilter(expected, 0.01)
	rows, err := s.db.QueryContext(ctx, `SELECT model_id FROM cards`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		filter.Add(id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	return nil
}

// FindCard retrieves a cached card.
func (s *CardService) FindCard(ctx context.Context, modelID string) (*cardgap.Card, error) {
	if !s.mayContain(modelID) {
		return nil, cardgap.Errorf(cardgap.ENOTFOUND, "card not cached")
	}

	var card cardgap.Card
	var metadata, fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT model_id, content, text, metadata, content_hash, fetched_at
		FROM cards
		WHERE model_id = ?
	`, modelID).Scan(&card.ModelID, &card.Content, &card.Text, &metadata, &card.ContentHash, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, cardgap.Errorf(cardgap.ENOTFOUND, "card not cached")
	}
	if err != nil {
		return nil, err
	}

	if card.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
		return nil, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &card.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}

	return &card, nil
}

// SaveCard inserts or replaces a cached card.
func (s *CardService) SaveCard(ctx context.Context, card *cardgap.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}

	if card.FetchedAt.IsZero() {
		card.FetchedAt = time.Now().UTC()
	}

	var metadata string
	if len(card.Metadata) > 0 {
		b, err := json.Marshal(card.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (model_id, content, text, metadata, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_id) DO UPDATE SET
			content = excluded.content,
			text = excluded.text,
			metadata = excluded.metadata,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, card.ModelID, card.Content, card.Text, metadata, card.ContentHash,
		formatTime(card.FetchedAt))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.filter != nil {
		s.filter.Add(card.ModelID)
	}
	s.mu.Unlock()
	return nil
}

// mayContain reports whether modelID may be cached. It is true for every
// model until Warm has run.
func (s *CardService) mayContain(modelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter == nil || s.filter.Test(modelID)
}
