package harvest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/fs"
	"github.com/fwojciec/cardgap/harvest"
	"github.com/fwojciec/cardgap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelIDs(n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("org/model-%03d", i)
	}
	return ids
}

func cardsWithHeaders() *mock.CardService {
	return &mock.CardService{
		FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
			return &cardgap.Card{ModelID: id, Content: "---\nlicense: mit\n---\n# " + id + "\n## Overview\n## License\n"}, nil
		},
	}
}

func readSnapshot(t *testing.T, path string) []*cardgap.ModelRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var recs []*cardgap.ModelRecord
	require.NoError(t, json.Unmarshal(data, &recs))
	return recs
}

func TestHarvester_Harvest(t *testing.T) {
	t.Parallel()

	t.Run("flushes every batch and writes an empty final snapshot", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs(modelIDs(500)...)},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(dir),
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 500, result.Records)
		assert.Equal(t, 2, result.Batches)

		first := readSnapshot(t, filepath.Join(dir, "x_0_250.json"))
		second := readSnapshot(t, filepath.Join(dir, "x_250_500.json"))
		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		require.Len(t, first, 250)
		require.Len(t, second, 250)
		assert.Empty(t, final)
		assert.Equal(t, "org/model-000", first[0].ID)
		assert.Equal(t, "org/model-249", first[249].ID)
		assert.Equal(t, "org/model-250", second[0].ID)
		assert.Equal(t, []string{"## Overview", "## License"}, first[0].Headers)
	})

	t.Run("writes remainder to the final snapshot", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs(modelIDs(7)...)},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(dir),
			BatchSize: 3,
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 7, result.Records)
		assert.Len(t, readSnapshot(t, filepath.Join(dir, "x_0_3.json")), 3)
		assert.Len(t, readSnapshot(t, filepath.Join(dir, "x_3_6.json")), 3)
		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		require.Len(t, final, 1)
		assert.Equal(t, "org/model-006", final[0].ID)

		loaded, err := fs.NewSnapshotStore(dir).Load(context.Background(), []string{"x"})
		require.NoError(t, err)
		assert.Len(t, loaded, 7)
	})

	t.Run("passes the limit to the catalog", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var gotQuery cardgap.CatalogQuery
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: func(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
				gotQuery = q
				return mock.ListIDs(modelIDs(10)...)(ctx, q, fn)
			}},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(dir),
		}

		result, err := h.Harvest(context.Background(), "medical", harvest.Options{Limit: 5}, nil)

		require.NoError(t, err)
		assert.Equal(t, cardgap.CatalogQuery{Tag: "medical", Limit: 5}, gotQuery)
		assert.Equal(t, 5, result.Records)
	})

	t.Run("records models without a card with empty headers", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: mock.ListIDs("has-card", "no-card")},
			Cards: &mock.CardService{FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				if id == "no-card" {
					return nil, cardgap.Errorf(cardgap.ENOTFOUND, "no card")
				}
				return &cardgap.Card{ModelID: id, Content: "\n## Uses\n"}, nil
			}},
			Snapshots: fs.NewSnapshotStore(dir),
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Missing)
		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		require.Len(t, final, 2)
		assert.Equal(t, []string{"## Uses"}, final[0].Headers)
		assert.Empty(t, final[1].Headers)

		data, err := os.ReadFile(filepath.Join(dir, "x.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `{"no-card":[]}`)
	})

	t.Run("skips models listed twice", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs("a", "b", "a")},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(dir),
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Records)
	})

	t.Run("skips cached tags unless forced", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewSnapshotStore(dir)
		require.NoError(t, store.WriteFinal(context.Background(), "x", nil))

		var listed atomic.Int32
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: func(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
				listed.Add(1)
				return mock.ListIDs("a")(ctx, q, fn)
			}},
			Cards:     cardsWithHeaders(),
			Snapshots: store,
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Equal(t, int32(0), listed.Load())

		result, err = h.Harvest(context.Background(), "x", harvest.Options{Force: true}, nil)
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, int32(1), listed.Load())
		assert.Len(t, readSnapshot(t, filepath.Join(dir, "x.json")), 1)
	})

	t.Run("replaces batches of an earlier harvest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewSnapshotStore(dir)
		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs(modelIDs(5)...)},
			Cards:     cardsWithHeaders(),
			Snapshots: store,
			BatchSize: 2,
		}
		ctx := context.Background()

		_, err := h.Harvest(ctx, "x", harvest.Options{}, nil)
		require.NoError(t, err)

		result, err := h.Harvest(ctx, "x", harvest.Options{Force: true, Limit: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Records)

		records, err := store.Load(ctx, []string{"x"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "org/model-000", records[0].ID)
		assert.NoFileExists(t, filepath.Join(dir, "x_0_2.json"))
		assert.NoFileExists(t, filepath.Join(dir, "x_2_4.json"))
	})

	t.Run("aborts without final snapshot when a card keeps failing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var attempts atomic.Int32
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: mock.ListIDs("ok", "broken")},
			Cards: &mock.CardService{FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				if id == "broken" {
					attempts.Add(1)
					return nil, errors.New("connection reset")
				}
				return &cardgap.Card{ModelID: id}, nil
			}},
			Snapshots:   fs.NewSnapshotStore(dir),
			RetryDelays: []time.Duration{time.Millisecond, time.Millisecond},
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, int32(3), attempts.Load())
		_, statErr := os.Stat(filepath.Join(dir, "x.json"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("preserves catalog order with concurrent fetches", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := modelIDs(40)
		index := make(map[string]int, len(ids))
		for i, id := range ids {
			index[id] = i
		}
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: mock.ListIDs(ids...)},
			Cards: &mock.CardService{FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				// Later models answer faster.
				time.Sleep(time.Duration(len(ids)-index[id]) * 50 * time.Microsecond)
				return &cardgap.Card{ModelID: id, Content: "\n## " + id}, nil
			}},
			Snapshots:   fs.NewSnapshotStore(dir),
			Concurrency: 8,
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)
		require.NoError(t, err)

		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		require.Len(t, final, 40)
		for i, rec := range final {
			assert.Equal(t, ids[i], rec.ID)
			assert.Equal(t, []string{"## " + ids[i]}, rec.Headers)
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs(modelIDs(5)...)},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(dir),
			BatchSize: 2,
		}

		var mu sync.Mutex
		counts := make(map[harvest.ProgressType]int)
		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, func(e harvest.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "x", e.Tag)
			counts[e.Type]++
		})

		require.NoError(t, err)
		assert.Equal(t, 5, counts[harvest.ProgressFetched])
		assert.Equal(t, 2, counts[harvest.ProgressFlushed])
		assert.Equal(t, 1, counts[harvest.ProgressFinished])
	})

	t.Run("rejects invalid tag", func(t *testing.T) {
		t.Parallel()

		h := &harvest.Harvester{Snapshots: fs.NewSnapshotStore(t.TempDir())}

		_, err := h.Harvest(context.Background(), "", harvest.Options{}, nil)

		assert.Equal(t, cardgap.EINVALID, cardgap.ErrorCode(err))
	})

	t.Run("returns lock errors", func(t *testing.T) {
		t.Parallel()

		h := &harvest.Harvester{
			Snapshots: &mock.SnapshotStore{LockFn: func(context.Context, string) (func() error, error) {
				return nil, cardgap.Errorf(cardgap.ECONFLICT, "locked")
			}},
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		assert.Equal(t, cardgap.ECONFLICT, cardgap.ErrorCode(err))
	})
}

func TestHarvester_Cache(t *testing.T) {
	t.Parallel()

	t.Run("uses cached cards and fills the cache", func(t *testing.T) {
		t.Parallel()

		var saved []string
		cache := &mock.CardCache{
			FindCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				if id == "cached" {
					return &cardgap.Card{ModelID: id, Content: "\n## From Cache", FetchedAt: time.Now()}, nil
				}
				return nil, cardgap.Errorf(cardgap.ENOTFOUND, "not cached")
			},
			SaveCardFn: func(_ context.Context, card *cardgap.Card) error {
				saved = append(saved, card.ModelID)
				return nil
			},
		}
		var fetched []string
		cards := &mock.CardService{FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
			fetched = append(fetched, id)
			return &cardgap.Card{ModelID: id, Content: "\n## From Hub"}, nil
		}}

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog:     &mock.Catalog{ListModelsFn: mock.ListIDs("cached", "fresh")},
			Cards:       cards,
			Cache:       cache,
			Snapshots:   fs.NewSnapshotStore(dir),
			Concurrency: 1,
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"fresh"}, fetched)
		assert.Equal(t, []string{"fresh"}, saved)
		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		assert.Equal(t, []string{"## From Cache"}, final[0].Headers)
		assert.Equal(t, []string{"## From Hub"}, final[1].Headers)
	})

	t.Run("refetches cards older than the TTL", func(t *testing.T) {
		t.Parallel()

		cache := &mock.CardCache{
			FindCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				return &cardgap.Card{ModelID: id, Content: "\n## Stale", FetchedAt: time.Now().Add(-48 * time.Hour)}, nil
			},
			SaveCardFn: func(context.Context, *cardgap.Card) error { return nil },
		}

		dir := t.TempDir()
		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: mock.ListIDs("m")},
			Cards: &mock.CardService{FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				return &cardgap.Card{ModelID: id, Content: "\n## Fresh"}, nil
			}},
			Cache:     cache,
			CacheTTL:  24 * time.Hour,
			Snapshots: fs.NewSnapshotStore(dir),
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)
		require.NoError(t, err)

		final := readSnapshot(t, filepath.Join(dir, "x.json"))
		assert.Equal(t, []string{"## Fresh"}, final[0].Headers)
	})
}

func TestHarvester_Runs(t *testing.T) {
	t.Parallel()

	t.Run("records a successful run", func(t *testing.T) {
		t.Parallel()

		var finished *cardgap.HarvestRun
		runs := &mock.RunService{
			CreateRunFn: func(_ context.Context, run *cardgap.HarvestRun) error {
				run.ID = "run-1"
				return nil
			},
			FinishRunFn: func(_ context.Context, run *cardgap.HarvestRun) error {
				finished = run
				return nil
			},
		}

		h := &harvest.Harvester{
			Catalog:   &mock.Catalog{ListModelsFn: mock.ListIDs(modelIDs(3)...)},
			Cards:     cardsWithHeaders(),
			Snapshots: fs.NewSnapshotStore(t.TempDir()),
			Runs:      runs,
			BatchSize: 2,
		}

		result, err := h.Harvest(context.Background(), "x", harvest.Options{Limit: 3}, nil)

		require.NoError(t, err)
		assert.Equal(t, "run-1", result.RunID)
		require.NotNil(t, finished)
		assert.Equal(t, cardgap.RunSucceeded, finished.Status)
		assert.Equal(t, 3, finished.Records)
		assert.Equal(t, 1, finished.Batches)
		assert.Equal(t, 3, finished.Limit)
	})

	t.Run("records a failed run", func(t *testing.T) {
		t.Parallel()

		var finished *cardgap.HarvestRun
		runs := &mock.RunService{
			CreateRunFn: func(context.Context, *cardgap.HarvestRun) error { return nil },
			FinishRunFn: func(_ context.Context, run *cardgap.HarvestRun) error {
				finished = run
				return nil
			},
		}

		h := &harvest.Harvester{
			Catalog: &mock.Catalog{ListModelsFn: func(context.Context, cardgap.CatalogQuery, func(*cardgap.ModelInfo) error) error {
				return errors.New("hub down")
			}},
			Snapshots: fs.NewSnapshotStore(t.TempDir()),
			Runs:      runs,
		}

		_, err := h.Harvest(context.Background(), "x", harvest.Options{}, nil)

		require.Error(t, err)
		require.NotNil(t, finished)
		assert.Equal(t, cardgap.RunFailed, finished.Status)
		assert.Equal(t, "hub down", finished.Error)
	})
}
