// Package harvest implements the fetch-and-persist loop: it lists the models
// of a tag, fetches each model card, extracts its headers, and flushes the
// records to snapshots in fixed-size batches.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/cardgap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of cards fetched in parallel per batch.
const DefaultConcurrency = 4

// Harvester fetches model cards for a tag and persists their headers.
type Harvester struct {
	Catalog   cardgap.Catalog
	Cards     cardgap.CardService
	Snapshots cardgap.SnapshotStore

	// Cache, if set, is consulted before Cards and filled after each fetch.
	Cache cardgap.CardCache

	// CacheTTL bounds the age of cached cards. Zero accepts any age.
	CacheTTL time.Duration

	// Runs, if set, records each harvest.
	Runs cardgap.RunService

	// Extractor defaults to cardgap.MarkdownExtractor.
	Extractor cardgap.HeaderExtractor

	// BatchSize defaults to cardgap.DefaultBatchSize.
	BatchSize int

	// Concurrency defaults to DefaultConcurrency.
	Concurrency int

	// RetryDelays defaults to DefaultRetryDelays.
	RetryDelays []time.Duration

	Logger *slog.Logger
}

// Options configures a single harvest.
type Options struct {
	// Limit caps the number of models harvested. Zero means no limit.
	Limit int

	// Force harvests even if the tag already has a final snapshot.
	Force bool
}

// Result holds the outcome of a harvest.
type Result struct {
	Tag     string
	RunID   string
	Records int
	Batches int
	Missing int
	Skipped bool
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressFetched ProgressType = iota
	ProgressMissing
	ProgressFlushed
	ProgressFinished
)

// ProgressEvent reports progress during a harvest.
type ProgressEvent struct {
	Type      ProgressType
	Tag       string
	ModelID   string
	Completed int
	Start     int
	End       int
}

// ProgressFunc is a callback for reporting harvest progress.
// It is never called concurrently.
type ProgressFunc func(event ProgressEvent)

// harvestState tracks one harvest across batches.
type harvestState struct {
	tag       string
	completed atomic.Int64
	missing   atomic.Int64
	batches   int
	records   int

	mu       sync.Mutex
	progress ProgressFunc
}

func (s *harvestState) emit(e ProgressEvent) {
	if s.progress == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Tag = s.tag
	s.progress(e)
}

// Harvest runs the fetch-and-persist loop for a tag. Every BatchSize records
// are written with WriteBatch under the range they cover; the records left
// at the end are written with WriteFinal, which marks the tag as cached.
// Models the catalog lists more than once are harvested once. Snapshots
// left by a previous harvest of the tag are removed first.
//
// If a card cannot be fetched after retries the harvest stops without
// writing the final snapshot. Models without a card get an empty header list.
func (h *Harvester) Harvest(ctx context.Context, tag string, opts Options, progress ProgressFunc) (*Result, error) {
	if err := cardgap.ValidateTag(tag); err != nil {
		return nil, err
	}
	if opts.Limit < 0 {
		return nil, cardgap.Errorf(cardgap.EINVALID, "limit must not be negative")
	}

	unlock, err := h.Snapshots.Lock(ctx, tag)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			h.logger().Warn("release snapshot lock", "tag", tag, "err", err)
		}
	}()

	// Another harvest may have finished the tag while we waited for the lock.
	if !opts.Force {
		exists, err := h.Snapshots.Exists(ctx, tag)
		if err != nil {
			return nil, err
		}
		if exists {
			return &Result{Tag: tag, Skipped: true}, nil
		}
	}

	// Batches of an earlier or aborted run would otherwise mix with this one.
	if err := h.Snapshots.Reset(ctx, tag); err != nil {
		return nil, fmt.Errorf("reset snapshots: %w", err)
	}

	run := &cardgap.HarvestRun{Tag: tag, Limit: opts.Limit}
	if h.Runs != nil {
		if err := h.Runs.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	state := &harvestState{tag: tag, progress: progress}
	harvestErr := h.harvest(ctx, tag, opts, state)

	result := &Result{
		Tag:     tag,
		RunID:   run.ID,
		Records: state.records,
		Batches: state.batches,
		Missing: int(state.missing.Load()),
	}

	if h.Runs != nil {
		run.Records = result.Records
		run.Batches = result.Batches
		run.Missing = result.Missing
		run.Status = cardgap.RunSucceeded
		if harvestErr != nil {
			run.Status = cardgap.RunFailed
			run.Error = harvestErr.Error()
		}
		// The run outcome is stored even if the caller's context is done.
		if err := h.Runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			h.logger().Warn("record run outcome", "run", run.ID, "err", err)
		}
	}

	if harvestErr != nil {
		return result, harvestErr
	}

	state.emit(ProgressEvent{Type: ProgressFinished, Completed: result.Records})
	return result, nil
}

func (h *Harvester) harvest(ctx context.Context, tag string, opts Options, state *harvestState) error {
	batchSize := h.BatchSize
	if batchSize <= 0 {
		batchSize = cardgap.DefaultBatchSize
	}

	seen := make(map[string]bool)
	pending := make([]*cardgap.ModelInfo, 0, batchSize)
	start := 0

	err := h.Catalog.ListModels(ctx, cardgap.CatalogQuery{Tag: tag, Limit: opts.Limit}, func(m *cardgap.ModelInfo) error {
		if seen[m.ID] {
			return nil
		}
		seen[m.ID] = true
		pending = append(pending, m)
		if len(pending) < batchSize {
			return nil
		}

		records, err := h.fetchBatch(ctx, pending, state)
		if err != nil {
			return err
		}
		end := start + len(records)
		if err := h.Snapshots.WriteBatch(ctx, tag, start, end, records); err != nil {
			return fmt.Errorf("write batch %d-%d: %w", start, end, err)
		}
		state.batches++
		state.records += len(records)
		state.emit(ProgressEvent{Type: ProgressFlushed, Start: start, End: end, Completed: end})
		h.logger().Debug("flushed batch", "tag", tag, "start", start, "end", end)

		start = end
		pending = pending[:0]
		return nil
	})
	if err != nil {
		return err
	}

	records, err := h.fetchBatch(ctx, pending, state)
	if err != nil {
		return err
	}
	if err := h.Snapshots.WriteFinal(ctx, tag, records); err != nil {
		return fmt.Errorf("write final snapshot: %w", err)
	}
	state.records += len(records)
	return nil
}

// fetchBatch extracts the headers of each model in parallel. The returned
// records are in the order of models.
func (h *Harvester) fetchBatch(ctx context.Context, models []*cardgap.ModelInfo, state *harvestState) ([]*cardgap.ModelRecord, error) {
	records := make([]*cardgap.ModelRecord, len(models))
	if len(models) == 0 {
		return records, nil
	}

	concurrency := h.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, m := range models {
		g.Go(func() error {
			rec, found, err := h.fetchRecord(gctx, m.ID)
			if err != nil {
				return err
			}
			records[i] = rec

			completed := int(state.completed.Add(1))
			if !found {
				state.missing.Add(1)
				state.emit(ProgressEvent{Type: ProgressMissing, ModelID: m.ID, Completed: completed})
				return nil
			}
			state.emit(ProgressEvent{Type: ProgressFetched, ModelID: m.ID, Completed: completed})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// fetchRecord builds the record of one model. found is false when the model
// has no card.
func (h *Harvester) fetchRecord(ctx context.Context, modelID string) (rec *cardgap.ModelRecord, found bool, err error) {
	card, err := h.card(ctx, modelID)
	if cardgap.ErrorCode(err) == cardgap.ENOTFOUND {
		return &cardgap.ModelRecord{ID: modelID, Headers: []string{}}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("card %s: %w", modelID, err)
	}

	headers := h.extractor().ExtractHeaders(card.Content)
	if headers == nil {
		headers = []string{}
	}
	return &cardgap.ModelRecord{ID: modelID, Headers: headers}, true, nil
}

// card returns a cached card if fresh enough, otherwise fetches and caches it.
func (h *Harvester) card(ctx context.Context, modelID string) (*cardgap.Card, error) {
	if h.Cache != nil {
		card, err := h.Cache.FindCard(ctx, modelID)
		switch {
		case err == nil && (h.CacheTTL <= 0 || time.Since(card.FetchedAt) < h.CacheTTL):
			return card, nil
		case err != nil && cardgap.ErrorCode(err) != cardgap.ENOTFOUND:
			h.logger().Warn("read card cache", "model", modelID, "err", err)
		}
	}

	delays := h.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	logf := func(format string, args ...any) {
		h.logger().Info(fmt.Sprintf(format, args...))
	}

	card, err := FetchWithRetry(ctx, modelID, h.Cards.FetchCard, logf, delays)
	if err != nil {
		return nil, err
	}

	if h.Cache != nil {
		if err := h.Cache.SaveCard(ctx, card); err != nil && !errors.Is(err, context.Canceled) {
			h.logger().Warn("write card cache", "model", modelID, "err", err)
		}
	}
	return card, nil
}

func (h *Harvester) extractor() cardgap.HeaderExtractor {
	if h.Extractor == nil {
		return cardgap.MarkdownExtractor
	}
	return h.Extractor
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h.Logger
}
