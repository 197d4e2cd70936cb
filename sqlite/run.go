package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ cardgap.RunService = (*RunService)(nil)

// RunService implements cardgap.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun inserts a new running run.
func (s *RunService) CreateRun(ctx context.Context, run *cardgap.HarvestRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.Status = cardgap.RunRunning
	run.StartedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, tag, max_records, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Tag, run.Limit, string(run.Status), formatTime(run.StartedAt))

	return err
}

// FinishRun stores the outcome of a run.
func (s *RunService) FinishRun(ctx context.Context, run *cardgap.HarvestRun) error {
	if run.ID == "" {
		return cardgap.Errorf(cardgap.EINVALID, "run ID required")
	}

	run.FinishedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, records = ?, batches = ?, missing = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(run.Status), run.Records, run.Batches, run.Missing, run.Error,
		formatTime(run.FinishedAt), run.ID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return cardgap.Errorf(cardgap.ENOTFOUND, "run not found")
	}
	return nil
}

// FindRuns retrieves runs matching the filter.
func (s *RunService) FindRuns(ctx context.Context, filter cardgap.RunFilter) ([]*cardgap.HarvestRun, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, tag, max_records, status, records, batches, missing, error, started_at, finished_at FROM runs WHERE 1=1`)

	if filter.Tag != nil {
		query.WriteString(" AND tag = ?")
		args = append(args, *filter.Tag)
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*cardgap.HarvestRun
	for rows.Next() {
		var run cardgap.HarvestRun
		var status, startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.Tag, &run.Limit, &status, &run.Records, &run.Batches,
			&run.Missing, &run.Error, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		run.Status = cardgap.RunStatus(status)

		if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
			return nil, err
		}
		if finishedAt != "" {
			if run.FinishedAt, err = parseRFC3339(finishedAt, "finished_at"); err != nil {
				return nil, err
			}
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
