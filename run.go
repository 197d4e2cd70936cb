package cardgap

import (
	"context"
	"time"
)

// RunStatus is the state of a harvest run.
type RunStatus string

// RunStatus constants.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// HarvestRun records one execution of the fetch-and-persist loop.
type HarvestRun struct {
	ID         string    `json:"id"`
	Tag        string    `json:"tag"`
	Limit      int       `json:"limit"`
	Status     RunStatus `json:"status"`
	Records    int       `json:"records"`
	Batches    int       `json:"batches"`
	Missing    int       `json:"missing"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *HarvestRun) Validate() error {
	if r.Tag == "" {
		return Errorf(EINVALID, "run tag required")
	}
	return nil
}

// RunService records harvest runs.
type RunService interface {
	// CreateRun inserts a new run and assigns its ID and start time.
	CreateRun(ctx context.Context, run *HarvestRun) error

	// FinishRun stores the outcome of a run and sets its finish time.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, run *HarvestRun) error

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*HarvestRun, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Tag *string `json:"tag"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
