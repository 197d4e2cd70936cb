package harvest

import (
	"context"

	"github.com/fwojciec/cardgap"
)

// Ensure Reporter implements cardgap.ReportService at compile time.
var _ cardgap.ReportService = (*Reporter)(nil)

// Reporter builds reports from snapshots, harvesting uncached tags on demand.
type Reporter struct {
	Snapshots cardgap.SnapshotStore

	// Harvester is required only for requests with Fetch set.
	Harvester *Harvester

	// Progress, if set, receives progress of on-demand harvests.
	Progress ProgressFunc
}

// Report loads the requested tags and reports on the selected model.
// Tags are harvested without a limit when Fetch is set and their final
// snapshot is missing.
func (r *Reporter) Report(ctx context.Context, req cardgap.ReportRequest) (*cardgap.Report, error) {
	for _, tag := range req.Tags {
		if err := cardgap.ValidateTag(tag); err != nil {
			return nil, err
		}
	}

	if req.Fetch {
		if err := r.fetchMissing(ctx, req.Tags); err != nil {
			return nil, err
		}
	}

	records, err := r.Snapshots.Load(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	return cardgap.BuildReport(records, req.ReportOptions)
}

func (r *Reporter) fetchMissing(ctx context.Context, tags []string) error {
	for _, tag := range tags {
		exists, err := r.Snapshots.Exists(ctx, tag)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if r.Harvester == nil {
			return cardgap.Errorf(cardgap.EINTERNAL, "no harvester configured to fetch tag %q", tag)
		}
		// Harvest re-checks the snapshot under the tag lock, so a
		// concurrent request for the same tag waits instead of refetching.
		if _, err := r.Harvester.Harvest(ctx, tag, Options{}, r.Progress); err != nil {
			return err
		}
	}
	return nil
}
