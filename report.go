package cardgap

import "context"

// Report describes the section coverage of one model card against the
// loaded corpus.
type Report struct {
	ModelID            string          `json:"modelId"`
	Present            []string        `json:"present"`
	Missing            []MissingHeader `json:"missing"`
	Common             []HeaderCount   `json:"common"`
	TotalRecords       int             `json:"totalRecords"`
	RecordsWithHeaders int             `json:"recordsWithHeaders"`
	Models             []string        `json:"models"`
}

// ReportOptions configures BuildReport.
type ReportOptions struct {
	// ModelID selects the model to report on. Empty selects the first
	// record of the corpus.
	ModelID string

	// TopK is the number of most common headers compared against.
	// Defaults to DefaultTopK.
	TopK int

	Coverage CoverageOptions
}

// BuildReport aggregates coverage over records and reports the selected
// model's present and missing headers. An empty corpus yields an empty
// report. Returns ENOTFOUND if the selected model is not in the corpus.
func BuildReport(records []*ModelRecord, opts ReportOptions) (*Report, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	coverage := NewCoverage(records, opts.Coverage)
	report := &Report{
		Present:            []string{},
		Missing:            []MissingHeader{},
		Common:             coverage.TopK(topK),
		TotalRecords:       coverage.TotalRecords,
		RecordsWithHeaders: coverage.RecordsWithHeaders,
		Models:             make([]string, 0, len(records)),
	}
	for _, r := range records {
		report.Models = append(report.Models, r.ID)
	}

	if len(records) == 0 {
		return report, nil
	}

	selected := records[0]
	if opts.ModelID != "" {
		selected = findRecord(records, opts.ModelID)
		if selected == nil {
			return nil, Errorf(ENOTFOUND, "model %q not found in loaded cards", opts.ModelID)
		}
	}

	report.ModelID = selected.ID
	report.Present = NormalizeHeaders(selected.Headers)
	if missing := coverage.Missing(report.Present, topK); missing != nil {
		report.Missing = missing
	}

	return report, nil
}

func findRecord(records []*ModelRecord, id string) *ModelRecord {
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ReportRequest selects the corpus and model of a report.
type ReportRequest struct {
	// Tags whose snapshots form the corpus.
	Tags []string

	// Fetch harvests tags without a final snapshot before loading.
	Fetch bool

	ReportOptions
}

// ReportService builds coverage reports from harvested snapshots.
type ReportService interface {
	// Report loads the snapshots of the requested tags, harvesting uncached
	// tags first if requested, and reports on the selected model.
	// Returns ENOTFOUND if the selected model is not in the corpus.
	Report(ctx context.Context, req ReportRequest) (*Report, error)
}
