package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/markdown"
)

// Run executes the report command.
func (c *ReportCmd) Run(deps *Dependencies) error {
	tags := tagsOrDefault(c.Tags, deps.Config)
	report, err := deps.Reports.Report(deps.Ctx, cardgap.ReportRequest{
		Tags:  tags,
		Fetch: !c.NoFetch,
		ReportOptions: cardgap.ReportOptions{
			ModelID: c.Model,
			TopK:    topKOrDefault(c.TopK, deps.Config),
		},
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "markdown":
		return markdown.NewReportWriter(deps.Stdout).Write(report, tags)
	}

	if report.ModelID == "" {
		fmt.Fprintln(deps.Stdout, "No models found. Use 'cardgap harvest' to fetch model cards.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "%s (%d models, %d with headers)\n\n",
		report.ModelID, report.TotalRecords, report.RecordsWithHeaders)

	fmt.Fprintln(deps.Stdout, "This model card contains:")
	if len(report.Present) == 0 {
		fmt.Fprintln(deps.Stdout, "  (no section headers)")
	}
	for _, h := range report.Present {
		fmt.Fprintf(deps.Stdout, "  - %s\n", cardgap.Capitalize(h))
	}
	fmt.Fprintln(deps.Stdout)

	if len(report.Missing) == 0 {
		fmt.Fprintln(deps.Stdout, "This model card has every common header.")
		return nil
	}

	fmt.Fprintln(deps.Stdout, "This model is missing these common headers:")
	rows := make([][]string, 0, len(report.Missing))
	for _, m := range report.Missing {
		rows = append(rows, []string{
			cardgap.Capitalize(m.Header),
			fmt.Sprintf("%.1f%%", m.Prevalence),
			strconv.Itoa(m.Count),
		})
	}
	fmt.Fprintln(deps.Stdout, renderTable(
		[]string{"Section", "Used in", "Cards"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	return nil
}
