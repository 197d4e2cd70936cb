package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fwojciec/cardgap"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := cardgap.RunFilter{Limit: c.Limit}
	if c.Tag != "" {
		filter.Tag = &c.Tag
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No harvest runs found.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Tag,
			string(r.Status),
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Missing),
			duration,
			r.Error,
		})
	}
	fmt.Fprintln(deps.Stdout, renderTable(
		[]string{"Started", "Tag", "Status", "Models", "No card", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))

	return nil
}
