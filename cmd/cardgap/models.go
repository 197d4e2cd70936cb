package main

import (
	"fmt"
	"strconv"

	"github.com/fwojciec/cardgap"
)

// Run executes the models command.
func (c *ModelsCmd) Run(deps *Dependencies) error {
	records, err := deps.Snapshots.Load(deps.Ctx, tagsOrDefault(c.Tags, deps.Config))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No models found. Use 'cardgap harvest' to fetch model cards.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.ID, strconv.Itoa(len(cardgap.NormalizeHeaders(r.Headers)))})
	}
	fmt.Fprintln(deps.Stdout, renderTable([]string{"Model", "Headers"}, rows, []columnAlignment{alignLeft, alignRight}))

	return nil
}
