package main

import (
	"fmt"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/harvest"
)

// Run executes the harvest command.
func (c *HarvestCmd) Run(deps *Dependencies) error {
	if c.Concurrency > 0 {
		deps.Harvester.Concurrency = c.Concurrency
	}

	for _, tag := range c.Tags {
		progress := func(event harvest.ProgressEvent) {
			switch event.Type {
			case harvest.ProgressFlushed:
				fmt.Fprintf(deps.Stdout, "  Wrote models %d-%d\n", event.Start, event.End)
			case harvest.ProgressMissing:
				fmt.Fprintf(deps.Stderr, "  no card: %s\n", event.ModelID)
			}
		}

		fmt.Fprintf(deps.Stdout, "Harvesting %q\n", tag)
		result, err := deps.Harvester.Harvest(deps.Ctx, tag, harvest.Options{Limit: c.Limit, Force: c.Force}, progress)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
			return err
		}

		if result.Skipped {
			fmt.Fprintf(deps.Stdout, "  Already cached, use --force to harvest again\n")
			continue
		}
		fmt.Fprintf(deps.Stdout, "  Saved %d models (%d batches, %d without card)\n",
			result.Records, result.Batches, result.Missing)
	}

	return nil
}

// errorText returns the message of application errors and the full text
// of infrastructure errors, which carry no user-facing message.
func errorText(err error) string {
	if cardgap.ErrorCode(err) == cardgap.EINTERNAL {
		return err.Error()
	}
	return cardgap.ErrorMessage(err)
}
