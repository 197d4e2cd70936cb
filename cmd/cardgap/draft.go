package main

import (
	"fmt"

	"github.com/fwojciec/cardgap"
)

// Run executes the draft command.
func (c *DraftCmd) Run(deps *Dependencies) error {
	report, err := deps.Reports.Report(deps.Ctx, cardgap.ReportRequest{
		Tags:  tagsOrDefault(c.Tags, deps.Config),
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

	if len(report.Missing) == 0 {
		fmt.Fprintf(deps.Stdout, "%s has every common header, nothing to draft.\n", report.ModelID)
		return nil
	}

	card, err := c.card(deps, report.ModelID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	draft, err := deps.Drafter.Draft(deps.Ctx, card, report.Missing)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, draft)
	return nil
}

// card returns the cached card of a model, fetching it if it is not cached.
func (c *DraftCmd) card(deps *Dependencies, modelID string) (*cardgap.Card, error) {
	if deps.Cache != nil {
		card, err := deps.Cache.FindCard(deps.Ctx, modelID)
		if err == nil {
			return card, nil
		}
		if cardgap.ErrorCode(err) != cardgap.ENOTFOUND {
			return nil, err
		}
	}
	return deps.Cards.FetchCard(deps.Ctx, modelID)
}
