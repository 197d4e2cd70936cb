package cardgap

import (
	"fmt"
	"sort"
)

// HeaderCount is a normalized header and the number of records using it.
type HeaderCount struct {
	Header string `json:"header"`
	Count  int    `json:"count"`
}

// CoverageOptions configures coverage aggregation.
type CoverageOptions struct {
	// CountDuplicates counts a header once per occurrence instead of once
	// per record when a card repeats the same section heading.
	CountDuplicates bool
}

// Coverage is the coverage table of a loaded corpus: how many records use
// each normalized header, ranked by count.
type Coverage struct {
	// Ranked holds every header ordered by descending count. Headers with
	// equal counts keep the order in which they were first seen.
	Ranked []HeaderCount

	// TotalRecords is the number of records in the corpus.
	TotalRecords int

	// RecordsWithHeaders is the number of records with at least one header.
	RecordsWithHeaders int

	counts map[string]int
}

// NewCoverage aggregates normalized header counts across records.
func NewCoverage(records []*ModelRecord, opts CoverageOptions) *Coverage {
	c := &Coverage{
		TotalRecords: len(records),
		counts:       make(map[string]int),
	}

	var order []string
	for _, r := range records {
		if r.HasHeaders() {
			c.RecordsWithHeaders++
		}

		seen := make(map[string]bool)
		for _, h := range NormalizeHeaders(r.Headers) {
			if seen[h] && !opts.CountDuplicates {
				continue
			}
			seen[h] = true

			if _, ok := c.counts[h]; !ok {
				order = append(order, h)
			}
			c.counts[h]++
		}
	}

	c.Ranked = make([]HeaderCount, 0, len(order))
	for _, h := range order {
		c.Ranked = append(c.Ranked, HeaderCount{Header: h, Count: c.counts[h]})
	}
	sort.SliceStable(c.Ranked, func(i, j int) bool {
		return c.Ranked[i].Count > c.Ranked[j].Count
	})

	return c
}

// Count returns the number of records using the normalized header.
func (c *Coverage) Count(header string) int {
	return c.counts[header]
}

// TopK returns the k most common headers. A non-positive k returns all.
func (c *Coverage) TopK(k int) []HeaderCount {
	if k <= 0 || k >= len(c.Ranked) {
		return c.Ranked
	}
	return c.Ranked[:k]
}

// Prevalence returns the percentage of records with any headers that use
// the header. It returns zero when no record has headers.
func (c *Coverage) Prevalence(count int) float64 {
	if c.RecordsWithHeaders == 0 {
		return 0
	}
	return float64(count) * 100 / float64(c.RecordsWithHeaders)
}

// MissingHeader is a common header absent from a selected model card.
type MissingHeader struct {
	Header     string  `json:"header"`
	Count      int     `json:"count"`
	Prevalence float64 `json:"prevalence"`
}

// String formats the header for display, e.g.
// "License (used in 50.0% of other cards)".
func (m MissingHeader) String() string {
	return fmt.Sprintf("%s (used in %.1f%% of other cards)", Capitalize(m.Header), m.Prevalence)
}

// Missing returns the top-k headers that the normalized header list lacks,
// in rank order, with their prevalence.
func (c *Coverage) Missing(present []string, k int) []MissingHeader {
	has := make(map[string]bool, len(present))
	for _, h := range present {
		has[h] = true
	}

	var missing []MissingHeader
	for _, hc := range c.TopK(k) {
		if has[hc.Header] {
			continue
		}
		missing = append(missing, MissingHeader{
			Header:     hc.Header,
			Count:      hc.Count,
			Prevalence: c.Prevalence(hc.Count),
		})
	}
	return missing
}
