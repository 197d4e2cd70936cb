package cardgap_test

import (
	"testing"

	"github.com/fwojciec/cardgap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoverage(t *testing.T) {
	t.Parallel()

	t.Run("counts records using each header", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Overview", "## License"}},
			{ID: "b", Headers: []string{"## Overview"}},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

		assert.Equal(t, []cardgap.HeaderCount{
			{Header: "overview", Count: 2},
			{Header: "license", Count: 1},
		}, c.Ranked)
		assert.Equal(t, 2, c.TotalRecords)
		assert.Equal(t, 2, c.RecordsWithHeaders)
	})

	t.Run("groups headers that normalize equally", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Model Details"}},
			{ID: "b", Headers: []string{"### Details [optional]"}},
			{ID: "c", Headers: []string{"## DETAILS"}},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

		assert.Equal(t, 3, c.Count("details"))
	})

	t.Run("counts a repeated header once per record", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Uses", "## Uses"}},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

		assert.Equal(t, 1, c.Count("uses"))
	})

	t.Run("counts every occurrence when configured", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Uses", "## Uses"}},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{CountDuplicates: true})

		assert.Equal(t, 2, c.Count("uses"))
	})

	t.Run("keeps first-seen order for ties", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Zeta", "## Alpha"}},
			{ID: "b", Headers: []string{"## Mid"}},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

		require.Len(t, c.Ranked, 3)
		assert.Equal(t, "zeta", c.Ranked[0].Header)
		assert.Equal(t, "alpha", c.Ranked[1].Header)
		assert.Equal(t, "mid", c.Ranked[2].Header)
	})

	t.Run("counts records without headers only in the total", func(t *testing.T) {
		t.Parallel()

		records := []*cardgap.ModelRecord{
			{ID: "a", Headers: []string{"## Uses"}},
			{ID: "b"},
		}

		c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

		assert.Equal(t, 2, c.TotalRecords)
		assert.Equal(t, 1, c.RecordsWithHeaders)
		assert.InDelta(t, 100.0, c.Prevalence(1), 0.001)
	})
}

func TestCoverage_TopK(t *testing.T) {
	t.Parallel()

	records := []*cardgap.ModelRecord{
		{ID: "a", Headers: []string{"## One", "## Two", "## Three"}},
		{ID: "b", Headers: []string{"## One", "## Two"}},
		{ID: "c", Headers: []string{"## One"}},
	}
	c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

	assert.Equal(t, []cardgap.HeaderCount{{Header: "one", Count: 3}, {Header: "two", Count: 2}}, c.TopK(2))
	assert.Len(t, c.TopK(10), 3)
	assert.Len(t, c.TopK(0), 3)
}

func TestCoverage_Prevalence(t *testing.T) {
	t.Parallel()

	t.Run("returns zero when no record has headers", func(t *testing.T) {
		t.Parallel()

		c := cardgap.NewCoverage([]*cardgap.ModelRecord{{ID: "a"}}, cardgap.CoverageOptions{})

		assert.Zero(t, c.Prevalence(1))
		assert.Empty(t, c.Missing(nil, 10))
	})
}

func TestCoverage_Missing(t *testing.T) {
	t.Parallel()

	records := []*cardgap.ModelRecord{
		{ID: "a", Headers: []string{"## Overview", "## License"}},
		{ID: "b", Headers: []string{"## Overview"}},
	}
	c := cardgap.NewCoverage(records, cardgap.CoverageOptions{})

	missing := c.Missing([]string{"overview"}, 10)

	require.Len(t, missing, 1)
	assert.Equal(t, "license", missing[0].Header)
	assert.Equal(t, 1, missing[0].Count)
	assert.InDelta(t, 50.0, missing[0].Prevalence, 0.001)
	assert.Equal(t, "License (used in 50.0% of other cards)", missing[0].String())
}
