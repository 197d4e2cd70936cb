// Package bloom provides a probabilistic set of model IDs used to skip
// lookups for keys that were never stored.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter of model IDs.
// A negative Test is definite; a positive one must be confirmed against the
// backing store.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected IDs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records an ID.
func (f *Filter) Add(id string) {
	f.f.AddString(id)
}

// Test returns false if the ID was definitely never added.
func (f *Filter) Test(id string) bool {
	return f.f.TestString(id)
}

// EstimatedCount returns the approximate number of IDs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
