// Package bloom provides a probabilistic set of known links using Bloom
// filters.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter wraps a Bloom filter keyed by source and URL.
// It is safe for concurrent use.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a source's URL to the filter.
func (f *Filter) Add(sourceID, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(key(sourceID, url))
}

// Test returns true if the source's URL might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(sourceID, url string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.TestString(key(sourceID, url))
}

func key(sourceID, url string) string {
	return sourceID + "\x00" + url
}
