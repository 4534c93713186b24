package pipeline

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/linkfeed"
)

// Digest returns a stable hash of an ordered item list. Two builds that
// produce the same titles and URLs in the same order share a digest.
func Digest(items []linkfeed.Item) string {
	h := xxhash.New()
	for _, item := range items {
		_, _ = h.WriteString(item.Title)
		_, _ = h.WriteString("\t")
		_, _ = h.WriteString(item.URL)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
