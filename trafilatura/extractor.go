// Package trafilatura reads listing page metadata using go-trafilatura.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/linkfeed"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements linkfeed.MetadataExtractor at compile time.
var _ linkfeed.MetadataExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to read page-level metadata such as the
// description and site name.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractMetadata returns the metadata declared by the page.
// Returns EPARSE if the page cannot be processed.
func (e *Extractor) ExtractMetadata(rawHTML string) (*linkfeed.PageMetadata, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, linkfeed.Errorf(linkfeed.EPARSE, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.EPARSE, "failed to extract metadata: %v", err)
	}

	return &linkfeed.PageMetadata{
		Title:       strings.TrimSpace(result.Metadata.Title),
		Description: strings.TrimSpace(result.Metadata.Description),
		SiteName:    strings.TrimSpace(result.Metadata.Sitename),
	}, nil
}
