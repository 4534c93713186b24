package mock

import "github.com/fwojciec/linkfeed"

var _ linkfeed.DocumentParser = (*DocumentParser)(nil)

// DocumentParser is a mock implementation of linkfeed.DocumentParser.
type DocumentParser struct {
	ParseFn func(html string) (*linkfeed.Document, error)
}

func (p *DocumentParser) Parse(html string) (*linkfeed.Document, error) {
	return p.ParseFn(html)
}

var _ linkfeed.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of linkfeed.MetadataExtractor.
type MetadataExtractor struct {
	ExtractMetadataFn func(html string) (*linkfeed.PageMetadata, error)
}

func (e *MetadataExtractor) ExtractMetadata(html string) (*linkfeed.PageMetadata, error) {
	return e.ExtractMetadataFn(html)
}
