package linkfeed

// Anchor is one anchor element found in a parsed document.
type Anchor struct {
	// Href is the raw href attribute, empty when absent.
	Href string

	// Text is the anchor's visible text with text nodes joined by spaces.
	Text string
}

// Document is a parsed listing page.
type Document struct {
	// Anchors holds every anchor element in document order.
	Anchors []Anchor
}

// DocumentParser parses raw HTML into a queryable Document.
type DocumentParser interface {
	// Parse returns EPARSE if the input cannot be parsed as HTML.
	Parse(html string) (*Document, error)
}

// PageMetadata holds descriptive metadata of a listing page.
type PageMetadata struct {
	Title       string
	Description string
	SiteName    string
}

// MetadataExtractor reads descriptive metadata from a listing page.
type MetadataExtractor interface {
	ExtractMetadata(html string) (*PageMetadata, error)
}
