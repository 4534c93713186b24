package linkfeed

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// IndexEntry is one source listed on the index page.
type IndexEntry struct {
	ID        string
	Title     string
	SourceURL string
	FeedURL   string
	Items     int
	Updated   time.Time
	Failed    bool
	Error     string
}

// Index is the static page listing every configured feed.
type Index struct {
	Title     string
	Generated time.Time
	Entries   []IndexEntry
}

// UpdatedText returns the human-readable generation timestamp.
func (idx *Index) UpdatedText() string {
	return idx.Generated.UTC().Format("2006-01-02 15:04 UTC")
}

// IndexRenderer renders the index page.
type IndexRenderer interface {
	// RenderIndex returns EWRITE if the index cannot be written.
	RenderIndex(ctx context.Context, idx *Index) error
}

// Converter converts a rendered HTML page to Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// FeedPath returns the slash-separated path a source's feed is written to,
// e.g. "feeds/recipes.xml". A relative outputDir is resolved against the
// site directory by the writer; an absolute one is kept as is.
func FeedPath(outputDir, id string) string {
	return path.Join(filepath.ToSlash(outputDir), id+".xml")
}

// FeedHref returns the feed location relative to the site root as used in
// links. An absolute outputDir is assumed to be published under its last
// path element, so "/var/www/feeds" yields "feeds/recipes.xml".
func FeedHref(outputDir, id string) string {
	dir := path.Clean(filepath.ToSlash(outputDir))
	if filepath.IsAbs(outputDir) || strings.HasPrefix(dir, "/") {
		dir = path.Base(dir)
	}
	if dir == "." || dir == "/" {
		return id + ".xml"
	}
	return dir + "/" + id + ".xml"
}

// FeedURL returns the public URL of a feed: the base site URL joined with
// the relative feed href. Without a base URL the href is returned.
func FeedURL(baseURL, outputDir, id string) string {
	rel := FeedHref(outputDir, id)
	if baseURL == "" {
		return rel
	}
	return strings.TrimRight(baseURL, "/") + "/" + rel
}
