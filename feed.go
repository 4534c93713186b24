package linkfeed

import (
	"context"
	"time"
)

// Feed is a syndication feed assembled from one source's items.
type Feed struct {
	ID          string
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string
	Updated     time.Time
	Entries     []Entry
}

// Entry is one feed entry. GUID is the entry URL.
type Entry struct {
	Title   string
	Link    string
	GUID    string
	Updated time.Time
}

// FeedOptions carries run-wide values used when assembling a feed.
type FeedOptions struct {
	Description string
	Language    string
	SelfURL     string
}

// NewFeed assembles a feed from items, keeping the first src.MaxItems of
// them in order (DefaultMaxItems when unset). Every entry shares the generation timestamp now.
func NewFeed(src *Source, items []Item, now time.Time, opts FeedOptions) *Feed {
	limit := src.MaxItems
	if limit <= 0 {
		limit = DefaultMaxItems
	}
	n := min(len(items), limit)

	description := opts.Description
	if description == "" {
		description = DefaultDescription(src.SourceURL)
	}

	f := &Feed{
		ID:          src.ID,
		Title:       src.Title,
		Link:        src.SourceURL,
		Description: description,
		Language:    opts.Language,
		SelfURL:     opts.SelfURL,
		Updated:     now,
		Entries:     make([]Entry, 0, n),
	}
	for _, item := range items[:n] {
		f.Entries = append(f.Entries, Entry{
			Title:   item.Title,
			Link:    item.URL,
			GUID:    item.URL,
			Updated: now,
		})
	}
	return f
}

// DefaultDescription returns the feed description used when a source does
// not configure one.
func DefaultDescription(sourceURL string) string {
	return "Auto-generated RSS feed for " + sourceURL
}

// FeedWriter persists a feed as a file keyed by the feed ID.
type FeedWriter interface {
	// WriteFeed writes the feed and returns the path written.
	// Returns EWRITE if the output cannot be written.
	WriteFeed(ctx context.Context, feed *Feed) (path string, err error)
}

// FeedSummary describes a feed file read back from disk.
type FeedSummary struct {
	Path    string
	Title   string
	Link    string
	Entries int
	Updated *time.Time
}

// FeedInspector reads back written feed files.
type FeedInspector interface {
	// InspectFeed returns ENOTFOUND if the file does not exist and EPARSE
	// if it is not a valid feed.
	InspectFeed(ctx context.Context, path string) (*FeedSummary, error)
}
