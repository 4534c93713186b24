// Package gofeed reads written feed files back using github.com/mmcdole/gofeed.
package gofeed

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/fwojciec/linkfeed"
	"github.com/mmcdole/gofeed"
)

// Ensure Inspector implements linkfeed.FeedInspector.
var _ linkfeed.FeedInspector = (*Inspector)(nil)

// Inspector parses feed files on disk into summaries.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// InspectFeed parses the feed at path.
func (i *Inspector) InspectFeed(ctx context.Context, path string) (*linkfeed.FeedSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, linkfeed.Errorf(linkfeed.ENOTFOUND, "feed file %s not found", path)
	} else if err != nil {
		return nil, linkfeed.Errorf(linkfeed.EINTERNAL, "open feed: %v", err)
	}
	defer f.Close()

	// Parsers hold translator state, so each call gets its own.
	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.EPARSE, "parse feed %s: %v", path, err)
	}

	updated := feed.UpdatedParsed
	if updated == nil {
		updated = feed.PublishedParsed
	}

	return &linkfeed.FeedSummary{
		Path:    path,
		Title:   feed.Title,
		Link:    feed.Link,
		Entries: len(feed.Items),
		Updated: updated,
	}, nil
}
