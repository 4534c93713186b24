package mock

import (
	"context"

	"github.com/fwojciec/linkfeed"
)

var _ linkfeed.FeedWriter = (*FeedWriter)(nil)

// FeedWriter is a mock implementation of linkfeed.FeedWriter.
type FeedWriter struct {
	WriteFeedFn func(ctx context.Context, feed *linkfeed.Feed) (string, error)
}

func (w *FeedWriter) WriteFeed(ctx context.Context, feed *linkfeed.Feed) (string, error) {
	return w.WriteFeedFn(ctx, feed)
}

var _ linkfeed.FeedInspector = (*FeedInspector)(nil)

// FeedInspector is a mock implementation of linkfeed.FeedInspector.
type FeedInspector struct {
	InspectFeedFn func(ctx context.Context, path string) (*linkfeed.FeedSummary, error)
}

func (i *FeedInspector) InspectFeed(ctx context.Context, path string) (*linkfeed.FeedSummary, error) {
	return i.InspectFeedFn(ctx, path)
}

var _ linkfeed.IndexRenderer = (*IndexRenderer)(nil)

// IndexRenderer is a mock implementation of linkfeed.IndexRenderer.
type IndexRenderer struct {
	RenderIndexFn func(ctx context.Context, idx *linkfeed.Index) error
}

func (r *IndexRenderer) RenderIndex(ctx context.Context, idx *linkfeed.Index) error {
	return r.RenderIndexFn(ctx, idx)
}

var _ linkfeed.Converter = (*Converter)(nil)

// Converter is a mock implementation of linkfeed.Converter.
type Converter struct {
	ConvertFn func(page string) (string, error)
}

func (c *Converter) Convert(page string) (string, error) {
	return c.ConvertFn(page)
}
