package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/linkfeed"
)

// Ensure LoggingFeedWriter implements linkfeed.FeedWriter.
var _ linkfeed.FeedWriter = (*LoggingFeedWriter)(nil)

// LoggingFeedWriter wraps a FeedWriter with debug logging.
type LoggingFeedWriter struct {
	next   linkfeed.FeedWriter
	logger *slog.Logger
}

// NewLoggingFeedWriter creates a new LoggingFeedWriter.
func NewLoggingFeedWriter(next linkfeed.FeedWriter, logger *slog.Logger) *LoggingFeedWriter {
	return &LoggingFeedWriter{next: next, logger: logger}
}

// WriteFeed logs the written feed and delegates to the wrapped writer.
func (w *LoggingFeedWriter) WriteFeed(ctx context.Context, feed *linkfeed.Feed) (path string, err error) {
	defer func(begin time.Time) {
		w.logger.Info("write feed",
			"id", feed.ID,
			"path", path,
			"items", len(feed.Entries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteFeed(ctx, feed)
}

// Ensure LoggingIndexRenderer implements linkfeed.IndexRenderer.
var _ linkfeed.IndexRenderer = (*LoggingIndexRenderer)(nil)

// LoggingIndexRenderer wraps an IndexRenderer with debug logging.
type LoggingIndexRenderer struct {
	next   linkfeed.IndexRenderer
	logger *slog.Logger
}

// NewLoggingIndexRenderer creates a new LoggingIndexRenderer.
func NewLoggingIndexRenderer(next linkfeed.IndexRenderer, logger *slog.Logger) *LoggingIndexRenderer {
	return &LoggingIndexRenderer{next: next, logger: logger}
}

// RenderIndex logs the rendered source count and delegates.
func (r *LoggingIndexRenderer) RenderIndex(ctx context.Context, index *linkfeed.Index) (err error) {
	defer func(begin time.Time) {
		r.logger.Info("render index",
			"sources", len(index.Entries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.RenderIndex(ctx, index)
}
