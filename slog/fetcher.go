package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/linkfeed"
)

// Ensure LoggingFetcher implements linkfeed.Fetcher.
var _ linkfeed.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   linkfeed.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next linkfeed.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Ensure LoggingDocumentParser implements linkfeed.DocumentParser.
var _ linkfeed.DocumentParser = (*LoggingDocumentParser)(nil)

// LoggingDocumentParser wraps a DocumentParser with debug logging.
type LoggingDocumentParser struct {
	next   linkfeed.DocumentParser
	logger *slog.Logger
}

// NewLoggingDocumentParser creates a new LoggingDocumentParser.
func NewLoggingDocumentParser(next linkfeed.DocumentParser, logger *slog.Logger) *LoggingDocumentParser {
	return &LoggingDocumentParser{next: next, logger: logger}
}

// Parse logs the anchor count and delegates to the wrapped parser.
func (p *LoggingDocumentParser) Parse(html string) (doc *linkfeed.Document, err error) {
	defer func(begin time.Time) {
		anchors := 0
		if doc != nil {
			anchors = len(doc.Anchors)
		}
		p.logger.Info("parse",
			"bytes", len(html),
			"anchors", anchors,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Parse(html)
}
