// Package pipeline turns configured sources into feed files and an index
// page. Each source is fetched, parsed, filtered and written independently;
// one failing source never prevents the others from being published.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/linkfeed"
	"golang.org/x/sync/errgroup"
)

// Builder orchestrates a build over every configured source.
// Fetcher, Parser and Feeds are required; the rest are optional.
type Builder struct {
	Fetcher   linkfeed.Fetcher
	Parser    linkfeed.DocumentParser
	Metadata  linkfeed.MetadataExtractor
	Feeds     linkfeed.FeedWriter
	Index     linkfeed.IndexRenderer
	Limiter   linkfeed.DomainLimiter
	SeenLinks linkfeed.SeenLinkService
	Runs      linkfeed.RunService
	Logger    *slog.Logger

	// Now returns the build timestamp. Defaults to time.Now.
	Now func() time.Time
}

// SourceResult is the outcome of processing one source.
type SourceResult struct {
	Source *linkfeed.Source

	// Path is the feed file written for the source.
	Path string

	// Found is the number of links that survived filtering.
	Found int

	// Items are the links written to the feed, in document order.
	Items []linkfeed.Item

	Rejected   map[string]int
	Duplicates int

	// New counts items not recorded for the source before this build.
	// Zero when no history store is configured.
	New int

	Digest   string
	Changed  bool
	Duration time.Duration
	Err      error
}

// Result is the outcome of a build.
type Result struct {
	Generated time.Time
	Sources   []*SourceResult
	Succeeded int
	Failed    int
}

// Build processes every source of cfg with up to cfg.Site.Concurrency
// sources in flight, records history, and renders the index. Per-source
// failures are reported in the result. An error is returned when the index
// cannot be rendered or when no source succeeds.
func (b *Builder) Build(ctx context.Context, cfg *linkfeed.Config) (*Result, error) {
	now := b.now()
	results := make([]*SourceResult, len(cfg.Sources))

	concurrency := cfg.Site.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range cfg.Sources {
		g.Go(func() error {
			results[i] = b.processSource(gctx, &cfg.Site, src, now)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Generated: now, Sources: results}
	for _, res := range results {
		b.record(ctx, res, now)
		if res.Err != nil {
			result.Failed++
			b.logger().Warn("source failed", "id", res.Source.ID, "url", res.Source.SourceURL, "err", res.Err)
			continue
		}
		result.Succeeded++
		b.logger().Info("source processed",
			"id", res.Source.ID,
			"items", res.Found,
			"written", len(res.Items),
			"new", res.New,
			"changed", res.Changed,
			"rejected", rejectedTotal(res.Rejected),
			"duplicates", res.Duplicates,
			"duration", res.Duration,
		)
	}

	if b.Index != nil {
		idx := &linkfeed.Index{
			Title:     cfg.Site.Title,
			Generated: now,
			Entries:   b.indexEntries(ctx, &cfg.Site, results, now),
		}
		if err := b.Index.RenderIndex(ctx, idx); err != nil {
			return result, fmt.Errorf("render index: %w", err)
		}
	}

	if len(results) > 0 && result.Succeeded == 0 {
		return result, fmt.Errorf("all %d sources failed: %w", result.Failed, results[0].Err)
	}
	return result, nil
}

// Preview fetches and filters a single source without writing anything.
func (b *Builder) Preview(ctx context.Context, src *linkfeed.Source) (*linkfeed.ExtractResult, error) {
	_, extracted, err := b.extract(ctx, src)
	if err != nil {
		return nil, &linkfeed.SourceError{SourceID: src.ID, Err: err}
	}
	return extracted, nil
}

func (b *Builder) processSource(ctx context.Context, site *linkfeed.Site, src *linkfeed.Source, now time.Time) *SourceResult {
	res := &SourceResult{Source: src, Items: []linkfeed.Item{}}
	defer func(begin time.Time) {
		res.Duration = time.Since(begin)
	}(time.Now())

	html, extracted, err := b.extract(ctx, src)
	if err != nil {
		res.Err = &linkfeed.SourceError{SourceID: src.ID, Err: err}
		return res
	}
	res.Found = len(extracted.Items)
	res.Rejected = extracted.Rejected
	res.Duplicates = extracted.Duplicates

	opts := linkfeed.FeedOptions{
		Description: b.description(src, html),
		Language:    site.Language,
	}
	if site.BaseURL != "" {
		opts.SelfURL = linkfeed.FeedURL(site.BaseURL, site.OutputDir, src.ID)
	}
	feed := linkfeed.NewFeed(src, extracted.Items, now, opts)

	path, err := b.Feeds.WriteFeed(ctx, feed)
	if err != nil {
		res.Err = &linkfeed.SourceError{SourceID: src.ID, Err: err}
		return res
	}

	res.Path = path
	res.Items = extracted.Items[:len(feed.Entries)]
	res.Digest = Digest(res.Items)
	return res
}

// extract fetches the source page and runs the source's filter over it.
func (b *Builder) extract(ctx context.Context, src *linkfeed.Source) (string, *linkfeed.ExtractResult, error) {
	filter, err := linkfeed.NewLinkFilter(src.SourceURL, src.Rules)
	if err != nil {
		return "", nil, err
	}

	if b.Limiter != nil {
		u, err := url.Parse(src.SourceURL)
		if err != nil {
			return "", nil, linkfeed.Errorf(linkfeed.EINVALID, "invalid source URL: %v", err)
		}
		if err := b.Limiter.Wait(ctx, u.Hostname()); err != nil {
			return "", nil, err
		}
	}

	html, err := b.Fetcher.Fetch(ctx, src.SourceURL)
	if err != nil {
		return "", nil, err
	}

	doc, err := b.Parser.Parse(html)
	if err != nil {
		return "", nil, err
	}

	return html, filter.Extract(doc), nil
}

// description picks the feed description: configured text first, then the
// page's own metadata when enabled. Empty means the default description.
func (b *Builder) description(src *linkfeed.Source, html string) string {
	if src.Description != "" {
		return src.Description
	}
	if !src.DescribeFromPage || b.Metadata == nil {
		return ""
	}
	meta, err := b.Metadata.ExtractMetadata(html)
	if err != nil {
		b.logger().Debug("page metadata unavailable", "id", src.ID, "err", err)
		return ""
	}
	return meta.Description
}

// record compares the result against the previous build and stores it in
// the history services. History failures are logged and never fail a source.
func (b *Builder) record(ctx context.Context, res *SourceResult, now time.Time) {
	id := res.Source.ID

	if res.Err == nil {
		res.Changed = true
		if b.Runs != nil {
			last, err := b.Runs.FindLastRun(ctx, id)
			switch {
			case err == nil:
				res.Changed = last.Digest != res.Digest
			case linkfeed.ErrorCode(err) != linkfeed.ENOTFOUND:
				b.logger().Warn("find last run", "id", id, "err", err)
			}
		}
		if b.SeenLinks != nil {
			n, err := b.SeenLinks.RecordLinks(ctx, id, res.Items, now)
			if err != nil {
				b.logger().Warn("record links", "id", id, "err", err)
			}
			res.New = n
		}
	}

	if b.Runs == nil {
		return
	}
	run := &linkfeed.Run{
		SourceID:  id,
		StartedAt: now,
		Status:    linkfeed.RunSucceeded,
		ItemCount: len(res.Items),
		NewCount:  res.New,
		Digest:    res.Digest,
		Changed:   res.Changed,
	}
	if res.Err != nil {
		run.Status = linkfeed.RunFailed
		run.Error = linkfeed.ErrorMessage(res.Err)
	}
	if err := b.Runs.CreateRun(ctx, run); err != nil {
		b.logger().Warn("create run", "id", id, "err", err)
	}
}

// indexEntries lists every source in configuration order. Failed sources
// keep the figures of their last successful run when history is available.
func (b *Builder) indexEntries(ctx context.Context, site *linkfeed.Site, results []*SourceResult, now time.Time) []linkfeed.IndexEntry {
	entries := make([]linkfeed.IndexEntry, 0, len(results))
	for _, res := range results {
		src := res.Source
		entry := linkfeed.IndexEntry{
			ID:        src.ID,
			Title:     src.Title,
			SourceURL: src.SourceURL,
			FeedURL:   linkfeed.FeedURL(site.BaseURL, site.OutputDir, src.ID),
		}
		if res.Err == nil {
			entry.Items = len(res.Items)
			entry.Updated = now
		} else {
			entry.Failed = true
			entry.Error = linkfeed.ErrorMessage(res.Err)
			if b.Runs != nil {
				if last, err := b.Runs.FindLastRun(ctx, src.ID); err == nil {
					entry.Items = last.ItemCount
					entry.Updated = last.StartedAt
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func rejectedTotal(rejected map[string]int) int {
	var n int
	for _, c := range rejected {
		n += c
	}
	return n
}
