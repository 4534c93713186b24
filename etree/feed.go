// Package etree renders feeds as RSS 2.0 documents using beevik/etree.
package etree

import (
	"context"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/fs"
)

// Generator is the value of the channel generator element.
const Generator = "linkfeed"

const atomNS = "http://www.w3.org/2005/Atom"

// Ensure FeedWriter implements linkfeed.FeedWriter at compile time.
var _ linkfeed.FeedWriter = (*FeedWriter)(nil)

// FeedWriter writes each feed to <outputDir>/<id>.xml below the writer's
// base directory, or directly there when outputDir is absolute.
type FeedWriter struct {
	writer    *fs.Writer
	outputDir string
	indent    int
}

// NewFeedWriter creates a new FeedWriter.
func NewFeedWriter(w *fs.Writer, outputDir string) *FeedWriter {
	return &FeedWriter{writer: w, outputDir: outputDir, indent: 2}
}

// WriteFeed renders feed as RSS and writes it atomically.
func (w *FeedWriter) WriteFeed(ctx context.Context, feed *linkfeed.Feed) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc := Render(feed)
	doc.Indent(w.indent)
	data, err := doc.WriteToBytes()
	if err != nil {
		return "", linkfeed.Errorf(linkfeed.EWRITE, "failed to serialize feed %s: %v", feed.ID, err)
	}

	return w.writer.WriteFile(linkfeed.FeedPath(w.outputDir, feed.ID), data)
}

// Render builds the RSS 2.0 document for feed.
func Render(feed *linkfeed.Feed) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")
	if feed.SelfURL != "" {
		rss.CreateAttr("xmlns:atom", atomNS)
	}

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(feed.Title)
	channel.CreateElement("link").SetText(feed.Link)
	channel.CreateElement("description").SetText(feed.Description)
	if feed.SelfURL != "" {
		self := channel.CreateElement("atom:link")
		self.CreateAttr("href", feed.SelfURL)
		self.CreateAttr("rel", "self")
		self.CreateAttr("type", "application/rss+xml")
	}
	if feed.Language != "" {
		channel.CreateElement("language").SetText(feed.Language)
	}
	channel.CreateElement("pubDate").SetText(formatDate(feed.Updated))
	channel.CreateElement("lastBuildDate").SetText(formatDate(feed.Updated))
	channel.CreateElement("generator").SetText(Generator)

	for _, entry := range feed.Entries {
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(entry.Title)
		item.CreateElement("link").SetText(entry.Link)
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(entry.GUID)
		item.CreateElement("pubDate").SetText(formatDate(entry.Updated))
	}

	return doc
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}
