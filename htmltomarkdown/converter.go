// Package htmltomarkdown renders the index page as Markdown using
// JohannesKaufmann/html-to-markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/fwojciec/linkfeed"
)

var _ linkfeed.Converter = (*Converter)(nil)

// Converter turns a rendered index page into Markdown. The index is made of
// headings, paragraphs, lists, links and emphasis, all covered by the
// CommonMark rules.
type Converter struct {
	conv *converter.Converter
}

// NewConverter returns a Converter for index pages.
func NewConverter() *Converter {
	return &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Convert returns the Markdown form of page, ending in a single newline.
// Returns EINVALID for a blank page.
func (c *Converter) Convert(page string) (string, error) {
	if strings.TrimSpace(page) == "" {
		return "", linkfeed.Errorf(linkfeed.EINVALID, "empty index page")
	}

	md, err := c.conv.ConvertString(page)
	if err != nil {
		return "", linkfeed.Errorf(linkfeed.EINTERNAL, "failed to convert index page: %v", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
