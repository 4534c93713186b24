// Package goquery parses listing pages with PuerkitoBio/goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/linkfeed"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var _ linkfeed.DocumentParser = (*Parser)(nil)

// DefaultAnchorSelector matches every anchor that carries an href.
const DefaultAnchorSelector = "a[href]"

// Parser implements linkfeed.DocumentParser.
type Parser struct {
	selector string
}

// Option configures a Parser.
type Option func(*Parser)

// WithSelector restricts anchors to those matched by a CSS selector,
// e.g. "main a[href]". Matches are returned in document order.
func WithSelector(selector string) Option {
	return func(p *Parser) {
		p.selector = selector
	}
}

// NewParser creates a new Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{selector: DefaultAnchorSelector}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses html and returns its anchors in document order.
// Anchor text is the anchor's text nodes, trimmed and joined by single
// spaces, so that "<a>Apple<br>pie</a>" reads "Apple pie".
func (p *Parser) Parse(htmlContent string) (*linkfeed.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.EPARSE, "failed to parse HTML: %v", err)
	}

	m, err := cascadia.Compile(p.selector)
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.EINVALID, "invalid selector %q: %v", p.selector, err)
	}

	result := &linkfeed.Document{}
	doc.FindMatcher(m).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		result.Anchors = append(result.Anchors, linkfeed.Anchor{
			Href: href,
			Text: anchorText(sel),
		})
	})

	return result, nil
}

// anchorText joins the trimmed, non-empty text nodes below the selection
// with single spaces. Script and style content is skipped.
func anchorText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
