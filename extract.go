package linkfeed

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MinTitleLength is the minimum number of characters a normalized anchor
// title must have.
const MinTitleLength = 4

// Item is a titled link that represents one content entry on a listing page.
type Item struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Candidate is a link under evaluation by the filter chain.
type Candidate struct {
	// URL is the resolved absolute URL.
	URL *url.URL

	// Link is URL rendered as a string. Contains checks run against it.
	Link string

	// Title is the normalized anchor text.
	Title string
}

// Path returns the URL path component without query string or fragment.
func (c Candidate) Path() string {
	return c.URL.EscapedPath()
}

// linkForms returns Link and, when it differs, its percent-decoded form, so
// rules written with literal non-ASCII text or spaces still match.
func (c Candidate) linkForms() []string {
	decoded, err := url.PathUnescape(c.Link)
	if err != nil || decoded == c.Link {
		return []string{c.Link}
	}
	return []string{c.Link, decoded}
}

// pathForms returns the escaped path and, when it differs, the decoded path.
func (c Candidate) pathForms() []string {
	escaped := c.Path()
	if c.URL.Path == escaped {
		return []string{escaped}
	}
	return []string{escaped, c.URL.Path}
}

// Rule is one named predicate in a filter chain. Keep returns false to
// reject the candidate.
type Rule struct {
	Name string
	Keep func(c Candidate) bool
}

// Rule names reported in ExtractResult.Rejected.
const (
	RuleHost             = "host"
	RuleRequiredURL      = "required_substring"
	RuleExcludedURL      = "excluded_url_substring"
	RuleExcludedPath     = "excluded_exact_path"
	RuleRequiredPath     = "required_path_substring"
	RuleTitleLength      = "title_length"
	RuleExcludedTitle    = "excluded_title_substring"
	RuleUnresolvableHref = "unresolvable_href"
)

// ExtractResult is the outcome of running a LinkFilter over a document.
type ExtractResult struct {
	// Items are the surviving links, deduplicated by URL in first-seen order.
	Items []Item

	// Rejected counts candidates by the name of the first rule that
	// rejected them.
	Rejected map[string]int

	// Duplicates counts candidates dropped because their URL was already
	// taken by an earlier anchor.
	Duplicates int
}

// LinkFilter extracts content links from documents of a single source.
// It holds no mutable state and is safe for concurrent use.
type LinkFilter struct {
	base  *url.URL
	rules []Rule
}

// NewLinkFilter builds the filter chain for a source URL and rule set.
// Returns EINVALID if sourceURL is not an absolute URL.
func NewLinkFilter(sourceURL string, rules FilterRules) (*LinkFilter, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid source URL: %v", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, Errorf(EINVALID, "source URL must be absolute: %q", sourceURL)
	}
	return &LinkFilter{base: base, rules: buildRules(base, rules)}, nil
}

// Rules returns the filter chain in evaluation order.
func (f *LinkFilter) Rules() []Rule {
	return f.rules
}

// Check evaluates the chain against a candidate and returns the name of the
// first rule that rejects it. The boolean is true when every rule passes.
func (f *LinkFilter) Check(c Candidate) (string, bool) {
	for _, r := range f.rules {
		if !r.Keep(c) {
			return r.Name, false
		}
	}
	return "", true
}

// Extract walks the document's anchors in order, resolves and filters them,
// and returns the deduplicated items. Zero matches is not an error.
func (f *LinkFilter) Extract(doc *Document) *ExtractResult {
	result := &ExtractResult{
		Items:    []Item{},
		Rejected: make(map[string]int),
	}
	if doc == nil {
		return result
	}

	seen := make(map[string]struct{})
	for _, a := range doc.Anchors {
		href := strings.TrimSpace(a.Href)
		if href == "" {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			result.Rejected[RuleUnresolvableHref]++
			continue
		}
		resolved := f.base.ResolveReference(ref)

		c := Candidate{
			URL:   resolved,
			Link:  resolved.String(),
			Title: NormalizeTitle(a.Text),
		}
		if name, ok := f.Check(c); !ok {
			result.Rejected[name]++
			continue
		}

		if _, dup := seen[c.Link]; dup {
			result.Duplicates++
			continue
		}
		seen[c.Link] = struct{}{}
		result.Items = append(result.Items, Item{Title: c.Title, URL: c.Link})
	}

	return result
}

// Extract resolves, filters and deduplicates the anchors of doc against
// sourceURL and rules. It is deterministic: identical inputs always yield
// identical ordered output.
func Extract(doc *Document, sourceURL string, rules FilterRules) ([]Item, error) {
	f, err := NewLinkFilter(sourceURL, rules)
	if err != nil {
		return nil, err
	}
	return f.Extract(doc).Items, nil
}

// NormalizeTitle collapses runs of whitespace to single spaces and trims
// the result.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// buildRules returns the fixed-order chain: host, required substring,
// excluded URL substrings, excluded exact paths, required path substring,
// title length, excluded title substrings.
func buildRules(base *url.URL, rules FilterRules) []Rule {
	chain := []Rule{{
		Name: RuleHost,
		Keep: func(c Candidate) bool {
			return strings.EqualFold(c.URL.Host, base.Host)
		},
	}}

	if sub := rules.RequiredSubstring; sub != "" {
		chain = append(chain, Rule{
			Name: RuleRequiredURL,
			Keep: func(c Candidate) bool {
				return containsIn(c.linkForms(), sub)
			},
		})
	}

	if excluded := nonEmpty(rules.ExcludedURLSubstrings); len(excluded) > 0 {
		chain = append(chain, Rule{
			Name: RuleExcludedURL,
			Keep: func(c Candidate) bool {
				forms := c.linkForms()
				for _, sub := range excluded {
					if containsIn(forms, sub) {
						return false
					}
				}
				return true
			},
		})
	}

	if len(rules.ExcludedExactPaths) > 0 {
		paths := make(map[string]struct{}, len(rules.ExcludedExactPaths))
		for _, p := range rules.ExcludedExactPaths {
			paths[p] = struct{}{}
		}
		chain = append(chain, Rule{
			Name: RuleExcludedPath,
			Keep: func(c Candidate) bool {
				for _, p := range c.pathForms() {
					if _, excluded := paths[p]; excluded {
						return false
					}
				}
				return true
			},
		})
	}

	if sub := rules.RequiredPathSubstring; sub != "" {
		chain = append(chain, Rule{
			Name: RuleRequiredPath,
			Keep: func(c Candidate) bool {
				return containsIn(c.pathForms(), sub)
			},
		})
	}

	chain = append(chain, Rule{
		Name: RuleTitleLength,
		Keep: func(c Candidate) bool {
			return utf8.RuneCountInString(c.Title) >= MinTitleLength
		},
	})

	var badTitles []string
	for _, s := range nonEmpty(rules.TitleExclusions()) {
		badTitles = append(badTitles, strings.ToLower(s))
	}
	if len(badTitles) > 0 {
		chain = append(chain, Rule{
			Name: RuleExcludedTitle,
			Keep: func(c Candidate) bool {
				title := strings.ToLower(c.Title)
				for _, bad := range badTitles {
					if strings.Contains(title, bad) {
						return false
					}
				}
				return true
			},
		})
	}

	return chain
}

func containsIn(forms []string, sub string) bool {
	for _, s := range forms {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
