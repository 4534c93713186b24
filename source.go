package linkfeed

import (
	"net/url"
	"regexp"
	"time"
)

// Defaults applied to configuration values left unset.
const (
	DefaultMaxItems    = 50
	DefaultTimeout     = 30 * time.Second
	DefaultLanguage    = "en"
	DefaultOutputDir   = "feeds"
	DefaultIndexPath   = "index.html"
	DefaultUserAgent   = "linkfeed (+https://github.com/fwojciec/linkfeed)"
	DefaultConcurrency = 1
)

// DefaultExcludedTitleSubstrings covers accessibility skip-link boilerplate
// that appears on most listing pages.
var DefaultExcludedTitleSubstrings = []string{
	"skip to main content",
	"skip to content",
	"skip to navigation",
	"skip navigation",
	"jump to content",
}

// Source identifies one listing page to scrape.
type Source struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	SourceURL string `json:"sourceUrl"`

	// Description overrides the generated feed description.
	Description string `json:"description"`

	// DescribeFromPage derives the feed description from the listing
	// page's own metadata when Description is empty.
	DescribeFromPage bool `json:"describeFromPage"`

	MaxItems int         `json:"maxItems"`
	Rules    FilterRules `json:"rules"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.ID == "" {
		return Errorf(ECONFIG, "source id required")
	}
	if !slugRe.MatchString(s.ID) {
		return Errorf(ECONFIG, "source %q: id must be a filename-safe slug", s.ID)
	}
	if s.Title == "" {
		return Errorf(ECONFIG, "source %q: title required", s.ID)
	}
	if s.SourceURL == "" {
		return Errorf(ECONFIG, "source %q: source_url required", s.ID)
	}
	u, err := url.Parse(s.SourceURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Errorf(ECONFIG, "source %q: source_url must be an absolute URL", s.ID)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(ECONFIG, "source %q: unsupported scheme %q", s.ID, u.Scheme)
	}
	if s.MaxItems < 0 {
		return Errorf(ECONFIG, "source %q: max_items must be non-negative", s.ID)
	}
	return nil
}

var slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FilterRules is the declarative link policy for one source.
// The same-host constraint is always enforced and is not configurable.
type FilterRules struct {
	// RequiredSubstring must appear in the resolved absolute URL.
	RequiredSubstring string `json:"requiredSubstring"`

	// RequiredPathSubstring must appear in the URL path.
	RequiredPathSubstring string `json:"requiredPathSubstring"`

	// ExcludedExactPaths rejects URLs whose path equals one of these,
	// commonly the listing page itself.
	ExcludedExactPaths []string `json:"excludedExactPaths"`

	// ExcludedURLSubstrings rejects URLs containing any of these.
	ExcludedURLSubstrings []string `json:"excludedUrlSubstrings"`

	// ExcludedTitleSubstrings rejects titles containing any of these,
	// compared case-insensitively. They add to BaseExcludedTitleSubstrings.
	ExcludedTitleSubstrings []string `json:"excludedTitleSubstrings"`

	// BaseExcludedTitleSubstrings replaces DefaultExcludedTitleSubstrings
	// when non-nil.
	BaseExcludedTitleSubstrings []string `json:"-"`
}

// TitleExclusions returns the effective list of excluded title substrings.
func (r FilterRules) TitleExclusions() []string {
	base := r.BaseExcludedTitleSubstrings
	if base == nil {
		base = DefaultExcludedTitleSubstrings
	}
	out := make([]string, 0, len(base)+len(r.ExcludedTitleSubstrings))
	out = append(out, base...)
	return append(out, r.ExcludedTitleSubstrings...)
}

// Site holds run-wide settings shared by every source.
type Site struct {
	Title             string        `json:"title"`
	BaseURL           string        `json:"baseUrl"`
	OutputDir         string        `json:"outputDir"`
	IndexPath         string        `json:"indexPath"`
	IndexTemplate     string        `json:"indexTemplate"`
	MarkdownIndexPath string        `json:"markdownIndexPath"`
	UserAgent         string        `json:"userAgent"`
	Timeout           time.Duration `json:"timeout"`
	Language          string        `json:"language"`
	Concurrency       int           `json:"concurrency"`
	RateLimit         float64       `json:"rateLimit"`
	Database          string        `json:"database"`
	AnchorSelector    string        `json:"anchorSelector"`

	// DefaultExcludedTitles replaces DefaultExcludedTitleSubstrings for
	// every source when non-nil.
	DefaultExcludedTitles []string `json:"defaultExcludedTitles"`
}

// Config is the complete run configuration: site settings plus the ordered
// list of sources.
type Config struct {
	Site    Site      `json:"site"`
	Sources []*Source `json:"sources"`
}

// SetDefaults fills unset fields with their default values.
func (c *Config) SetDefaults() {
	if c.Site.OutputDir == "" {
		c.Site.OutputDir = DefaultOutputDir
	}
	if c.Site.IndexPath == "" {
		c.Site.IndexPath = DefaultIndexPath
	}
	if c.Site.UserAgent == "" {
		c.Site.UserAgent = DefaultUserAgent
	}
	if c.Site.Timeout == 0 {
		c.Site.Timeout = DefaultTimeout
	}
	if c.Site.Language == "" {
		c.Site.Language = DefaultLanguage
	}
	if c.Site.Concurrency == 0 {
		c.Site.Concurrency = DefaultConcurrency
	}
	for _, s := range c.Sources {
		if s == nil {
			continue
		}
		if s.MaxItems == 0 {
			s.MaxItems = DefaultMaxItems
		}
		if c.Site.DefaultExcludedTitles != nil {
			s.Rules.BaseExcludedTitleSubstrings = c.Site.DefaultExcludedTitles
		}
	}
}

// Validate returns an ECONFIG error if the configuration cannot be run.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return Errorf(ECONFIG, "no sources configured")
	}
	if c.Site.Concurrency < 1 {
		return Errorf(ECONFIG, "concurrency must be at least 1")
	}
	if c.Site.Timeout < 0 {
		return Errorf(ECONFIG, "timeout must be non-negative")
	}
	if c.Site.RateLimit < 0 {
		return Errorf(ECONFIG, "rate_limit must be non-negative")
	}
	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || !u.IsAbs() {
			return Errorf(ECONFIG, "base_url must be an absolute URL")
		}
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s == nil {
			return Errorf(ECONFIG, "source at index %d is empty", i)
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID] {
			return Errorf(ECONFIG, "duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// FindSource returns the source with the given id.
// Returns ENOTFOUND if no such source is configured.
func (c *Config) FindSource(id string) (*Source, error) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, Errorf(ENOTFOUND, "source %q not configured", id)
}
