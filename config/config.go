// Package config loads linkfeed configuration files. YAML, TOML and JSON
// are supported and selected by file extension.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/linkfeed"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// FormatOf returns the format implied by the file extension of path.
// Returns ECONFIG for unknown extensions.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".json":
		return JSON, nil
	}
	return "", linkfeed.Errorf(linkfeed.ECONFIG, "unsupported config file extension %q", filepath.Ext(path))
}

// Load reads the configuration file at path and applies defaults.
// The result is not validated; call Validate once overrides are applied.
func Load(path string) (*linkfeed.Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, linkfeed.Errorf(linkfeed.ECONFIG, "config file %s not found", path)
	}
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.ECONFIG, "failed to read %s: %v", path, err)
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, linkfeed.Errorf(linkfeed.ECONFIG, "%s: %s", path, linkfeed.ErrorMessage(err))
	}
	return cfg, nil
}

// Parse decodes data in the given format and applies defaults. Unknown
// keys are rejected so that misspelled rules do not silently match
// everything. Returns ECONFIG on failure.
func Parse(data []byte, format Format) (*linkfeed.Config, error) {
	var raw fileConfig

	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, linkfeed.Errorf(linkfeed.ECONFIG, "failed to parse YAML: %v", err)
		}
	case TOML:
		md, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, linkfeed.Errorf(linkfeed.ECONFIG, "failed to parse TOML: %v", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, linkfeed.Errorf(linkfeed.ECONFIG, "unknown TOML key %q", undecoded[0].String())
		}
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, linkfeed.Errorf(linkfeed.ECONFIG, "failed to parse JSON: %v", err)
		}
	default:
		return nil, linkfeed.Errorf(linkfeed.ECONFIG, "unsupported config format %q", format)
	}

	cfg, err := raw.toConfig()
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

// fileConfig is the on-disk layout of a configuration file.
type fileConfig struct {
	Site  siteConfig   `yaml:"site" toml:"site" json:"site"`
	Feeds []feedConfig `yaml:"feeds" toml:"feeds" json:"feeds"`
}

type siteConfig struct {
	Title                 string   `yaml:"title" toml:"title" json:"title"`
	BaseURL               string   `yaml:"base_url" toml:"base_url" json:"base_url"`
	OutputDir             string   `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	IndexPath             string   `yaml:"index_path" toml:"index_path" json:"index_path"`
	IndexTemplate         string   `yaml:"index_template" toml:"index_template" json:"index_template"`
	MarkdownIndexPath     string   `yaml:"markdown_index_path" toml:"markdown_index_path" json:"markdown_index_path"`
	UserAgent             string   `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Timeout               Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	Language              string   `yaml:"language" toml:"language" json:"language"`
	Concurrency           int      `yaml:"concurrency" toml:"concurrency" json:"concurrency"`
	RateLimit             float64  `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	Database              string   `yaml:"database" toml:"database" json:"database"`
	AnchorSelector        string   `yaml:"anchor_selector" toml:"anchor_selector" json:"anchor_selector"`
	DefaultExcludedTitles []string `yaml:"default_excluded_titles" toml:"default_excluded_titles" json:"default_excluded_titles"`
}

type feedConfig struct {
	ID                      string   `yaml:"id" toml:"id" json:"id"`
	Title                   string   `yaml:"title" toml:"title" json:"title"`
	SourceURL               string   `yaml:"source_url" toml:"source_url" json:"source_url"`
	Description             string   `yaml:"description" toml:"description" json:"description"`
	DescribeFromPage        bool     `yaml:"describe_from_page" toml:"describe_from_page" json:"describe_from_page"`
	MatchURLContains        string   `yaml:"match_url_contains" toml:"match_url_contains" json:"match_url_contains"`
	PathMustContain         string   `yaml:"path_must_contain" toml:"path_must_contain" json:"path_must_contain"`
	ExcludedIfPathEquals    []string `yaml:"excluded_if_path_equals" toml:"excluded_if_path_equals" json:"excluded_if_path_equals"`
	ExcludedIfURLContains   []string `yaml:"excluded_if_url_contains" toml:"excluded_if_url_contains" json:"excluded_if_url_contains"`
	ExcludedIfTitleContains []string `yaml:"excluded_if_title_contains" toml:"excluded_if_title_contains" json:"excluded_if_title_contains"`
	MaxItems                *int     `yaml:"max_items" toml:"max_items" json:"max_items"`
}

// toConfig maps the file layout onto domain types. An omitted max_items
// stays zero and is defaulted later; an explicit value below one is an error.
func (c *fileConfig) toConfig() (*linkfeed.Config, error) {
	cfg := &linkfeed.Config{
		Site: linkfeed.Site{
			Title:                 c.Site.Title,
			BaseURL:               c.Site.BaseURL,
			OutputDir:             c.Site.OutputDir,
			IndexPath:             c.Site.IndexPath,
			IndexTemplate:         c.Site.IndexTemplate,
			MarkdownIndexPath:     c.Site.MarkdownIndexPath,
			UserAgent:             c.Site.UserAgent,
			Timeout:               time.Duration(c.Site.Timeout),
			Language:              c.Site.Language,
			Concurrency:           c.Site.Concurrency,
			RateLimit:             c.Site.RateLimit,
			Database:              c.Site.Database,
			AnchorSelector:        c.Site.AnchorSelector,
			DefaultExcludedTitles: c.Site.DefaultExcludedTitles,
		},
	}
	for _, f := range c.Feeds {
		var maxItems int
		if f.MaxItems != nil {
			if *f.MaxItems < 1 {
				return nil, linkfeed.Errorf(linkfeed.ECONFIG, "feed %q: max_items must be at least 1", f.ID)
			}
			maxItems = *f.MaxItems
		}
		cfg.Sources = append(cfg.Sources, &linkfeed.Source{
			ID:               f.ID,
			Title:            f.Title,
			SourceURL:        f.SourceURL,
			Description:      f.Description,
			DescribeFromPage: f.DescribeFromPage,
			MaxItems:         maxItems,
			Rules: linkfeed.FilterRules{
				RequiredSubstring:       f.MatchURLContains,
				RequiredPathSubstring:   f.PathMustContain,
				ExcludedExactPaths:      f.ExcludedIfPathEquals,
				ExcludedURLSubstrings:   f.ExcludedIfURLContains,
				ExcludedTitleSubstrings: f.ExcludedIfTitleContains,
			},
		})
	}
	return cfg, nil
}

// Duration is a time.Duration that decodes from Go duration strings such
// as "45s" or from a bare number of seconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	return d.UnmarshalText(bytes.Trim(data, `"`))
}
