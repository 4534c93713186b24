package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
site:
  title: My feeds
  base_url: https://me.example.io/site
  timeout: 10s
  concurrency: 2
  rate_limit: 0.5
feeds:
  - id: recipes
    title: Recipes
    source_url: https://cooking.example.com/recipes
    path_must_contain: /recipes/
    excluded_if_path_equals: [/recipes]
    excluded_if_url_contains: [utm_]
    excluded_if_title_contains: [sponsored]
    max_items: 20
  - id: news
    title: News
    source_url: https://news.example.com/
    match_url_contains: /2026/
`

const tomlConfig = `
[site]
title = "My feeds"
timeout = 15

[[feeds]]
id = "recipes"
title = "Recipes"
source_url = "https://cooking.example.com/recipes"
path_must_contain = "/recipes/"
excluded_if_path_equals = ["/recipes"]
`

const jsonConfig = `{
  "site": {"title": "My feeds", "timeout": "1m"},
  "feeds": [
    {"id": "recipes", "title": "Recipes", "source_url": "https://cooking.example.com/recipes", "describe_from_page": true}
  ]
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads YAML configuration", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.yaml", yamlConfig))

		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "My feeds", cfg.Site.Title)
		assert.Equal(t, "https://me.example.io/site", cfg.Site.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Site.Timeout)
		assert.Equal(t, 2, cfg.Site.Concurrency)
		assert.InDelta(t, 0.5, cfg.Site.RateLimit, 0.0001)

		require.Len(t, cfg.Sources, 2)
		recipes := cfg.Sources[0]
		assert.Equal(t, "recipes", recipes.ID)
		assert.Equal(t, "Recipes", recipes.Title)
		assert.Equal(t, "https://cooking.example.com/recipes", recipes.SourceURL)
		assert.Equal(t, 20, recipes.MaxItems)
		assert.Equal(t, "/recipes/", recipes.Rules.RequiredPathSubstring)
		assert.Equal(t, []string{"/recipes"}, recipes.Rules.ExcludedExactPaths)
		assert.Equal(t, []string{"utm_"}, recipes.Rules.ExcludedURLSubstrings)
		assert.Equal(t, []string{"sponsored"}, recipes.Rules.ExcludedTitleSubstrings)

		news := cfg.Sources[1]
		assert.Equal(t, "/2026/", news.Rules.RequiredSubstring)
		assert.Equal(t, linkfeed.DefaultMaxItems, news.MaxItems)
	})

	t.Run("keeps source order", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.yml", yamlConfig))

		require.NoError(t, err)
		assert.Equal(t, "recipes", cfg.Sources[0].ID)
		assert.Equal(t, "news", cfg.Sources[1].ID)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.toml", tomlConfig))

		require.NoError(t, err)
		assert.Equal(t, linkfeed.DefaultOutputDir, cfg.Site.OutputDir)
		assert.Equal(t, linkfeed.DefaultIndexPath, cfg.Site.IndexPath)
		assert.Equal(t, linkfeed.DefaultUserAgent, cfg.Site.UserAgent)
		assert.Equal(t, linkfeed.DefaultLanguage, cfg.Site.Language)
		assert.Equal(t, 1, cfg.Site.Concurrency)
	})

	t.Run("loads TOML configuration with numeric timeout", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.toml", tomlConfig))

		require.NoError(t, err)
		assert.Equal(t, 15*time.Second, cfg.Site.Timeout)
		require.Len(t, cfg.Sources, 1)
		assert.Equal(t, "/recipes/", cfg.Sources[0].Rules.RequiredPathSubstring)
		assert.Equal(t, []string{"/recipes"}, cfg.Sources[0].Rules.ExcludedExactPaths)
	})

	t.Run("loads JSON configuration", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.json", jsonConfig))

		require.NoError(t, err)
		assert.Equal(t, time.Minute, cfg.Site.Timeout)
		require.Len(t, cfg.Sources, 1)
		assert.True(t, cfg.Sources[0].DescribeFromPage)
	})

	t.Run("propagates site title exclusions", func(t *testing.T) {
		t.Parallel()

		content := `
site:
  default_excluded_titles: []
feeds:
  - id: recipes
    title: Recipes
    source_url: https://cooking.example.com/recipes
`

		cfg, err := config.Load(writeConfig(t, "feeds.yaml", content))

		require.NoError(t, err)
		assert.Empty(t, cfg.Sources[0].Rules.TitleExclusions())
	})

	t.Run("returns config error for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(filepath.Join(t.TempDir(), "feeds.yaml"))

		require.Error(t, err)
		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
		assert.Contains(t, linkfeed.ErrorMessage(err), "not found")
	})

	t.Run("returns config error for unknown extension", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "feeds.ini", "id=recipes"))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("returns config error for malformed YAML", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "feeds.yaml", "feeds: [\n  - id: recipes\n"))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("rejects misspelled keys", func(t *testing.T) {
		t.Parallel()

		content := `
feeds:
  - id: recipes
    title: Recipes
    source_url: https://cooking.example.com/recipes
    path_must_contains: /recipes/
`

		_, err := config.Load(writeConfig(t, "feeds.yaml", content))

		require.Error(t, err)
		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
		assert.Contains(t, linkfeed.ErrorMessage(err), "path_must_contains")
	})

	t.Run("rejects unknown TOML keys", func(t *testing.T) {
		t.Parallel()

		content := tomlConfig + "\nunexpected = true\n"

		_, err := config.Load(writeConfig(t, "feeds.toml", content))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("rejects unknown JSON keys", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "feeds.json", `{"feedz": []}`))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("returns config error for invalid timeout", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "feeds.yaml", "site:\n  timeout: soon\n"))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("rejects an explicit zero max_items", func(t *testing.T) {
		t.Parallel()

		content := `
feeds:
  - id: recipes
    title: Recipes
    source_url: https://cooking.example.com/recipes
    max_items: 0
`

		_, err := config.Load(writeConfig(t, "feeds.yaml", content))

		require.Error(t, err)
		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
		assert.Contains(t, linkfeed.ErrorMessage(err), `feed "recipes": max_items must be at least 1`)
	})

	t.Run("rejects a negative max_items in TOML", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "feeds.toml", tomlConfig+"max_items = -5\n"))

		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(err))
	})

	t.Run("accepts max_items of one", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Parse([]byte(`{"feeds": [{"id": "recipes", "title": "Recipes", "source_url": "https://cooking.example.com/recipes", "max_items": 1}]}`), config.JSON)

		require.NoError(t, err)
		require.Len(t, cfg.Sources, 1)
		assert.Equal(t, 1, cfg.Sources[0].MaxItems)
	})

	t.Run("loads an empty file without sources", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, "feeds.yaml", ""))

		require.NoError(t, err)
		assert.Empty(t, cfg.Sources)
		assert.Equal(t, linkfeed.ECONFIG, linkfeed.ErrorCode(cfg.Validate()))
	})
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want config.Format
	}{
		{"feeds.yaml", config.YAML},
		{"feeds.YML", config.YAML},
		{"conf/feeds.toml", config.TOML},
		{"feeds.json", config.JSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := config.FormatOf(tt.path)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
