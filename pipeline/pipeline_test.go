package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/mock"
	"github.com/fwojciec/linkfeed/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buildTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// site serves listing pages by URL. The fetcher returns the URL itself as
// the page body and the parser maps it back to the page's anchors.
type site struct {
	mu      sync.Mutex
	pages   map[string][]linkfeed.Anchor
	fetched []string
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.fetched = append(s.fetched, url)
			if _, ok := s.pages[url]; !ok {
				return "", linkfeed.Errorf(linkfeed.EFETCH, "GET %s: status 404", url)
			}
			return url, nil
		},
	}
}

func (s *site) parser() *mock.DocumentParser {
	return &mock.DocumentParser{
		ParseFn: func(html string) (*linkfeed.Document, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return &linkfeed.Document{Anchors: s.pages[html]}, nil
		},
	}
}

// feedStore collects written feeds by ID.
type feedStore struct {
	mu    sync.Mutex
	feeds map[string]*linkfeed.Feed
}

func (s *feedStore) writer() *mock.FeedWriter {
	s.feeds = make(map[string]*linkfeed.Feed)
	return &mock.FeedWriter{
		WriteFeedFn: func(ctx context.Context, feed *linkfeed.Feed) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.feeds[feed.ID] = feed
			return "out/" + feed.ID + ".xml", nil
		},
	}
}

func recipesSite() *site {
	return &site{pages: map[string][]linkfeed.Anchor{
		"https://cooking.example.com/recipes": {
			{Href: "/recipes/pie", Text: "Apple pie"},
			{Href: "/recipes/stew", Text: "Fish stew"},
			{Href: "/about", Text: "About us"},
		},
		"https://news.example.org/": {
			{Href: "/2026/story", Text: "Big story"},
		},
	}}
}

func recipesConfig() *linkfeed.Config {
	cfg := &linkfeed.Config{
		Site: linkfeed.Site{Title: "My feeds", OutputDir: "feeds"},
		Sources: []*linkfeed.Source{
			{
				ID:        "recipes",
				Title:     "Recipes",
				SourceURL: "https://cooking.example.com/recipes",
				Rules:     linkfeed.FilterRules{RequiredPathSubstring: "/recipes/"},
			},
			{
				ID:        "news",
				Title:     "News",
				SourceURL: "https://news.example.org/",
			},
		},
	}
	cfg.SetDefaults()
	return cfg
}

func fixedNow() time.Time { return buildTime }

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	t.Run("writes one feed per source and renders the index", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		var store feedStore
		var index *linkfeed.Index
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Index: &mock.IndexRenderer{
				RenderIndexFn: func(ctx context.Context, idx *linkfeed.Index) error {
					index = idx
					return nil
				},
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Succeeded)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, buildTime, result.Generated)

		recipes := store.feeds["recipes"]
		require.NotNil(t, recipes)
		require.Len(t, recipes.Entries, 2)
		assert.Equal(t, "Apple pie", recipes.Entries[0].Title)
		assert.Equal(t, "https://cooking.example.com/recipes/pie", recipes.Entries[0].Link)
		assert.Equal(t, "Fish stew", recipes.Entries[1].Title)
		assert.Equal(t, "Auto-generated RSS feed for https://cooking.example.com/recipes", recipes.Description)
		assert.Equal(t, "en", recipes.Language)
		assert.Empty(t, recipes.SelfURL)
		assert.Equal(t, buildTime, recipes.Updated)

		assert.Equal(t, "out/recipes.xml", result.Sources[0].Path)
		assert.Equal(t, 1, result.Sources[0].Rejected[linkfeed.RuleRequiredPath])

		require.NotNil(t, index)
		assert.Equal(t, "My feeds", index.Title)
		assert.Equal(t, buildTime, index.Generated)
		require.Len(t, index.Entries, 2)
		assert.Equal(t, linkfeed.IndexEntry{
			ID:        "recipes",
			Title:     "Recipes",
			SourceURL: "https://cooking.example.com/recipes",
			FeedURL:   "feeds/recipes.xml",
			Items:     2,
			Updated:   buildTime,
		}, index.Entries[0])
		assert.Equal(t, "news", index.Entries[1].ID)
	})

	t.Run("keeps configuration order with parallel sources", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string][]linkfeed.Anchor{}}
		cfg := &linkfeed.Config{Site: linkfeed.Site{Concurrency: 4}}
		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			u := "https://" + id + ".example.com/list"
			s.pages[u] = []linkfeed.Anchor{{Href: "/post", Text: "Post " + id}}
			cfg.Sources = append(cfg.Sources, &linkfeed.Source{ID: id, Title: id, SourceURL: u})
		}
		var store feedStore
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser(), Feeds: store.writer(), Now: fixedNow}

		result, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		require.Len(t, result.Sources, 6)
		for i, res := range result.Sources {
			assert.Equal(t, cfg.Sources[i].ID, res.Source.ID)
			require.Len(t, res.Items, 1)
			assert.Equal(t, "Post "+res.Source.ID, res.Items[0].Title)
		}
	})

	t.Run("isolates a failing source", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		delete(s.pages, "https://news.example.org/")
		var store feedStore
		var index *linkfeed.Index
		var logs bytes.Buffer
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Index: &mock.IndexRenderer{
				RenderIndexFn: func(ctx context.Context, idx *linkfeed.Index) error {
					index = idx
					return nil
				},
			},
			Logger: slog.New(slog.NewTextHandler(&logs, nil)),
			Now:    fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, store.feeds, "recipes")
		assert.NotContains(t, store.feeds, "news")

		failed := result.Sources[1]
		var srcErr *linkfeed.SourceError
		require.ErrorAs(t, failed.Err, &srcErr)
		assert.Equal(t, "news", srcErr.SourceID)
		assert.Equal(t, linkfeed.EFETCH, linkfeed.ErrorCode(failed.Err))

		require.Len(t, index.Entries, 2)
		assert.False(t, index.Entries[0].Failed)
		assert.True(t, index.Entries[1].Failed)
		assert.Equal(t, "GET https://news.example.org/: status 404", index.Entries[1].Error)
		assert.True(t, index.Entries[1].Updated.IsZero())

		assert.Contains(t, logs.String(), "level=WARN msg=\"source failed\" id=news")
		assert.Contains(t, logs.String(), "msg=\"source processed\" id=recipes items=2 written=2")
	})

	t.Run("returns error when every source fails", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string][]linkfeed.Anchor{}}
		var store feedStore
		rendered := false
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Index: &mock.IndexRenderer{
				RenderIndexFn: func(ctx context.Context, idx *linkfeed.Index) error {
					rendered = true
					return nil
				},
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.Error(t, err)
		assert.Equal(t, linkfeed.EFETCH, linkfeed.ErrorCode(err))
		assert.Equal(t, 2, result.Failed)
		assert.True(t, rendered, "index lists failed sources")
	})

	t.Run("writes an empty feed when nothing matches", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		s.pages["https://cooking.example.com/recipes"] = []linkfeed.Anchor{{Href: "/about", Text: "About us"}}
		var store feedStore
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser(), Feeds: store.writer(), Now: fixedNow}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		require.Contains(t, store.feeds, "recipes")
		assert.Empty(t, store.feeds["recipes"].Entries)
		assert.NotNil(t, result.Sources[0].Items)
		assert.Empty(t, result.Sources[0].Items)
	})

	t.Run("returns write failures as source errors", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds: &mock.FeedWriter{
				WriteFeedFn: func(ctx context.Context, feed *linkfeed.Feed) (string, error) {
					if feed.ID == "news" {
						return "", linkfeed.Errorf(linkfeed.EWRITE, "disk full")
					}
					return feed.ID + ".xml", nil
				},
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.Equal(t, linkfeed.EWRITE, linkfeed.ErrorCode(result.Sources[1].Err))
	})

	t.Run("truncates items to max items", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		cfg := recipesConfig()
		cfg.Sources[0].MaxItems = 1
		var store feedStore
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser(), Feeds: store.writer(), Now: fixedNow}

		result, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		res := result.Sources[0]
		assert.Equal(t, 2, res.Found)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Apple pie", res.Items[0].Title)
		assert.Equal(t, pipeline.Digest(res.Items), res.Digest)
		assert.Len(t, store.feeds["recipes"].Entries, 1)
	})

	t.Run("sets self link from base url", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		cfg := recipesConfig()
		cfg.Site.BaseURL = "https://me.example.io/site/"
		var store feedStore
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser(), Feeds: store.writer(), Now: fixedNow}

		_, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, "https://me.example.io/site/feeds/recipes.xml", store.feeds["recipes"].SelfURL)
	})

	t.Run("describes feed from page metadata", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		cfg := recipesConfig()
		cfg.Sources[0].DescribeFromPage = true
		cfg.Sources[1].DescribeFromPage = true
		cfg.Sources[1].Description = "Configured"
		var store feedStore
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Metadata: &mock.MetadataExtractor{
				ExtractMetadataFn: func(html string) (*linkfeed.PageMetadata, error) {
					return &linkfeed.PageMetadata{Description: "Seasonal recipes"}, nil
				},
			},
			Feeds: store.writer(),
			Now:   fixedNow,
		}

		_, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, "Seasonal recipes", store.feeds["recipes"].Description)
		assert.Equal(t, "Configured", store.feeds["news"].Description)
	})

	t.Run("falls back to default description when metadata fails", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		cfg := recipesConfig()
		cfg.Sources[0].DescribeFromPage = true
		var store feedStore
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Metadata: &mock.MetadataExtractor{
				ExtractMetadataFn: func(html string) (*linkfeed.PageMetadata, error) {
					return nil, linkfeed.Errorf(linkfeed.EPARSE, "no metadata")
				},
			},
			Feeds: store.writer(),
			Now:   fixedNow,
		}

		_, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, "Auto-generated RSS feed for https://cooking.example.com/recipes", store.feeds["recipes"].Description)
	})

	t.Run("waits on the limiter per host", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		var mu sync.Mutex
		var hosts []string
		var store feedStore
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Limiter: &mock.DomainLimiter{
				WaitFn: func(ctx context.Context, domain string) error {
					mu.Lock()
					defer mu.Unlock()
					hosts = append(hosts, domain)
					return nil
				},
			},
			Now: fixedNow,
		}

		_, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"cooking.example.com", "news.example.org"}, hosts)
	})

	t.Run("records runs and new links", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		delete(s.pages, "https://news.example.org/")
		var store feedStore
		var runs []*linkfeed.Run
		var recorded []linkfeed.Item
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			SeenLinks: &mock.SeenLinkService{
				RecordLinksFn: func(ctx context.Context, sourceID string, items []linkfeed.Item, seenAt time.Time) (int, error) {
					assert.Equal(t, "recipes", sourceID)
					assert.Equal(t, buildTime, seenAt)
					recorded = items
					return 1, nil
				},
			},
			Runs: &mock.RunService{
				FindLastRunFn: func(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
					return nil, linkfeed.Errorf(linkfeed.ENOTFOUND, "no run")
				},
				CreateRunFn: func(ctx context.Context, run *linkfeed.Run) error {
					runs = append(runs, run)
					return nil
				},
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.Len(t, recorded, 2)
		assert.Equal(t, 1, result.Sources[0].New)
		assert.True(t, result.Sources[0].Changed)

		require.Len(t, runs, 2)
		assert.Equal(t, "recipes", runs[0].SourceID)
		assert.Equal(t, linkfeed.RunSucceeded, runs[0].Status)
		assert.Equal(t, 2, runs[0].ItemCount)
		assert.Equal(t, 1, runs[0].NewCount)
		assert.Equal(t, result.Sources[0].Digest, runs[0].Digest)
		assert.True(t, runs[0].Changed)
		assert.Equal(t, buildTime, runs[0].StartedAt)

		assert.Equal(t, "news", runs[1].SourceID)
		assert.Equal(t, linkfeed.RunFailed, runs[1].Status)
		assert.Contains(t, runs[1].Error, "status 404")
	})

	t.Run("reports unchanged when digest matches last run", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		var store feedStore
		digest := pipeline.Digest([]linkfeed.Item{
			{Title: "Apple pie", URL: "https://cooking.example.com/recipes/pie"},
			{Title: "Fish stew", URL: "https://cooking.example.com/recipes/stew"},
		})
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Runs: &mock.RunService{
				FindLastRunFn: func(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
					return &linkfeed.Run{SourceID: sourceID, Digest: digest}, nil
				},
				CreateRunFn: func(ctx context.Context, run *linkfeed.Run) error { return nil },
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.False(t, result.Sources[0].Changed)
		assert.True(t, result.Sources[1].Changed)
	})

	t.Run("lists failed source with its last successful run", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		delete(s.pages, "https://news.example.org/")
		var store feedStore
		var index *linkfeed.Index
		lastBuild := buildTime.Add(-24 * time.Hour)
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Index: &mock.IndexRenderer{
				RenderIndexFn: func(ctx context.Context, idx *linkfeed.Index) error {
					index = idx
					return nil
				},
			},
			Runs: &mock.RunService{
				FindLastRunFn: func(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
					if sourceID == "news" {
						return &linkfeed.Run{SourceID: sourceID, StartedAt: lastBuild, ItemCount: 7}, nil
					}
					return nil, linkfeed.Errorf(linkfeed.ENOTFOUND, "no run")
				},
				CreateRunFn: func(ctx context.Context, run *linkfeed.Run) error { return nil },
			},
			Now: fixedNow,
		}

		_, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		entry := index.Entries[1]
		assert.True(t, entry.Failed)
		assert.Equal(t, 7, entry.Items)
		assert.Equal(t, lastBuild, entry.Updated)
	})

	t.Run("continues when history fails", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		var store feedStore
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			SeenLinks: &mock.SeenLinkService{
				RecordLinksFn: func(ctx context.Context, sourceID string, items []linkfeed.Item, seenAt time.Time) (int, error) {
					return 0, linkfeed.Errorf(linkfeed.EINTERNAL, "database locked")
				},
			},
			Runs: &mock.RunService{
				FindLastRunFn: func(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
					return nil, linkfeed.Errorf(linkfeed.EINTERNAL, "database locked")
				},
				CreateRunFn: func(ctx context.Context, run *linkfeed.Run) error {
					return linkfeed.Errorf(linkfeed.EINTERNAL, "database locked")
				},
			},
			Now: fixedNow,
		}

		result, err := b.Build(context.Background(), recipesConfig())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Succeeded)
	})

	t.Run("returns index render failure", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		var store feedStore
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds:   store.writer(),
			Index: &mock.IndexRenderer{
				RenderIndexFn: func(ctx context.Context, idx *linkfeed.Index) error {
					return linkfeed.Errorf(linkfeed.EWRITE, "read-only file system")
				},
			},
			Now: fixedNow,
		}

		_, err := b.Build(context.Background(), recipesConfig())

		assert.Equal(t, linkfeed.EWRITE, linkfeed.ErrorCode(err))
	})

	t.Run("marks invalid source url as failure", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		cfg := recipesConfig()
		cfg.Sources[1].SourceURL = "/relative"
		var store feedStore
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser(), Feeds: store.writer(), Now: fixedNow}

		result, err := b.Build(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, linkfeed.EINVALID, linkfeed.ErrorCode(result.Sources[1].Err))
		assert.NotContains(t, s.fetched, "/relative")
	})
}

func TestBuilder_Preview(t *testing.T) {
	t.Parallel()

	t.Run("extracts without writing", func(t *testing.T) {
		t.Parallel()

		s := recipesSite()
		b := &pipeline.Builder{
			Fetcher: s.fetcher(),
			Parser:  s.parser(),
			Feeds: &mock.FeedWriter{
				WriteFeedFn: func(ctx context.Context, feed *linkfeed.Feed) (string, error) {
					t.Fatal("preview must not write feeds")
					return "", nil
				},
			},
		}

		result, err := b.Preview(context.Background(), recipesConfig().Sources[0])

		require.NoError(t, err)
		assert.Equal(t, []linkfeed.Item{
			{Title: "Apple pie", URL: "https://cooking.example.com/recipes/pie"},
			{Title: "Fish stew", URL: "https://cooking.example.com/recipes/stew"},
		}, result.Items)
	})

	t.Run("wraps fetch failure with source id", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string][]linkfeed.Anchor{}}
		b := &pipeline.Builder{Fetcher: s.fetcher(), Parser: s.parser()}

		_, err := b.Preview(context.Background(), recipesConfig().Sources[0])

		var srcErr *linkfeed.SourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, "recipes", srcErr.SourceID)
		assert.Equal(t, linkfeed.EFETCH, linkfeed.ErrorCode(err))
	})
}
