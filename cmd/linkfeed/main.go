package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/config"
	"github.com/fwojciec/linkfeed/etree"
	"github.com/fwojciec/linkfeed/fs"
	"github.com/fwojciec/linkfeed/gofeed"
	"github.com/fwojciec/linkfeed/goquery"
	"github.com/fwojciec/linkfeed/htmltomarkdown"
	lfhttp "github.com/fwojciec/linkfeed/http"
	"github.com/fwojciec/linkfeed/pipeline"
	lfslog "github.com/fwojciec/linkfeed/slog"
	"github.com/fwojciec/linkfeed/sqlite"
	"github.com/fwojciec/linkfeed/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Dir is the directory feeds and the index are written below.
	// Empty means the working directory. Set before calling Run().
	Dir string

	// SQLite database used for run history, when configured.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("linkfeed"),
		kong.Description("Generate RSS feeds from web listing pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) > 0 {
		if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
			_, _ = parser.Parse([]string{"--help"})
			return nil
		}
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}
	deps.Config = cfg

	logOpts := lfslog.Options{Level: cli.LogLevel, Format: cli.LogFormat, File: cli.LogFile}
	logger, logCloser, err := lfslog.NewLogger(stderr, logOpts)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	deps.Logger = logger

	writer := fs.NewWriter(m.Dir)
	deps.Writer = writer
	deps.Inspector = gofeed.NewInspector()

	if cfg.Site.Database != "" {
		m.DB = sqlite.NewDB(cfg.Site.Database)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set LINKFEED_DB or site.database to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", cfg.Site.Database, err)
		}
		defer m.Close()

		seen := sqlite.NewSeenLinkService(m.DB)
		if err := seen.Warm(ctx); err != nil {
			return fmt.Errorf("failed to load seen links: %w", err)
		}
		deps.SeenLinks = seen
		deps.Runs = sqlite.NewRunService(m.DB)
	}

	var fetcher linkfeed.Fetcher = lfhttp.NewFetcher(
		lfhttp.WithTimeout(cfg.Site.Timeout),
		lfhttp.WithUserAgent(cfg.Site.UserAgent),
	)
	var parserOpts []goquery.Option
	if cfg.Site.AnchorSelector != "" {
		parserOpts = append(parserOpts, goquery.WithSelector(cfg.Site.AnchorSelector))
	}
	var docParser linkfeed.DocumentParser = goquery.NewParser(parserOpts...)
	var feeds linkfeed.FeedWriter = etree.NewFeedWriter(writer, cfg.Site.OutputDir)

	indexOpts := []fs.IndexOption{fs.WithLanguage(cfg.Site.Language)}
	if cfg.Site.MarkdownIndexPath != "" {
		indexOpts = append(indexOpts, fs.WithMarkdown(cfg.Site.MarkdownIndexPath, htmltomarkdown.NewConverter()))
	}
	renderer := fs.NewIndexRenderer(writer, cfg.Site.IndexPath, indexOpts...)
	if cfg.Site.IndexTemplate != "" {
		if err := renderer.LoadTemplate(cfg.Site.IndexTemplate); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", linkfeed.ErrorMessage(err))
			return err
		}
	}
	var index linkfeed.IndexRenderer = renderer

	if logOpts.IsDebug() {
		fetcher = lfslog.NewLoggingFetcher(fetcher, logger)
		docParser = lfslog.NewLoggingDocumentParser(docParser, logger)
		feeds = lfslog.NewLoggingFeedWriter(feeds, logger)
		index = lfslog.NewLoggingIndexRenderer(index, logger)
	}

	deps.Builder = &pipeline.Builder{
		Fetcher:   fetcher,
		Parser:    docParser,
		Metadata:  trafilatura.NewExtractor(),
		Feeds:     feeds,
		Index:     index,
		Limiter:   pipeline.NewDomainLimiter(cfg.Site.RateLimit),
		SeenLinks: deps.SeenLinks,
		Runs:      deps.Runs,
		Logger:    logger,
	}

	return kongCtx.Run(deps)
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cli *CLI) (*linkfeed.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}

	if cli.OutputDir != "" {
		cfg.Site.OutputDir = cli.OutputDir
	}
	if cli.BaseURL != "" {
		cfg.Site.BaseURL = cli.BaseURL
	}
	if cli.Concurrency != 0 {
		cfg.Site.Concurrency = cli.Concurrency
	}
	if cli.DB != "" {
		cfg.Site.Database = cli.DB
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
