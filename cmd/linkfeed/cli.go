package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/fs"
	"github.com/fwojciec/linkfeed/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Config    *linkfeed.Config
	Logger    *slog.Logger
	Writer    *fs.Writer
	Builder   *pipeline.Builder
	Inspector linkfeed.FeedInspector
	SeenLinks linkfeed.SeenLinkService
	Runs      linkfeed.RunService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string `short:"c" default:"feeds.yaml" env:"LINKFEED_CONFIG" help:"Configuration file (.yaml, .yml, .toml or .json)"`
	OutputDir   string `env:"LINKFEED_OUTPUT_DIR" help:"Directory feeds are written to (overrides site.output_dir)"`
	BaseURL     string `env:"LINKFEED_BASE_URL" help:"Public URL of the published site (overrides site.base_url)"`
	Concurrency int    `env:"LINKFEED_CONCURRENCY" help:"Sources processed in parallel (overrides site.concurrency)"`
	DB          string `name:"db" env:"LINKFEED_DB" help:"SQLite database for run history (overrides site.database)"`
	LogLevel    string `default:"info" enum:"debug,info,warn,error" env:"LINKFEED_LOG_LEVEL" help:"Log level"`
	LogFormat   string `default:"text" enum:"text,json" env:"LINKFEED_LOG_FORMAT" help:"Log format"`
	LogFile     string `env:"LINKFEED_LOG_FILE" help:"Write logs to a rotated file instead of stderr"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Generate every feed and the index page"`
	Preview PreviewCmd `cmd:"" help:"Show the links a source would publish without writing anything"`
	Check   CheckCmd   `cmd:"" help:"Verify that every configured feed file exists and parses"`
	History HistoryCmd `cmd:"" help:"List recorded runs or seen links from the history database"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct{}

// PreviewCmd is the "preview" subcommand.
type PreviewCmd struct {
	ID    string `arg:"" help:"Source ID"`
	Stats bool   `short:"s" help:"Print rejection counts per rule to stderr"`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct{}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	ID     string `arg:"" optional:"" help:"Only show runs of this source"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of runs or links to show"`
	Failed bool   `help:"Only show failed runs"`
	Links  bool   `short:"l" help:"List recorded links instead of runs"`
}
