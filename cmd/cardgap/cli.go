package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/harvest"
	"github.com/fwojciec/cardgap/toml"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Config    *toml.Config
	Snapshots cardgap.SnapshotStore
	Cards     cardgap.CardService
	Cache     cardgap.CardCache
	Runs      cardgap.RunService
	Harvester *harvest.Harvester
	Reports   cardgap.ReportService
	Drafter   cardgap.Drafter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DataDir  string `name:"data-dir" env:"CARDGAP_DATA_DIR" help:"Directory holding JSON snapshots"`
	DB       string `name:"db" env:"CARDGAP_DB" help:"SQLite database for the card cache and run log"`
	Config   string `name:"config" env:"CARDGAP_CONFIG" help:"Path to a TOML configuration file"`
	HubURL   string `name:"hub-url" env:"HF_ENDPOINT" help:"Hugging Face Hub base URL"`
	HubToken string `name:"hub-token" env:"HF_TOKEN" help:"Hugging Face access token"`
	LogLevel string `name:"log-level" env:"CARDGAP_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`

	Harvest HarvestCmd `cmd:"" help:"Fetch model cards for tags and write header snapshots"`
	Report  ReportCmd  `cmd:"" help:"Show which common sections a model card is missing"`
	Models  ModelsCmd  `cmd:"" help:"List harvested models for tags"`
	Runs    RunsCmd    `cmd:"" help:"List recent harvest runs"`
	Serve   ServeCmd   `cmd:"" help:"Serve the coverage dashboard"`
	Draft   DraftCmd   `cmd:"" help:"Draft the missing sections of a model card with Gemini"`
}

// HarvestCmd is the "harvest" subcommand.
type HarvestCmd struct {
	Tags         []string `arg:"" help:"Topic tags to harvest"`
	Limit        int      `short:"n" help:"Maximum number of models per tag (0 for all)"`
	Force        bool     `short:"f" help:"Harvest even if the tag is already cached"`
	Concurrency  int      `short:"c" help:"Concurrent card fetches"`
	HTMLHeadings bool     `name:"html-headings" help:"Also report HTML <h2>-<h6> headings in cards"`
}

// ReportCmd is the "report" subcommand.
type ReportCmd struct {
	Tags    []string `arg:"" optional:"" help:"Topic tags forming the corpus (defaults to configured tags)"`
	Model   string   `short:"m" help:"Model to report on (defaults to the first model)"`
	TopK    int      `name:"top-k" short:"k" help:"Number of common headers compared against"`
	Format  string   `default:"table" enum:"table,markdown,json" help:"Output format (table, markdown, json)"`
	NoFetch bool     `name:"no-fetch" help:"Do not harvest uncached tags"`
}

// ModelsCmd is the "models" subcommand.
type ModelsCmd struct {
	Tags []string `arg:"" optional:"" help:"Topic tags (defaults to configured tags)"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Tag   string `help:"Only show runs for this tag"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `help:"Listen address"`
}

// DraftCmd is the "draft" subcommand.
type DraftCmd struct {
	Tags    []string `arg:"" optional:"" help:"Topic tags forming the corpus (defaults to configured tags)"`
	Model   string   `short:"m" required:"" help:"Model whose card to complete"`
	TopK    int      `name:"top-k" short:"k" help:"Number of common headers compared against"`
	NoFetch bool     `name:"no-fetch" help:"Do not harvest uncached tags"`
}

// tagsOrDefault returns tags, or the configured tags if none were given.
func tagsOrDefault(tags []string, cfg *toml.Config) []string {
	if len(tags) > 0 || cfg == nil {
		return tags
	}
	return cfg.Tags
}

// topKOrDefault returns k, or the configured top-K if k is not positive.
func topKOrDefault(k int, cfg *toml.Config) int {
	if k > 0 || cfg == nil {
		return k
	}
	return cfg.TopK
}
