package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/fs"
	"github.com/fwojciec/cardgap/gemini"
	"github.com/fwojciec/cardgap/goquery"
	"github.com/fwojciec/cardgap/harvest"
	"github.com/fwojciec/cardgap/hub"
	cardgapslog "github.com/fwojciec/cardgap/slog"
	"github.com/fwojciec/cardgap/sqlite"
	"github.com/fwojciec/cardgap/toml"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Getenv reads environment variables not covered by flags.
	// Defaults to os.Getenv.
	Getenv func(string) string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
	}
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
		kong.Name("cardgap"),
		kong.Description("Find the documentation sections a Hugging Face model card is missing."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'cardgap --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	// Command returns e.g. "harvest <tags>"; keep the command name only.
	cmd = strings.Fields(kongCtx.Command())[0]

	cfg, err := toml.Load(cli.Config)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set CARDGAP_CONFIG to use a different configuration file")
		return err
	}
	applyFlags(cfg, cli)
	deps.Config = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cli.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	// Open database
	if cfg.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	m.DB = sqlite.NewDB(cfg.Database)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CARDGAP_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.Database, err)
	}
	defer m.Close()

	cache := sqlite.NewCardService(m.DB)
	if err := cache.Warm(ctx, 0); err != nil {
		return fmt.Errorf("failed to load card cache: %w", err)
	}

	client := hub.NewClient(
		hub.WithBaseURL(cfg.Hub.URL),
		hub.WithToken(cli.HubToken),
		hub.WithTimeout(cfg.Hub.Timeout.Duration),
		hub.WithRequestsPerSecond(cfg.Hub.RequestsPerSecond),
	)

	extractor := cardgap.MarkdownExtractor
	if cfg.Harvest.HTMLHeadings || cli.Harvest.HTMLHeadings {
		extractor = cardgap.MultiExtractor(cardgap.MarkdownExtractor, goquery.NewHeadingExtractor())
	}

	deps.Snapshots = fs.NewSnapshotStore(cfg.DataDir)
	deps.Cards = cardgapslog.NewLoggingCardService(client, logger)
	deps.Cache = cache
	deps.Runs = sqlite.NewRunService(m.DB)
	deps.Harvester = &harvest.Harvester{
		Catalog:     cardgapslog.NewLoggingCatalog(client, logger),
		Cards:       deps.Cards,
		Snapshots:   deps.Snapshots,
		Cache:       cache,
		CacheTTL:    cfg.Harvest.CacheTTL.Duration,
		Runs:        deps.Runs,
		Extractor:   extractor,
		BatchSize:   cfg.Harvest.BatchSize,
		Concurrency: cfg.Harvest.Concurrency,
		Logger:      logger,
	}
	deps.Reports = &harvest.Reporter{
		Snapshots: deps.Snapshots,
		Harvester: deps.Harvester,
		Progress:  logProgress(logger),
	}

	if cmd == "draft" {
		apiKey := m.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		opts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model)}
		tokenCounter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}
		opts = append(opts, gemini.WithTokenBudget(tokenCounter, cfg.Gemini.CardTokens))

		deps.Drafter = gemini.NewDrafter(genaiClient, opts...)
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is the model whose local tokenizer bounds card excerpts.
const tokenizerModel = "gemini-2.5-flash"

// applyFlags overrides configuration values with flags and environment
// variables that were set.
func applyFlags(cfg *toml.Config, cli *CLI) {
	if cli.DataDir != "" {
		cfg.DataDir = cli.DataDir
	}
	if cli.DB != "" {
		cfg.Database = cli.DB
	}
	if cli.HubURL != "" {
		cfg.Hub.URL = cli.HubURL
	}
}

// logProgress logs on-demand harvests triggered by reports.
func logProgress(logger *slog.Logger) harvest.ProgressFunc {
	return func(e harvest.ProgressEvent) {
		switch e.Type {
		case harvest.ProgressFlushed:
			logger.Info("wrote batch", "tag", e.Tag, "start", e.Start, "end", e.End)
		case harvest.ProgressFinished:
			logger.Info("harvested tag", "tag", e.Tag, "models", e.Completed)
		}
	}
}
