// Package toml loads cardgap configuration files.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/gemini"
	"github.com/fwojciec/cardgap/harvest"
	"github.com/fwojciec/cardgap/hub"
	toml "github.com/pelletier/go-toml/v2"
)

// AppName names the configuration and cache directories.
const AppName = "cardgap"

// Config holds settings read from a TOML file. Command-line flags and
// environment variables take precedence over these values.
type Config struct {
	DataDir  string   `toml:"data_dir"`
	Database string   `toml:"database"`
	Tags     []string `toml:"tags"`
	TopK     int      `toml:"top_k"`
	Addr     string   `toml:"addr"`

	Hub     Hub     `toml:"hub"`
	Harvest Harvest `toml:"harvest"`
	Gemini  Gemini  `toml:"gemini"`
}

// Hub configures the Hugging Face Hub client.
type Hub struct {
	URL               string   `toml:"url"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           Duration `toml:"timeout"`
}

// Harvest configures the fetch-and-persist loop.
type Harvest struct {
	BatchSize    int      `toml:"batch_size"`
	Concurrency  int      `toml:"concurrency"`
	CacheTTL     Duration `toml:"cache_ttl"`
	HTMLHeadings bool     `toml:"html_headings"`
}

// Gemini configures section drafting.
type Gemini struct {
	Model      string `toml:"model"`
	CardTokens int    `toml:"card_tokens"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:  "data",
		Database: DefaultDatabasePath(),
		Tags:     append([]string(nil), cardgap.DefaultTags...),
		TopK:     cardgap.DefaultTopK,
		Addr:     ":8080",
		Hub: Hub{
			URL:               hub.DefaultBaseURL,
			RequestsPerSecond: hub.DefaultRequestsPerSecond,
			Timeout:           Duration{hub.DefaultTimeout},
		},
		Harvest: Harvest{
			BatchSize:   cardgap.DefaultBatchSize,
			Concurrency: harvest.DefaultConcurrency,
			CacheTTL:    Duration{7 * 24 * time.Hour},
		},
		Gemini: Gemini{
			Model:      gemini.DefaultModel,
			CardTokens: gemini.DefaultCardTokens,
		},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// DefaultDatabasePath returns the default SQLite database location.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.CacheHome, AppName, AppName+".db")
}

// Load reads the configuration at path over the defaults. An empty path
// means DefaultPath. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, cardgap.Errorf(cardgap.EINVALID, "parse config %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	for _, tag := range c.Tags {
		if err := cardgap.ValidateTag(tag); err != nil {
			return err
		}
	}
	switch {
	case c.TopK < 0:
		return cardgap.Errorf(cardgap.EINVALID, "top_k must not be negative")
	case c.Harvest.BatchSize < 0:
		return cardgap.Errorf(cardgap.EINVALID, "harvest.batch_size must not be negative")
	case c.Harvest.Concurrency < 0:
		return cardgap.Errorf(cardgap.EINVALID, "harvest.concurrency must not be negative")
	case c.Hub.RequestsPerSecond < 0:
		return cardgap.Errorf(cardgap.EINVALID, "hub.requests_per_second must not be negative")
	}
	return nil
}

// Write stores the configuration at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
