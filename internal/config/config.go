// Package config handles configuration loading for lsewatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LSEWATCH_BROWSER_ENGINE.
const EnvPrefix = "LSEWATCH"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Engines accepted by browser.engine.
var Engines = []string{"playwright", "rod", "http"}

// Config represents the complete application configuration.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SiteConfig locates the exchange website.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BrowserConfig selects and tunes the automation engine.
type BrowserConfig struct {
	Engine     string `mapstructure:"engine"      yaml:"engine"` // "playwright", "rod", "http"
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RemoteURL  string `mapstructure:"remote_url"  yaml:"remote_url"` // DevTools/CDP endpoint; may embed a token
	SlowMoMs   int    `mapstructure:"slow_mo_ms"  yaml:"slow_mo_ms"`
}

// Timeout returns the per-operation timeout.
func (b BrowserConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// SlowMo returns the delay inserted between browser actions.
func (b BrowserConfig) SlowMo() time.Duration {
	return time.Duration(b.SlowMoMs) * time.Millisecond
}

// ScrapeConfig holds the workflow parameters.
type ScrapeConfig struct {
	TopN                int     `mapstructure:"top_n"                 yaml:"top_n"`
	MarketCapThreshold  float64 `mapstructure:"market_cap_threshold"  yaml:"market_cap_threshold"`
	MarketCapMultiplier float64 `mapstructure:"market_cap_multiplier" yaml:"market_cap_multiplier"` // table unit, 1e6 for millions
	ChartYears          int     `mapstructure:"chart_years"           yaml:"chart_years"`
	Periodicity         string  `mapstructure:"periodicity"           yaml:"periodicity"`
	MaxPages            int     `mapstructure:"max_pages"             yaml:"max_pages"` // 0 = unbounded
	OutputDir           string  `mapstructure:"output_dir"            yaml:"output_dir"`
	Parallel            int     `mapstructure:"parallel"              yaml:"parallel"` // concurrent sessions in report
}

// NewsConfig lists the RSS feeds.
type NewsConfig struct {
	FeedURLs []string `mapstructure:"feed_urls" yaml:"feed_urls"`
	Limit    int      `mapstructure:"limit"     yaml:"limit"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	CacheTTL    int      `mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds
	Token       string   `mapstructure:"token"        yaml:"token"`     // optional bearer token
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "trace", "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.lsewatch/config.yaml (home directory)
//  3. /etc/lsewatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: LSEWATCH_<SECTION>_<KEY>, e.g., LSEWATCH_BROWSER_ENGINE
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".lsewatch"))
	v.AddConfigPath("/etc/lsewatch")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Engines, c.Browser.Engine):
		return fmt.Errorf("%w: browser.engine %q (want one of %s)", ErrInvalid, c.Browser.Engine, strings.Join(Engines, ", "))
	case c.Browser.TimeoutSec < 0:
		return fmt.Errorf("%w: browser.timeout_sec %d is negative", ErrInvalid, c.Browser.TimeoutSec)
	case c.Scrape.TopN < 0:
		return fmt.Errorf("%w: scrape.top_n %d is negative", ErrInvalid, c.Scrape.TopN)
	case c.Scrape.MarketCapMultiplier <= 0:
		return fmt.Errorf("%w: scrape.market_cap_multiplier must be positive, got %g", ErrInvalid, c.Scrape.MarketCapMultiplier)
	case c.Scrape.ChartYears < 0:
		return fmt.Errorf("%w: scrape.chart_years %d is negative", ErrInvalid, c.Scrape.ChartYears)
	case c.Scrape.MaxPages < 0:
		return fmt.Errorf("%w: scrape.max_pages %d is negative", ErrInvalid, c.Scrape.MaxPages)
	case c.API.Port < 0 || c.API.Port > 65535:
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalid, c.API.Port)
	}
	return nil
}

// setDefaults sets defaults matching the exchange site as of writing.
func setDefaults(v *viper.Viper) {
	// Site
	v.SetDefault("site.base_url", "https://www.londonstockexchange.com/")

	// Browser
	v.SetDefault("browser.engine", "playwright")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout_sec", 30)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.slow_mo_ms", 0)

	// Scrape
	v.SetDefault("scrape.top_n", 10)
	v.SetDefault("scrape.market_cap_threshold", 7_000_000.0)
	v.SetDefault("scrape.market_cap_multiplier", 1_000_000.0) // table reports £m
	v.SetDefault("scrape.chart_years", 3)
	v.SetDefault("scrape.periodicity", "Monthly")
	v.SetDefault("scrape.max_pages", 0)
	v.SetDefault("scrape.output_dir", ".")
	v.SetDefault("scrape.parallel", 0)

	// News
	v.SetDefault("news.feed_urls", []string{
		"https://feeds.bbci.co.uk/news/business/rss.xml",
		"https://www.theguardian.com/business/stock-markets/rss",
	})
	v.SetDefault("news.limit", 20)

	// API
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.cache_ttl", 300) // 5 minutes
	v.SetDefault("api.token", "")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads secret keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "_BROWSER_REMOTE_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := os.Getenv(EnvPrefix + "_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
