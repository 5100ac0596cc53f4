// lsewatch scrapes FTSE 100 data from the London Stock Exchange website.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/internal/config"
	"github.com/seenimoa/lsewatch/internal/datasource"
	"github.com/seenimoa/lsewatch/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lsewatch",
	Short: "lsewatch: FTSE 100 data from the London Stock Exchange website",
	Long: `lsewatch drives a browser through the London Stock Exchange website and
extracts FTSE 100 data: the top risers and fallers, constituents above a
market-cap threshold and the lowest monthly index level of recent years.
Results are written as JSON files and can be served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlags(cmd, cfg)

		if err := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return err
		}
		return cfg.Validate()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file path (default: ./config/config.yaml)")
	pf.String("log-level", "", "log level override (trace, debug, info, warn, error)")
	pf.String("log-format", "", "log format override (text, json)")
	pf.String("engine", "", "browser engine override ("+strings.Join(config.Engines, ", ")+")")
	pf.Bool("headless", true, "run the browser without a window")
	pf.String("out", "", "output directory for JSON files")
	pf.Int("max-pages", 0, "stop paginating after this many pages (0 = no limit)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(risersCmd)
	rootCmd.AddCommand(fallersCmd)
	rootCmd.AddCommand(marketCapCmd)
	rootCmd.AddCommand(lowestMonthCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// applyFlags copies explicitly set global flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if v, _ := flags.GetString("engine"); v != "" {
		cfg.Browser.Engine = v
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if v, _ := flags.GetString("out"); v != "" {
		cfg.Scrape.OutputDir = v
	}
	if flags.Changed("max-pages") {
		cfg.Scrape.MaxPages, _ = flags.GetInt("max-pages")
	}
}

// browserOptions maps the browser section to driver options.
func browserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Engine:    cfg.Browser.Engine,
		Headless:  cfg.Browser.Headless,
		Timeout:   cfg.Browser.Timeout(),
		RemoteURL: cfg.Browser.RemoteURL,
		SlowMo:    cfg.Browser.SlowMo(),
	}
}

func newWorkflows(cfg *config.Config) *datasource.Workflows {
	logger := logging.Component("datasource")
	return &datasource.Workflows{
		Open:     browser.NewFactory(browserOptions(cfg)),
		BaseURL:  cfg.Site.BaseURL,
		MaxPages: cfg.Scrape.MaxPages,
		Logger:   &logger,
	}
}

func newNews(cfg *config.Config) *datasource.News {
	logger := logging.Component("news")
	if len(cfg.News.FeedURLs) == 0 {
		return datasource.NewNews().WithLogger(&logger)
	}
	return datasource.NewNewsWithSources(datasource.SourcesFromURLs(cfg.News.FeedURLs)).WithLogger(&logger)
}

func snapshotOptions(cfg *config.Config) datasource.SnapshotOptions {
	return datasource.SnapshotOptions{
		TopN:                cfg.Scrape.TopN,
		MarketCapThreshold:  cfg.Scrape.MarketCapThreshold,
		MarketCapMultiplier: cfg.Scrape.MarketCapMultiplier,
		ChartYears:          cfg.Scrape.ChartYears,
		Periodicity:         cfg.Scrape.Periodicity,
		Parallel:            cfg.Scrape.Parallel,
	}
}

// splitNames splits a comma-separated list, dropping blanks.
func splitNames(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
