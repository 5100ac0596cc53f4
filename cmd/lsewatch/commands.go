package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/lsewatch/api"
	"github.com/seenimoa/lsewatch/internal/config"
	"github.com/seenimoa/lsewatch/internal/report"
	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lsewatch %s (commit %s, built %s)\n", version, commit, date)
	},
}

// --- Risers / Fallers ---

var risersCmd = &cobra.Command{
	Use:   "risers",
	Short: "Top constituents by percentage change, highest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := topFlag(cmd)
		items, err := newWorkflows(cfg).TopRisers(cmd.Context(), n)
		if err != nil {
			return err
		}
		report.ConstituentTable(cmd.OutOrStdout(), fmt.Sprintf("Top %d risers", n), items)
		_, err = report.WriteKind(cfg.Scrape.OutputDir, report.KindTopRisers, items)
		return err
	},
}

var fallersCmd = &cobra.Command{
	Use:   "fallers",
	Short: "Top constituents by percentage change, lowest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := topFlag(cmd)
		items, err := newWorkflows(cfg).TopFallers(cmd.Context(), n)
		if err != nil {
			return err
		}
		report.ConstituentTable(cmd.OutOrStdout(), fmt.Sprintf("Top %d fallers", n), items)
		_, err = report.WriteKind(cfg.Scrape.OutputDir, report.KindTopFallers, items)
		return err
	},
}

func topFlag(cmd *cobra.Command) int {
	if n, _ := cmd.Flags().GetInt("top"); n > 0 {
		return n
	}
	return cfg.Scrape.TopN
}

func init() {
	for _, c := range []*cobra.Command{risersCmd, fallersCmd} {
		c.Flags().Int("top", 0, "number of constituents (default: scrape.top_n)")
	}
}

// --- Market Cap Command ---

var marketCapCmd = &cobra.Command{
	Use:   "market-cap",
	Short: "Constituents whose market cap exceeds a threshold, across all pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := cfg.Scrape.MarketCapThreshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		multiplier := cfg.Scrape.MarketCapMultiplier
		if cmd.Flags().Changed("multiplier") {
			multiplier, _ = cmd.Flags().GetFloat64("multiplier")
		}
		if multiplier <= 0 {
			return fmt.Errorf("--multiplier must be positive, got %g", multiplier)
		}

		res, err := newWorkflows(cfg).MarketCapExceeding(cmd.Context(), threshold, multiplier)
		if err != nil {
			return err
		}
		log.Info().Int("pages", res.Pages).Str("stop", string(res.Stop)).Int("records", len(res.Records)).Msg("market cap walk finished")

		title := fmt.Sprintf("Market cap above %s", utils.FormatGBPCompact(threshold))
		report.ConstituentTable(cmd.OutOrStdout(), title, res.Records)
		_, err = report.WriteKind(cfg.Scrape.OutputDir, report.KindMarketCap, res.Records)
		return err
	},
}

func init() {
	marketCapCmd.Flags().Float64("threshold", 0, "market cap threshold in pounds (default: scrape.market_cap_threshold)")
	marketCapCmd.Flags().Float64("multiplier", 0, "unit of the table's market cap column (default: scrape.market_cap_multiplier)")
}

// --- Lowest Month Command ---

var lowestMonthCmd = &cobra.Command{
	Use:   "lowest-month",
	Short: "Lowest index level on the chart over recent years",
	RunE: func(cmd *cobra.Command, args []string) error {
		years := cfg.Scrape.ChartYears
		if cmd.Flags().Changed("years") {
			years, _ = cmd.Flags().GetInt("years")
		}
		periodicity, _ := cmd.Flags().GetString("periodicity")
		if periodicity == "" {
			periodicity = cfg.Scrape.Periodicity
		}

		res, err := newWorkflows(cfg).LowestMonthlyAverage(cmd.Context(), years, periodicity)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("FTSE 100 %s since %d", periodicity, res.FromYear)
		report.ObservationTable(cmd.OutOrStdout(), title, res.Observations, &res.Lowest)
		_, err = report.WriteKind(cfg.Scrape.OutputDir, report.KindLowestMonthly, res.Lowest)
		return err
	},
}

func init() {
	lowestMonthCmd.Flags().Int("years", 0, "how many years back the chart starts (default: scrape.chart_years)")
	lowestMonthCmd.Flags().String("periodicity", "", "chart periodicity option (default: scrape.periodicity)")
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run every workflow and write JSON files plus an HTML (or PDF) report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		snap, err := newWorkflows(cfg).Snapshot(ctx, snapshotOptions(cfg))
		if err != nil {
			return err
		}

		out := cfg.Scrape.OutputDir
		artifacts := []artifact{
			{report.KindTopRisers, snap.TopRisers},
			{report.KindTopFallers, snap.TopFallers},
			{report.KindMarketCap, orEmpty(snap.LargeCaps)},
			{report.KindSnapshot, snap},
		}
		if snap.LowestMonthly != nil {
			artifacts = append(artifacts, artifact{report.KindLowestMonthly, snap.LowestMonthly})
		}
		for _, a := range artifacts {
			if _, err := report.WriteKind(out, a.kind, a.v); err != nil {
				return err
			}
		}

		html, err := report.GenerateHTML(snap, report.DefaultReportConfig())
		if err != nil {
			return err
		}
		htmlPath := filepath.Join(out, "report.html")
		if err := report.WriteHTML(html, htmlPath); err != nil {
			return err
		}

		if pdfPath, _ := cmd.Flags().GetString("pdf"); pdfPath != "" {
			landscape, _ := cmd.Flags().GetBool("landscape")
			written, err := report.GeneratePDF(ctx, html, report.PDFConfig{
				OutputPath:   pdfPath,
				Landscape:    landscape,
				RemoteURL:    cfg.Browser.RemoteURL,
				FallbackHTML: true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", written)
		}

		w := cmd.OutOrStdout()
		report.ConstituentTable(w, "Top risers", snap.TopRisers)
		report.ConstituentTable(w, "Top fallers", snap.TopFallers)
		report.ConstituentTable(w, "Large caps", snap.LargeCaps)
		if snap.LowestMonthly != nil {
			report.ObservationTable(w, "Index", snap.Observations, snap.LowestMonthly)
		}
		fmt.Fprintf(w, "HTML report: %s\n", htmlPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("pdf", "", "also print the report to this PDF file")
	reportCmd.Flags().Bool("landscape", false, "landscape PDF pages")
}

type artifact struct {
	kind report.Kind
	v    any
}

func orEmpty(items []models.Constituent) []models.Constituent {
	if items == nil {
		return []models.Constituent{}
	}
	return items
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Recent UK market headlines from RSS feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.News.Limit
		}
		raw, _ := cmd.Flags().GetString("constituents")

		src := newNews(cfg)
		var (
			articles []models.NewsArticle
			err      error
		)
		if names := splitNames(raw); len(names) > 0 {
			articles, err = src.ForConstituents(cmd.Context(), names, limit)
		} else {
			articles, err = src.MarketNews(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}
		report.NewsTable(cmd.OutOrStdout(), articles)
		_, err = report.WriteKind(cfg.Scrape.OutputDir, report.KindNews, articles)
		return err
	},
}

func init() {
	newsCmd.Flags().Int("limit", 0, "maximum headlines (default: news.limit)")
	newsCmd.Flags().String("constituents", "", "comma-separated constituent names to filter on")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if p, _ := cmd.Flags().GetInt("port"); p > 0 {
			cfg.API.Port = p
		}
		srv := api.NewServer(cfg, newWorkflows(cfg), newNews(cfg))
		srv.SetVersion(version)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show market status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "═══════════════════════════════════════")
		fmt.Fprintln(w, "  lsewatch status")
		fmt.Fprintln(w, "═══════════════════════════════════════")
		fmt.Fprintf(w, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(w, "  Market Status: %s\n", utils.MarketStatus())
		fmt.Fprintf(w, "  Time (London): %s\n", utils.FormatDateTimeLondon(utils.NowLondon()))
		fmt.Fprintln(w)

		fmt.Fprintln(w, "  Configuration:")
		fmt.Fprintf(w, "    Site:          %s\n", cfg.Site.BaseURL)
		fmt.Fprintf(w, "    Engine:        %s (headless: %t, timeout: %s)\n", cfg.Browser.Engine, cfg.Browser.Headless, cfg.Browser.Timeout())
		fmt.Fprintf(w, "    Output:        %s\n", absOrSelf(cfg.Scrape.OutputDir))
		fmt.Fprintf(w, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(w)

		fmt.Fprintln(w, "  Secrets:")
		for _, s := range config.CheckSecrets(cfg) {
			status := "not set"
			if s.IsSet {
				status = fmt.Sprintf("set (%s: %s)", s.Source, s.Masked)
			}
			fmt.Fprintf(w, "    %-25s %s\n", s.Name+":", status)
		}

		fmt.Fprintln(w, "═══════════════════════════════════════")
		return nil
	},
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
