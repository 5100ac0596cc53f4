// Configuration endpoints.

package api

import (
	"net/http"

	"github.com/seenimoa/lsewatch/internal/config"
)

// ConfigResponse is the JSON body returned by GET /api/v1/config. Secrets
// are left out; GET /api/v1/config/secrets reports whether they are set.
type ConfigResponse struct {
	BaseURL string `json:"base_url"`

	Engine     string `json:"engine"`
	Headless   bool   `json:"headless"`
	TimeoutSec int    `json:"timeout_sec"`
	Remote     bool   `json:"remote"` // connected to an existing browser

	TopN                int     `json:"top_n"`
	MarketCapThreshold  float64 `json:"market_cap_threshold"`
	MarketCapMultiplier float64 `json:"market_cap_multiplier"`
	ChartYears          int     `json:"chart_years"`
	Periodicity         string  `json:"periodicity"`
	MaxPages            int     `json:"max_pages"`

	NewsFeeds int `json:"news_feeds"`
	CacheTTL  int `json:"cache_ttl"`
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    configView(s.cfg),
	})
}

// handleGetSecrets returns where each secret setting comes from.
func (s *Server) handleGetSecrets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckSecrets(s.cfg),
	})
}

func configView(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		BaseURL:             cfg.Site.BaseURL,
		Engine:              cfg.Browser.Engine,
		Headless:            cfg.Browser.Headless,
		TimeoutSec:          cfg.Browser.TimeoutSec,
		Remote:              cfg.Browser.RemoteURL != "",
		TopN:                cfg.Scrape.TopN,
		MarketCapThreshold:  cfg.Scrape.MarketCapThreshold,
		MarketCapMultiplier: cfg.Scrape.MarketCapMultiplier,
		ChartYears:          cfg.Scrape.ChartYears,
		Periodicity:         cfg.Scrape.Periodicity,
		MaxPages:            cfg.Scrape.MaxPages,
		NewsFeeds:           len(cfg.News.FeedURLs),
		CacheTTL:            cfg.API.CacheTTL,
	}
}
