// Package api provides the HTTP REST API server for lsewatch.
//
// It exposes the scraping workflows (top risers and fallers, market-cap
// filter, lowest monthly index level, full snapshot) and market news as JSON
// endpoints. Scrape results are cached for api.cache_ttl seconds since every
// miss drives a full browser session.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/internal/config"
	"github.com/seenimoa/lsewatch/internal/datasource"
	"github.com/seenimoa/lsewatch/internal/infra"
	"github.com/seenimoa/lsewatch/internal/logging"
	"github.com/seenimoa/lsewatch/internal/pagination"
	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
	"github.com/seenimoa/lsewatch/web"
)

// Scraper runs the index workflows. *datasource.Workflows implements it.
type Scraper interface {
	TopRisers(ctx context.Context, n int) ([]models.Constituent, error)
	TopFallers(ctx context.Context, n int) ([]models.Constituent, error)
	MarketCapExceeding(ctx context.Context, threshold, multiplier float64) (pagination.Result, error)
	LowestMonthlyAverage(ctx context.Context, years int, periodicity string) (datasource.LowestMonthly, error)
	Snapshot(ctx context.Context, opts datasource.SnapshotOptions) (*models.IndexSnapshot, error)
}

// NewsFeed serves market headlines. *datasource.News implements it.
type NewsFeed interface {
	MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error)
	ForConstituents(ctx context.Context, names []string, limit int) ([]models.NewsArticle, error)
}

var (
	_ Scraper  = (*datasource.Workflows)(nil)
	_ NewsFeed = (*datasource.News)(nil)
)

// maxTopN bounds the n query parameter.
const maxTopN = 100

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	scraper Scraper
	news    NewsFeed
	cache   *infra.Cache[any]
	logger  zerolog.Logger
	version string
	serveUI bool // when true, serve the embedded dashboard at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, scraper Scraper, news NewsFeed) *Server {
	ttl := time.Duration(cfg.API.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	srv := &Server{
		cfg:     cfg,
		scraper: scraper,
		news:    news,
		cache:   infra.NewCache[any](ttl),
		logger:  logging.Component("api"),
		version: "dev",
		serveUI: true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// SetServeUI controls whether the embedded dashboard is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, took time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("took", took).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			// Constituents
			r.Get("/constituents/risers", s.handleRisers)
			r.Get("/constituents/fallers", s.handleFallers)
			r.Get("/constituents/market-cap", s.handleMarketCap)

			// Index chart
			r.Get("/index/lowest-month", s.handleLowestMonth)
			r.Get("/snapshot", s.handleSnapshot)

			// News
			r.Get("/news", s.handleNews)

			// Config and cache
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/secrets", s.handleGetSecrets)
			r.Delete("/cache", s.handleFlushCache)
		})
	})

	if s.serveUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded dashboard. Unknown paths get index.html.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}
		if f, err := distFS.Open(rPath); err == nil {
			f.Close()
			w.Header().Set("Cache-Control", "no-cache")
			fileServer.ServeHTTP(w, r)
			return
		}

		data, err := fs.ReadFile(distFS, "index.html")
		if err != nil {
			http.Error(w, "dashboard not available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
	})
}

// requireToken enforces the bearer token when api.token is set.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.cfg.API.Token
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================================
// Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

// MarketCapResponse is the body of GET /api/v1/constituents/market-cap.
type MarketCapResponse struct {
	Threshold  float64 `json:"threshold"`
	Multiplier float64 `json:"multiplier"`
	pagination.Result
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       s.version,
			"engine":        s.cfg.Browser.Engine,
			"market_status": utils.MarketStatus(),
			"time_london":   utils.FormatDateTimeLondon(utils.NowLondon()),
		},
	})
}

func (s *Server) handleRisers(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", s.cfg.Scrape.TopN, 1, maxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveCached(w, r, fmt.Sprintf("risers:%d", n), func(ctx context.Context) (any, error) {
		return s.scraper.TopRisers(ctx, n)
	})
}

func (s *Server) handleFallers(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", s.cfg.Scrape.TopN, 1, maxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveCached(w, r, fmt.Sprintf("fallers:%d", n), func(ctx context.Context) (any, error) {
		return s.scraper.TopFallers(ctx, n)
	})
}

func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	threshold, err := floatParam(r, "threshold", s.cfg.Scrape.MarketCapThreshold)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	multiplier, err := floatParam(r, "multiplier", s.cfg.Scrape.MarketCapMultiplier)
	if err != nil || multiplier <= 0 {
		writeError(w, http.StatusBadRequest, "multiplier must be a positive number")
		return
	}
	key := fmt.Sprintf("market-cap:%g:%g", threshold, multiplier)
	s.serveCached(w, r, key, func(ctx context.Context) (any, error) {
		res, err := s.scraper.MarketCapExceeding(ctx, threshold, multiplier)
		if err != nil {
			return nil, err
		}
		return MarketCapResponse{Threshold: threshold, Multiplier: multiplier, Result: res}, nil
	})
}

func (s *Server) handleLowestMonth(w http.ResponseWriter, r *http.Request) {
	years, err := intParam(r, "years", s.cfg.Scrape.ChartYears, 1, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	periodicity := r.URL.Query().Get("periodicity")
	if periodicity == "" {
		periodicity = s.cfg.Scrape.Periodicity
	}
	key := fmt.Sprintf("lowest-month:%d:%s", years, periodicity)
	s.serveCached(w, r, key, func(ctx context.Context) (any, error) {
		return s.scraper.LowestMonthlyAverage(ctx, years, periodicity)
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sc := s.cfg.Scrape
	s.serveCached(w, r, "snapshot", func(ctx context.Context) (any, error) {
		return s.scraper.Snapshot(ctx, datasource.SnapshotOptions{
			TopN:                sc.TopN,
			MarketCapThreshold:  sc.MarketCapThreshold,
			MarketCapMultiplier: sc.MarketCapMultiplier,
			ChartYears:          sc.ChartYears,
			Periodicity:         sc.Periodicity,
			Parallel:            sc.Parallel,
		})
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, "news is not configured")
		return
	}
	limit, err := intParam(r, "limit", s.cfg.News.Limit, 1, 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var names []string
	for _, n := range strings.Split(r.URL.Query().Get("constituents"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	var articles []models.NewsArticle
	if len(names) > 0 {
		articles, err = s.news.ForConstituents(r.Context(), names, limit)
	} else {
		articles, err = s.news.MarketNews(r.Context(), limit)
	}
	if err != nil {
		s.writeScrapeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	n := s.cache.Len()
	s.cache.Flush()
	hlog.FromRequest(r).Info().Int("entries", n).Msg("cache flushed")
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]int{"flushed": n}})
}

// serveCached answers from the result cache or runs load and caches it.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, load func(context.Context) (any, error)) {
	if v, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v, Cached: true})
		return
	}
	v, err := s.cache.GetOrLoad(r.Context(), key, load)
	if err != nil {
		s.writeScrapeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}

// writeScrapeError maps workflow failures to HTTP statuses.
func (s *Server) writeScrapeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, datasource.ErrNoObservations):
		status = http.StatusNotFound
	case errors.Is(err, browser.ErrNotSupported):
		status = http.StatusNotImplemented
	}
	hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("scrape failed")
	writeError(w, status, err.Error())
}

// ============================================================
// Helpers
// ============================================================

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(utils.StripGrouping(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
