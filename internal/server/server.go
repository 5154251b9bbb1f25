// Package server provides the HTTP server and routing for stockrank.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/modules/metrics"
	"github.com/aristath/stockrank/internal/modules/prices"
	rankingshandlers "github.com/aristath/stockrank/internal/modules/rankings/handlers"
	"github.com/aristath/stockrank/internal/modules/scoring"
	"github.com/aristath/stockrank/internal/pipeline"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	MarketDB    *database.DB
	Engine      config.Engine
	Port        int
	DevMode     bool
	PriceRepo   *prices.Repository
	MetricsRepo *metrics.Repository
	ScoreRepo   *scoring.Repository
	Runner      *pipeline.Runner
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	marketDB    *database.DB
	priceRepo   *prices.Repository
	metricsRepo *metrics.Repository
	scoreRepo   *scoring.Repository
	rankings    *rankingshandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		marketDB:    cfg.MarketDB,
		priceRepo:   cfg.PriceRepo,
		metricsRepo: cfg.MetricsRepo,
		scoreRepo:   cfg.ScoreRepo,
		rankings: rankingshandlers.NewHandler(
			cfg.Engine,
			cfg.MetricsRepo,
			cfg.ScoreRepo,
			cfg.Runner,
			cfg.Log,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.rankings.RegisterRoutes(r)
	})
}

//go:embed static/index.html
var dashboardHTML []byte

// handleDashboard serves the single-page rankings dashboard at /.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(dashboardHTML)
}

// loggingMiddleware logs each request with method, path, status, and timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}

// healthResponse reports database status and data freshness.
type healthResponse struct {
	Status            string `json:"status"`
	TickerCount       int    `json:"ticker_count"`
	LatestPriceDate   string `json:"latest_price_date,omitempty"`
	LatestMetricsDate string `json:"latest_metrics_date,omitempty"`
	LatestScoresDate  string `json:"latest_scores_date,omitempty"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.marketDB.HealthCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}

	resp := healthResponse{Status: "ok"}

	if count, err := s.priceRepo.TickerCount(); err == nil {
		resp.TickerCount = count
	}
	if date, err := s.priceRepo.LatestDate(); err == nil {
		resp.LatestPriceDate = date
	}
	if date, err := s.metricsRepo.LatestDate(); err == nil {
		resp.LatestMetricsDate = date
	}
	if date, err := s.scoreRepo.LatestDate(); err == nil {
		resp.LatestScoresDate = date
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
