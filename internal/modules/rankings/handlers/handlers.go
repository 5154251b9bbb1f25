// Package handlers provides HTTP handlers for ranking queries.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/domain"
	"github.com/aristath/stockrank/internal/modules/metrics"
	"github.com/aristath/stockrank/internal/modules/scoring"
	"github.com/aristath/stockrank/internal/pipeline"
)

// maxTopN caps the rankings page size.
const maxTopN = 500

// Handler handles ranking HTTP requests
type Handler struct {
	cfg         config.Engine
	metricsRepo *metrics.Repository
	scoreRepo   *scoring.Repository
	runner      *pipeline.Runner
	log         zerolog.Logger
}

// NewHandler creates a new rankings handler
func NewHandler(
	cfg config.Engine,
	metricsRepo *metrics.Repository,
	scoreRepo *scoring.Repository,
	runner *pipeline.Runner,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:         cfg,
		metricsRepo: metricsRepo,
		scoreRepo:   scoreRepo,
		runner:      runner,
		log:         log.With().Str("handler", "rankings").Logger(),
	}
}

// RankingsResponse is the payload for GET /api/rankings.
type RankingsResponse struct {
	RiskProfile string               `json:"risk_profile"`
	AsOfDate    string               `json:"as_of_date,omitempty"`
	Count       int                  `json:"count"`
	Stocks      []domain.RankedStock `json:"stocks"`
}

// StockDetailResponse is the payload for GET /api/stocks/{ticker}.
type StockDetailResponse struct {
	Ticker  string                `json:"ticker"`
	Metrics *domain.MetricsRecord `json:"metrics"`
	Scores  []domain.ScoreRecord  `json:"scores"`
}

// ProfileInfo describes one configured risk profile.
type ProfileInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Weights     config.RiskProfile `json:"weights"`
}

// ProfilesResponse is the payload for GET /api/profiles.
type ProfilesResponse struct {
	Profiles []ProfileInfo `json:"profiles"`
}

var profileDescriptions = map[string]string{
	"low":    "Conservative - heavy risk penalties, favors stability.",
	"medium": "Balanced - equal weight on return and risk.",
	"high":   "Aggressive - favors momentum, tolerates more risk.",
}

// HandleRankings handles GET /api/rankings?risk_profile=&top_n=&as_of_date=
func (h *Handler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	riskProfile := r.URL.Query().Get("risk_profile")
	if riskProfile == "" {
		riskProfile = "medium"
	}
	if _, ok := h.cfg.Profiles[riskProfile]; !ok {
		h.writeError(w, http.StatusBadRequest,
			"Unknown risk_profile '"+riskProfile+"'. Choose from: "+strings.Join(h.cfg.ProfileNames(), ", "))
		return
	}

	topN := h.cfg.DefaultTopN
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopN {
			h.writeError(w, http.StatusBadRequest, "top_n must be an integer between 1 and 500")
			return
		}
		topN = n
	}

	asOfDate := r.URL.Query().Get("as_of_date")

	stocks, err := h.scoreRepo.GetTop(riskProfile, topN, asOfDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query rankings")
		h.writeError(w, http.StatusInternalServerError, "Failed to query rankings")
		return
	}

	response := RankingsResponse{
		RiskProfile: riskProfile,
		Count:       len(stocks),
		Stocks:      stocks,
	}
	if response.Stocks == nil {
		response.Stocks = []domain.RankedStock{}
	}
	if len(stocks) > 0 {
		if asOfDate == "" {
			asOfDate, err = h.scoreRepo.LatestDate()
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to resolve latest score date")
			}
		}
		response.AsOfDate = asOfDate
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleStockDetail handles GET /api/stocks/{ticker} - metrics plus scores
// across all profiles for cross-profile comparison.
func (h *Handler) HandleStockDetail(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	record, err := h.metricsRepo.GetByTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query stock detail")
		h.writeError(w, http.StatusInternalServerError, "Failed to query stock detail")
		return
	}
	if record == nil {
		h.writeError(w, http.StatusNotFound, "Ticker '"+ticker+"' not found")
		return
	}

	scores, err := h.scoreRepo.GetByTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query stock scores")
		h.writeError(w, http.StatusInternalServerError, "Failed to query stock scores")
		return
	}
	if scores == nil {
		scores = []domain.ScoreRecord{}
	}

	h.writeJSON(w, http.StatusOK, StockDetailResponse{
		Ticker:  ticker,
		Metrics: record,
		Scores:  scores,
	})
}

// HandleProfiles handles GET /api/profiles
func (h *Handler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	response := ProfilesResponse{Profiles: []ProfileInfo{}}
	for _, name := range h.cfg.ProfileNames() {
		response.Profiles = append(response.Profiles, ProfileInfo{
			Name:        name,
			Description: profileDescriptions[name],
			Weights:     h.cfg.Profiles[name],
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleRefresh handles POST /api/refresh - recomputes metrics and scores
// from the stored prices without waiting for the cron schedule.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.URL.Query().Get("as_of_date"))
	if err != nil {
		h.log.Error().Err(err).Msg("Manual pipeline run failed")
		h.writeError(w, http.StatusInternalServerError, "Pipeline run failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
