// Package pipeline orchestrates the ranking pipeline: price read-set in,
// metrics and score write-sets out. Each step is an independently runnable
// unit connected through the store, so re-running any step with identical
// inputs produces identical rows.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/domain"
	"github.com/aristath/stockrank/internal/modules/metrics"
	"github.com/aristath/stockrank/internal/modules/prices"
	"github.com/aristath/stockrank/internal/modules/scoring"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID      string             `json:"run_id"`
	AsOfDate   string             `json:"as_of_date"`
	Scored     int                `json:"scored"`   // tickers with metrics + scores
	Excluded   int                `json:"excluded"` // tickers dropped with a reason
	Exclusions []domain.Exclusion `json:"exclusions,omitempty"`
	Elapsed    time.Duration      `json:"-"`
}

// Runner wires the metrics and scoring engines to their repositories.
type Runner struct {
	cfg           config.Engine
	priceRepo     *prices.Repository
	metricsRepo   *metrics.Repository
	scoreRepo     *scoring.Repository
	metricsEngine *metrics.Engine
	scoringEngine *scoring.Engine
	log           zerolog.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(
	cfg config.Engine,
	priceRepo *prices.Repository,
	metricsRepo *metrics.Repository,
	scoreRepo *scoring.Repository,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:           cfg,
		priceRepo:     priceRepo,
		metricsRepo:   metricsRepo,
		scoreRepo:     scoreRepo,
		metricsEngine: metrics.NewEngine(cfg, log),
		scoringEngine: scoring.NewEngine(cfg, log),
		log:           log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes metrics then scoring over the stored price series. An empty
// asOfDate means the latest date across the universe. Empty price input is
// fatal to the run; per-ticker defects only exclude that ticker.
func (r *Runner) Run(asOfDate string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.log.With().Str("run_id", runID).Logger()

	series, err := r.priceRepo.GetAllSeries()
	if err != nil {
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no price data found, run a price sync first")
	}

	records, exclusions, err := r.metricsEngine.ComputeAll(series, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("metrics computation failed: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no tickers survived the metrics stage (%d excluded)", len(exclusions))
	}

	if err := r.metricsRepo.UpsertAll(records); err != nil {
		return nil, fmt.Errorf("failed to store metrics: %w", err)
	}

	// The percentile step needs the complete record set for the universe;
	// scoring cannot stream per ticker.
	scores, err := r.scoringEngine.ScoreAllProfiles(records)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	if err := r.scoreRepo.UpsertAll(scores); err != nil {
		return nil, fmt.Errorf("failed to store scores: %w", err)
	}

	result := &Result{
		RunID:      runID,
		AsOfDate:   records[0].AsOfDate,
		Scored:     len(records),
		Excluded:   len(exclusions),
		Exclusions: exclusions,
		Elapsed:    time.Since(start),
	}

	log.Info().
		Str("as_of_date", result.AsOfDate).
		Int("scored", result.Scored).
		Int("excluded", result.Excluded).
		Dur("elapsed", result.Elapsed).
		Msg("Pipeline run completed")

	return result, nil
}
