// Package metrics computes rolling risk/return metrics from daily price
// series. The engine is a pure, stateless transform: each run reads full
// history and emits a fresh record set.
package metrics

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/domain"
)

// Engine computes MetricsRecords from price series.
type Engine struct {
	cfg config.Engine
	log zerolog.Logger
}

// NewEngine creates a metrics engine with an immutable parameter set.
func NewEngine(cfg config.Engine, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("engine", "metrics").Logger(),
	}
}

// ComputeAll computes at most one MetricsRecord per ticker as of asOfDate.
// When asOfDate is empty, the latest date across the universe is used.
//
// Only prices dated strictly before the as-of date feed any computation, so
// altering data at or after the as-of date cannot change the output.
// Per-ticker defects (bad series, short history) exclude that ticker and
// are reported; an empty universe is an error.
func (e *Engine) ComputeAll(series []domain.PriceSeries, asOfDate string) ([]domain.MetricsRecord, []domain.Exclusion, error) {
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("no price series provided")
	}

	if asOfDate == "" {
		for _, s := range series {
			for _, p := range s.Points {
				if p.Date > asOfDate {
					asOfDate = p.Date
				}
			}
		}
	}
	if asOfDate == "" {
		return nil, nil, fmt.Errorf("no price observations in any series")
	}

	var records []domain.MetricsRecord
	var exclusions []domain.Exclusion

	for _, s := range series {
		record, exclusion := e.computeTicker(s, asOfDate)
		if exclusion != nil {
			exclusions = append(exclusions, *exclusion)
			continue
		}
		records = append(records, *record)
	}

	if len(exclusions) > 0 {
		e.log.Info().
			Int("excluded", len(exclusions)).
			Int("computed", len(records)).
			Str("as_of_date", asOfDate).
			Msg("Tickers excluded from metrics run")
	}

	return records, exclusions, nil
}

// computeTicker computes one ticker's metrics, or the exclusion that
// dropped it.
func (e *Engine) computeTicker(s domain.PriceSeries, asOfDate string) (*domain.MetricsRecord, *domain.Exclusion) {
	if err := validateSeries(s); err != nil {
		e.log.Warn().Err(err).Str("ticker", s.Ticker).Msg("Invalid price series")
		return nil, &domain.Exclusion{
			Ticker: s.Ticker,
			Reason: domain.ExclusionInvalidSeries,
			Detail: err.Error(),
		}
	}

	// Strict no-look-ahead: drop the as-of date itself and anything after.
	closes := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Date < asOfDate {
			closes = append(closes, p.AdjClose)
		}
	}

	n := len(closes)
	if n < 2 {
		return nil, &domain.Exclusion{
			Ticker: s.Ticker,
			Reason: domain.ExclusionInvalidSeries,
			Detail: fmt.Sprintf("%d usable observations, need at least 2", n),
		}
	}
	if n < e.cfg.MinTradingDays {
		return nil, &domain.Exclusion{
			Ticker: s.Ticker,
			Reason: domain.ExclusionInsufficientHistory,
			Detail: fmt.Sprintf("%d usable trading days, need %d", n, e.cfg.MinTradingDays),
		}
	}
	// The 12-month momentum leg needs Window12M+1 observations; a partial
	// blend would bias the score, so the ticker is excluded instead.
	if n < e.cfg.Window12M+1 {
		return nil, &domain.Exclusion{
			Ticker: s.Ticker,
			Reason: domain.ExclusionShortMomentumLeg,
			Detail: fmt.Sprintf("%d usable trading days, momentum needs %d", n, e.cfg.Window12M+1),
		}
	}

	returns := dailyReturns(closes)
	tail := windowTail(returns, e.cfg.Window)
	annualizer := math.Sqrt(float64(e.cfg.TradingDaysPerYear))

	record := &domain.MetricsRecord{
		Ticker:            s.Ticker,
		AsOfDate:          asOfDate,
		AnnualizedReturn:  annualizedReturn(returns, e.cfg.TradingDaysPerYear),
		Volatility:        stat.StdDev(tail, nil) * annualizer,
		MaxDrawdown:       maxDrawdown(closes),
		DownsideDeviation: downsideDeviation(tail) * annualizer,
		Momentum: e.cfg.Momentum3MWeight*trailingReturn(closes, e.cfg.Window3M) +
			e.cfg.Momentum12MWeight*trailingReturn(closes, e.cfg.Window12M),
		TradingDays: n,
	}

	return record, nil
}

// validateSeries checks the ordered-by-date invariant: strictly increasing
// dates, no duplicates.
func validateSeries(s domain.PriceSeries) error {
	if s.Ticker == "" {
		return fmt.Errorf("series has no ticker")
	}
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1].Date, s.Points[i].Date
		if cur == prev {
			return fmt.Errorf("duplicate date %s", cur)
		}
		if cur < prev {
			return fmt.Errorf("non-monotonic dates: %s after %s", cur, prev)
		}
	}
	return nil
}

// dailyReturns computes percentage changes: day T uses price(T) and
// price(T-1) only.
func dailyReturns(closes []float64) []float64 {
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// annualizedReturn compounds the full-history daily return series and
// annualizes geometrically.
func annualizedReturn(returns []float64, tradingDaysPerYear int) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, float64(tradingDaysPerYear)/float64(len(returns))) - 1
}

// maxDrawdown is the minimum of close/running-peak - 1 over the full
// retained history. Always <= 0; exactly 0 only for a monotonically
// non-decreasing series.
func maxDrawdown(closes []float64) float64 {
	peak := closes[0]
	minDrawdown := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if dd := c/peak - 1; dd < minDrawdown {
			minDrawdown = dd
		}
	}
	return minDrawdown
}

// downsideDeviation is the root-mean-square of returns clamped at zero:
// exactly 0 when the window has no negative-return days.
func downsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
		}
	}
	return math.Sqrt(sumSquares / float64(len(returns)))
}

// trailingReturn is the simple return over the last n trading days.
func trailingReturn(closes []float64, n int) float64 {
	last := len(closes) - 1
	base := last - n
	if base < 0 {
		return 0
	}
	return closes[last]/closes[base] - 1
}

// windowTail returns the last window elements, or the whole slice when it
// is shorter than the window.
func windowTail(values []float64, window int) []float64 {
	if len(values) <= window {
		return values
	}
	return values[len(values)-window:]
}
