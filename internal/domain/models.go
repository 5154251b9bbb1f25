// Package domain contains the core data model shared by all modules.
// It has no infrastructure dependencies.
package domain

// PricePoint is one daily observation of a ticker's adjusted close.
type PricePoint struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	AdjClose float64 `json:"adj_close"`
	Volume   *int64  `json:"volume,omitempty"`
}

// PriceSeries is a per-ticker sequence of daily prices ordered by date
// ascending. Dates must be strictly increasing; the metrics engine
// validates this defensively even though ingestion deduplicates.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// MetricsRecord holds the rolling risk/return metrics for one ticker as of
// one date. Every return-based quantity is computed only from prices dated
// strictly before AsOfDate.
type MetricsRecord struct {
	Ticker            string  `json:"ticker"`
	AsOfDate          string  `json:"as_of_date"`
	AnnualizedReturn  float64 `json:"annualized_return"`
	Volatility        float64 `json:"volatility"`         // annualized
	MaxDrawdown       float64 `json:"max_drawdown"`       // <= 0
	DownsideDeviation float64 `json:"downside_deviation"` // >= 0, annualized
	Momentum          float64 `json:"momentum"`           // blended 3m/12m trailing return
	TradingDays       int     `json:"trading_days"`       // observations used
}

// ScoreRecord is one ticker's composite score under one risk profile.
// NormalizedScore is a midpoint-rule percentile rank in (0,1]; Rank is a
// dense 1..N ordering by NormalizedScore descending with ticker-symbol
// tie-break.
type ScoreRecord struct {
	Ticker          string  `json:"ticker"`
	RiskProfile     string  `json:"risk_profile"`
	AsOfDate        string  `json:"as_of_date"`
	RawScore        float64 `json:"raw_score"`
	NormalizedScore float64 `json:"normalized_score"`
	Rank            int     `json:"rank"` // 1 = best
}

// RankedStock is a ScoreRecord joined with its MetricsRecord, as served by
// the rankings endpoint.
type RankedStock struct {
	Rank              int     `json:"rank"`
	Ticker            string  `json:"ticker"`
	NormalizedScore   float64 `json:"normalized_score"`
	RawScore          float64 `json:"raw_score"`
	AnnualizedReturn  float64 `json:"annualized_return"`
	Volatility        float64 `json:"volatility"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	DownsideDeviation float64 `json:"downside_deviation"`
	Momentum          float64 `json:"momentum"`
	TradingDays       int     `json:"trading_days"`
}

// ExclusionReason classifies why a ticker was dropped from a pipeline run.
type ExclusionReason string

const (
	// ExclusionInsufficientHistory - fewer usable trading days than the
	// configured minimum.
	ExclusionInsufficientHistory ExclusionReason = "insufficient_history"
	// ExclusionShortMomentumLeg - not enough history for the 12-month
	// momentum horizon.
	ExclusionShortMomentumLeg ExclusionReason = "short_momentum_leg"
	// ExclusionInvalidSeries - non-monotonic or duplicate dates, or fewer
	// than two observations.
	ExclusionInvalidSeries ExclusionReason = "invalid_series"
)

// Exclusion reports one ticker dropped from a run, surfaced so callers can
// distinguish a truncated record set from a silently shrunken one.
type Exclusion struct {
	Ticker string          `json:"ticker"`
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}
