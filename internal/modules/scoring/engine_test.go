package scoring

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/domain"
)

func newEngine() *Engine {
	return NewEngine(config.DefaultEngine(), zerolog.Nop())
}

func metricsFixture() []domain.MetricsRecord {
	return []domain.MetricsRecord{
		{
			Ticker: "AAAA", AsOfDate: "2024-06-28",
			AnnualizedReturn: 0.20, Volatility: 0.10, MaxDrawdown: -0.05,
			DownsideDeviation: 0.05, Momentum: 0.30, TradingDays: 300,
		},
		{
			Ticker: "BBBB", AsOfDate: "2024-06-28",
			AnnualizedReturn: 0.15, Volatility: 0.40, MaxDrawdown: -0.30,
			DownsideDeviation: 0.25, Momentum: 0.10, TradingDays: 300,
		},
	}
}

func findTicker(t *testing.T, scores []domain.ScoreRecord, ticker string) domain.ScoreRecord {
	t.Helper()
	for _, s := range scores {
		if s.Ticker == ticker {
			return s
		}
	}
	t.Fatalf("ticker %s not found in scores", ticker)
	return domain.ScoreRecord{}
}

func TestScoreProfile_RawScoreFormula(t *testing.T) {
	engine := newEngine()
	records := metricsFixture()

	low, err := engine.ScoreProfile(records, "low")
	require.NoError(t, err)
	high, err := engine.ScoreProfile(records, "high")
	require.NoError(t, err)

	// low: heavy penalties dominate B's risk numbers
	assert.InDelta(t, -0.085, findTicker(t, low, "AAAA").RawScore, 1e-9)
	assert.InDelta(t, -1.595, findTicker(t, low, "BBBB").RawScore, 1e-9)

	// high: momentum up-weighted, penalties halved
	assert.InDelta(t, 0.560, findTicker(t, high, "AAAA").RawScore, 1e-9)
	assert.InDelta(t, -0.125, findTicker(t, high, "BBBB").RawScore, 1e-9)

	// The gap narrows under the aggressive profile
	lowGap := findTicker(t, low, "AAAA").RawScore - findTicker(t, low, "BBBB").RawScore
	highGap := findTicker(t, high, "AAAA").RawScore - findTicker(t, high, "BBBB").RawScore
	assert.Less(t, highGap, lowGap)
}

func TestScoreProfile_UnknownProfile(t *testing.T) {
	_, err := newEngine().ScoreProfile(metricsFixture(), "yolo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown risk profile")
}

func TestScoreProfile_EmptyRecordSet(t *testing.T) {
	_, err := newEngine().ScoreProfile(nil, "medium")
	assert.Error(t, err)
}

func TestScoreProfile_MidpointTies(t *testing.T) {
	// CCCC and AAAA produce identical raw scores; BBBB beats both.
	records := []domain.MetricsRecord{
		{Ticker: "CCCC", AsOfDate: "2024-06-28", AnnualizedReturn: 0.10},
		{Ticker: "AAAA", AsOfDate: "2024-06-28", AnnualizedReturn: 0.10},
		{Ticker: "BBBB", AsOfDate: "2024-06-28", AnnualizedReturn: 0.20},
	}

	scores, err := newEngine().ScoreProfile(records, "medium")
	require.NoError(t, err)
	require.Len(t, scores, 3)

	a := findTicker(t, scores, "AAAA")
	b := findTicker(t, scores, "BBBB")
	c := findTicker(t, scores, "CCCC")

	// Ties share the midpoint normalized score: (0 + 0.5*2)/3
	assert.InDelta(t, 1.0/3.0, a.NormalizedScore, 1e-9)
	assert.InDelta(t, 1.0/3.0, c.NormalizedScore, 1e-9)
	// Winner: (2 + 0.5*1)/3
	assert.InDelta(t, 2.5/3.0, b.NormalizedScore, 1e-9)

	// Distinct, deterministic ranks with no gaps: ties break by ticker.
	assert.Equal(t, 1, b.Rank)
	assert.Equal(t, 2, a.Rank)
	assert.Equal(t, 3, c.Rank)
}

func TestScoreProfile_RankIsDensePermutation(t *testing.T) {
	records := metricsFixture()
	records = append(records,
		domain.MetricsRecord{Ticker: "DDDD", AsOfDate: "2024-06-28", AnnualizedReturn: 0.05},
		domain.MetricsRecord{Ticker: "EEEE", AsOfDate: "2024-06-28", AnnualizedReturn: -0.12},
	)

	scores, err := newEngine().ScoreProfile(records, "medium")
	require.NoError(t, err)
	require.Len(t, scores, len(records))

	seen := make(map[int]bool)
	for _, s := range scores {
		assert.Greater(t, s.NormalizedScore, 0.0)
		assert.LessOrEqual(t, s.NormalizedScore, 1.0)
		assert.False(t, seen[s.Rank], "duplicate rank %d", s.Rank)
		seen[s.Rank] = true
	}
	for rank := 1; rank <= len(records); rank++ {
		assert.True(t, seen[rank], "missing rank %d", rank)
	}
}

func TestScoreAllProfiles_ProfileSensitivity(t *testing.T) {
	// X is high-momentum/high-risk, Y is stable: their relative order must
	// flip between the conservative and aggressive profiles.
	records := []domain.MetricsRecord{
		{
			Ticker: "XXXX", AsOfDate: "2024-06-28",
			AnnualizedReturn: 0.10, Volatility: 0.50, MaxDrawdown: -0.40,
			DownsideDeviation: 0.30, Momentum: 0.80,
		},
		{
			Ticker: "YYYY", AsOfDate: "2024-06-28",
			AnnualizedReturn: 0.08, Volatility: 0.05, MaxDrawdown: -0.03,
			DownsideDeviation: 0.02, Momentum: 0.0,
		},
	}

	engine := newEngine()
	all, err := engine.ScoreAllProfiles(records)
	require.NoError(t, err)
	require.Len(t, all, 2*len(config.DefaultEngine().Profiles))

	byProfile := make(map[string]map[string]domain.ScoreRecord)
	for _, s := range all {
		if byProfile[s.RiskProfile] == nil {
			byProfile[s.RiskProfile] = make(map[string]domain.ScoreRecord)
		}
		byProfile[s.RiskProfile][s.Ticker] = s
	}

	assert.Equal(t, 1, byProfile["low"]["YYYY"].Rank, "stable ticker wins under low")
	assert.Equal(t, 1, byProfile["high"]["XXXX"].Rank, "momentum ticker wins under high")
}

func TestScoreProfile_Idempotent(t *testing.T) {
	engine := newEngine()
	first, err := engine.ScoreAllProfiles(metricsFixture())
	require.NoError(t, err)
	second, err := engine.ScoreAllProfiles(metricsFixture())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
