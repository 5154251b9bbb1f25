// Package scoring turns a metrics record set into ranked composite scores
// per risk profile.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/domain"
)

// Engine computes ScoreRecords from a MetricsRecord set.
type Engine struct {
	cfg config.Engine
	log zerolog.Logger
}

// NewEngine creates a scoring engine with an immutable parameter set.
func NewEngine(cfg config.Engine, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("engine", "scoring").Logger(),
	}
}

// ScoreProfile produces one ScoreRecord per metrics record under the named
// risk profile. An unknown profile or an empty record set is an error, not
// an empty ranking.
func (e *Engine) ScoreProfile(records []domain.MetricsRecord, profileName string) ([]domain.ScoreRecord, error) {
	profile, ok := e.cfg.Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("unknown risk profile %q, choose from %v", profileName, e.cfg.ProfileNames())
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no metrics records to score")
	}

	scores := make([]domain.ScoreRecord, len(records))
	raws := make([]float64, len(records))
	for i, m := range records {
		raw := rawScore(m, profile)
		raws[i] = raw
		scores[i] = domain.ScoreRecord{
			Ticker:      m.Ticker,
			RiskProfile: profileName,
			AsOfDate:    m.AsOfDate,
			RawScore:    raw,
		}
	}

	normalize(scores, raws)
	assignRanks(scores)

	e.log.Debug().
		Str("profile", profileName).
		Int("count", len(scores)).
		Str("top", scores[0].Ticker).
		Msg("Profile scored")

	return scores, nil
}

// ScoreAllProfiles scores the record set independently under every
// configured profile. A ticker's relative rank may differ arbitrarily
// across profiles; that reordering is the point of profile selection.
func (e *Engine) ScoreAllProfiles(records []domain.MetricsRecord) ([]domain.ScoreRecord, error) {
	var all []domain.ScoreRecord
	for _, name := range e.cfg.ProfileNames() {
		scores, err := e.ScoreProfile(records, name)
		if err != nil {
			return nil, err
		}
		all = append(all, scores...)
	}
	return all, nil
}

// rawScore applies the composite formula with the profile's weights. No
// smoothing is applied at this stage.
func rawScore(m domain.MetricsRecord, p config.RiskProfile) float64 {
	return m.AnnualizedReturn -
		p.Alpha*m.Volatility -
		p.Beta*math.Abs(m.MaxDrawdown) -
		p.Gamma*m.DownsideDeviation +
		p.Delta*m.Momentum
}

// normalize sets each record's NormalizedScore to its midpoint-rule
// percentile rank over raws:
//
//	(count strictly lower + 0.5 * count equal) / universe size
//
// which lies in (0,1] and gives tied raw scores the same normalized score.
func normalize(scores []domain.ScoreRecord, raws []float64) {
	sorted := make([]float64, len(raws))
	copy(sorted, raws)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	for i := range scores {
		lower := sort.SearchFloat64s(sorted, scores[i].RawScore)
		upper := sort.Search(len(sorted), func(j int) bool { return sorted[j] > scores[i].RawScore })
		equal := upper - lower
		scores[i].NormalizedScore = (float64(lower) + 0.5*float64(equal)) / n
	}
}

// assignRanks orders by NormalizedScore descending with ticker-symbol
// ascending as the deterministic tie-break, then assigns a dense 1..N
// sequence. Ties share a normalized score but never a rank value.
func assignRanks(scores []domain.ScoreRecord) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].NormalizedScore != scores[j].NormalizedScore {
			return scores[i].NormalizedScore > scores[j].NormalizedScore
		}
		return scores[i].Ticker < scores[j].Ticker
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}
