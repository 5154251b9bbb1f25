package scoring

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/domain"
)

// Repository handles scores table database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new score repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "scores").Logger(),
	}
}

// UpsertAll replaces the score records for a run in one transaction, keyed
// by (ticker, as_of_date, risk_profile).
func (r *Repository) UpsertAll(records []domain.ScoreRecord) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO scores
			(ticker, as_of_date, risk_profile, raw_score, normalized_score, rank)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range records {
			_, err := stmt.Exec(
				strings.ToUpper(strings.TrimSpace(s.Ticker)),
				s.AsOfDate,
				s.RiskProfile,
				s.RawScore,
				s.NormalizedScore,
				s.Rank,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert score for %s/%s: %w", s.Ticker, s.RiskProfile, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(records)).Msg("Scores upserted")
	return nil
}

// GetTop returns the top-N ranked stocks for a risk profile, joined with
// their metrics, ordered by rank ascending. Empty asOfDate means latest.
func (r *Repository) GetTop(riskProfile string, topN int, asOfDate string) ([]domain.RankedStock, error) {
	dateClause := "s.as_of_date = (SELECT MAX(as_of_date) FROM scores)"
	args := []interface{}{riskProfile, topN}
	if asOfDate != "" {
		dateClause = "s.as_of_date = ?"
		args = []interface{}{asOfDate, riskProfile, topN}
	}

	query := `
		SELECT
			s.rank,
			s.ticker,
			s.normalized_score,
			s.raw_score,
			m.annualized_return,
			m.volatility,
			m.max_drawdown,
			m.downside_deviation,
			m.momentum,
			m.trading_days
		FROM scores s
		JOIN metrics m
			ON s.ticker = m.ticker
			AND s.as_of_date = m.as_of_date
		WHERE ` + dateClause + `
			AND s.risk_profile = ?
		ORDER BY s.rank ASC
		LIMIT ?
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	var stocks []domain.RankedStock
	for rows.Next() {
		var s domain.RankedStock
		err := rows.Scan(
			&s.Rank,
			&s.Ticker,
			&s.NormalizedScore,
			&s.RawScore,
			&s.AnnualizedReturn,
			&s.Volatility,
			&s.MaxDrawdown,
			&s.DownsideDeviation,
			&s.Momentum,
			&s.TradingDays,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranked stocks: %w", err)
	}

	return stocks, nil
}

// GetByTicker returns one ticker's scores across all profiles for the
// latest as-of date, ordered by profile name.
func (r *Repository) GetByTicker(ticker string) ([]domain.ScoreRecord, error) {
	query := `
		SELECT ticker, as_of_date, risk_profile, raw_score, normalized_score, rank
		FROM scores
		WHERE ticker = ?
		  AND as_of_date = (SELECT MAX(as_of_date) FROM scores)
		ORDER BY risk_profile
	`

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores by ticker: %w", err)
	}
	defer rows.Close()

	var scores []domain.ScoreRecord
	for rows.Next() {
		var s domain.ScoreRecord
		err := rows.Scan(&s.Ticker, &s.AsOfDate, &s.RiskProfile, &s.RawScore, &s.NormalizedScore, &s.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return scores, nil
}

// LatestDate returns the most recent scored as-of date, or empty string
// when no scores exist.
func (r *Repository) LatestDate() (string, error) {
	var date sql.NullString
	err := r.db.QueryRow("SELECT MAX(as_of_date) FROM scores").Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest score date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}
