package metrics

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/domain"
)

// metricsColumns is the list of columns for the metrics table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanRecord() expectations.
const metricsColumns = `ticker, as_of_date, annualized_return, volatility,
max_drawdown, downside_deviation, momentum, trading_days`

// Repository handles metrics table database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new metrics repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "metrics").Logger(),
	}
}

// UpsertAll replaces the metrics records for a run in one transaction,
// keyed by (ticker, as_of_date). Re-running for the same as-of date
// overwrites rather than duplicates.
func (r *Repository) UpsertAll(records []domain.MetricsRecord) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO metrics
			(ticker, as_of_date, annualized_return, volatility, max_drawdown,
			 downside_deviation, momentum, trading_days)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(
				strings.ToUpper(strings.TrimSpace(m.Ticker)),
				m.AsOfDate,
				m.AnnualizedReturn,
				m.Volatility,
				m.MaxDrawdown,
				m.DownsideDeviation,
				m.Momentum,
				m.TradingDays,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert metrics for %s: %w", m.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(records)).Msg("Metrics upserted")
	return nil
}

// GetByDate returns all metrics records for an as-of date.
func (r *Repository) GetByDate(asOfDate string) ([]domain.MetricsRecord, error) {
	query := "SELECT " + metricsColumns + " FROM metrics WHERE as_of_date = ? ORDER BY ticker"

	rows, err := r.db.Query(query, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics by date: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// GetByTicker returns the latest metrics record for one ticker, or nil when
// the ticker has no record.
func (r *Repository) GetByTicker(ticker string) (*domain.MetricsRecord, error) {
	query := "SELECT " + metricsColumns + ` FROM metrics
		WHERE ticker = ?
		  AND as_of_date = (SELECT MAX(as_of_date) FROM metrics)`

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics by ticker: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Not found
	}

	record, err := scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan metrics record: %w", err)
	}

	return &record, nil
}

// LatestDate returns the most recent as-of date, or empty string when no
// metrics exist.
func (r *Repository) LatestDate() (string, error) {
	var date sql.NullString
	err := r.db.QueryRow("SELECT MAX(as_of_date) FROM metrics").Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest metrics date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

func (r *Repository) collect(rows *sql.Rows) ([]domain.MetricsRecord, error) {
	var records []domain.MetricsRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (domain.MetricsRecord, error) {
	var m domain.MetricsRecord
	err := rows.Scan(
		&m.Ticker,
		&m.AsOfDate,
		&m.AnnualizedReturn,
		&m.Volatility,
		&m.MaxDrawdown,
		&m.DownsideDeviation,
		&m.Momentum,
		&m.TradingDays,
	)
	return m, err
}
