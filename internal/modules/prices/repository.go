// Package prices provides storage and synchronization of daily price series.
package prices

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/domain"
)

// Repository handles price table database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// UpsertSeries inserts or replaces the daily prices for one ticker in a
// single transaction, keyed by (ticker, date).
func (r *Repository) UpsertSeries(ticker string, points []domain.PricePoint) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker is required for price upsert")
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO prices (ticker, date, adj_close, volume)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			volume := sql.NullInt64{}
			if p.Volume != nil {
				volume.Int64 = *p.Volume
				volume.Valid = true
			}

			if _, err := stmt.Exec(ticker, p.Date, p.AdjClose, volume); err != nil {
				return fmt.Errorf("failed to insert price for %s %s: %w", ticker, p.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Str("ticker", ticker).Int("count", len(points)).Msg("Upserted price series")
	return nil
}

// GetSeries returns one ticker's price series ordered by date ascending.
// Returns an empty series (not an error) for an unknown ticker.
func (r *Repository) GetSeries(ticker string) (domain.PriceSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	series := domain.PriceSeries{Ticker: ticker}

	rows, err := r.db.Query(`
		SELECT date, adj_close, volume
		FROM prices
		WHERE ticker = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return series, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PricePoint
		var volume sql.NullInt64

		if err := rows.Scan(&p.Date, &p.AdjClose, &volume); err != nil {
			return series, fmt.Errorf("failed to scan price row: %w", err)
		}
		if volume.Valid {
			p.Volume = &volume.Int64
		}
		series.Points = append(series.Points, p)
	}

	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("error iterating prices: %w", err)
	}

	return series, nil
}

// GetAllSeries returns every ticker's series, ordered by ticker then date.
// This is the full read-set of one pipeline run.
func (r *Repository) GetAllSeries() ([]domain.PriceSeries, error) {
	rows, err := r.db.Query(`
		SELECT ticker, date, adj_close, volume
		FROM prices
		ORDER BY ticker ASC, date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all prices: %w", err)
	}
	defer rows.Close()

	var all []domain.PriceSeries
	var current *domain.PriceSeries

	for rows.Next() {
		var ticker string
		var p domain.PricePoint
		var volume sql.NullInt64

		if err := rows.Scan(&ticker, &p.Date, &p.AdjClose, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		if current == nil || current.Ticker != ticker {
			all = append(all, domain.PriceSeries{Ticker: ticker})
			current = &all[len(all)-1]
		}
		current.Points = append(current.Points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return all, nil
}

// LatestDate returns the most recent price date, or empty string when the
// table is empty.
func (r *Repository) LatestDate() (string, error) {
	var date sql.NullString
	err := r.db.QueryRow("SELECT MAX(date) FROM prices").Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest price date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// TickerCount returns the number of distinct tickers with stored prices.
func (r *Repository) TickerCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(DISTINCT ticker) FROM prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickers: %w", err)
	}
	return count, nil
}
