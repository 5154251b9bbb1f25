package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockrank/internal/domain"
)

// HistoryYears is how much daily history each sync requests. Two years
// comfortably covers the 12-month momentum horizon plus the 200-day floor.
const HistoryYears = 2

// HistoryClient downloads daily bars and resolves the ticker universe.
type HistoryClient interface {
	FetchDailyHistory(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error)
	ResolveUniverse(ctx context.Context, custom, fallback []string) []string
}

// SyncService pulls daily price history for the universe into the prices
// table. Fetch failures are per-ticker: a failed download skips that ticker
// and the sync continues.
type SyncService struct {
	client HistoryClient
	repo   *Repository
	log    zerolog.Logger
}

// NewSyncService creates a new price sync service.
func NewSyncService(client HistoryClient, repo *Repository, log zerolog.Logger) *SyncService {
	return &SyncService{
		client: client,
		repo:   repo,
		log:    log.With().Str("service", "price_sync").Logger(),
	}
}

// Sync downloads and upserts history for every ticker in the universe.
// Returns the number of tickers successfully synced.
func (s *SyncService) Sync(ctx context.Context, custom, fallback []string) (int, error) {
	tickers := s.client.ResolveUniverse(ctx, custom, fallback)
	if len(tickers) == 0 {
		return 0, fmt.Errorf("empty ticker universe")
	}

	end := time.Now().UTC()
	start := end.AddDate(-HistoryYears, 0, 0)

	synced := 0
	failed := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return synced, fmt.Errorf("sync cancelled: %w", ctx.Err())
		}

		points, err := s.client.FetchDailyHistory(ctx, ticker, start, end)
		if err != nil {
			failed++
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch history, skipping ticker")
			continue
		}
		if len(points) == 0 {
			failed++
			s.log.Warn().Str("ticker", ticker).Msg("No price rows returned, skipping ticker")
			continue
		}

		if err := s.repo.UpsertSeries(ticker, points); err != nil {
			return synced, fmt.Errorf("failed to store prices for %s: %w", ticker, err)
		}
		synced++
	}

	s.log.Info().
		Int("synced", synced).
		Int("failed", failed).
		Int("universe", len(tickers)).
		Msg("Price sync completed")

	return synced, nil
}
