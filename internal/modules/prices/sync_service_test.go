package prices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockrank/internal/domain"
	testutil "github.com/aristath/stockrank/internal/testing"
)

// fakeHistoryClient serves canned histories and fails on demand.
type fakeHistoryClient struct {
	histories map[string][]domain.PricePoint
	failing   map[string]bool
	calls     []string
}

func (f *fakeHistoryClient) FetchDailyHistory(_ context.Context, ticker string, _, _ time.Time) ([]domain.PricePoint, error) {
	f.calls = append(f.calls, ticker)
	if f.failing[ticker] {
		return nil, fmt.Errorf("simulated fetch failure for %s", ticker)
	}
	return f.histories[ticker], nil
}

func (f *fakeHistoryClient) ResolveUniverse(_ context.Context, custom, fallback []string) []string {
	if len(custom) > 0 {
		return custom
	}
	return fallback
}

func pricePoints(dates []string, closes []float64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(dates))
	for i := range dates {
		points[i] = domain.PricePoint{Date: dates[i], AdjClose: closes[i]}
	}
	return points
}

func TestSync_StoresAllTickers(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	client := &fakeHistoryClient{
		histories: map[string][]domain.PricePoint{
			"AAPL": pricePoints([]string{"2024-01-02", "2024-01-03"}, []float64{184, 185}),
			"MSFT": pricePoints([]string{"2024-01-02"}, []float64{370}),
		},
	}

	svc := NewSyncService(client, repo, zerolog.Nop())
	synced, err := svc.Sync(context.Background(), []string{"AAPL", "MSFT"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, []string{"AAPL", "MSFT"}, client.calls)

	series, err := repo.GetSeries("AAPL")
	require.NoError(t, err)
	assert.Len(t, series.Points, 2)
}

func TestSync_SkipsFailedTickers(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	client := &fakeHistoryClient{
		histories: map[string][]domain.PricePoint{
			"MSFT": pricePoints([]string{"2024-01-02"}, []float64{370}),
		},
		failing: map[string]bool{"AAPL": true},
	}

	svc := NewSyncService(client, repo, zerolog.Nop())
	synced, err := svc.Sync(context.Background(), []string{"AAPL", "MSFT", "EMPT"}, nil)
	require.NoError(t, err)

	// AAPL failed, EMPT returned no rows; only MSFT landed.
	assert.Equal(t, 1, synced)

	count, err := repo.TickerCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSync_EmptyUniverse(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	svc := NewSyncService(&fakeHistoryClient{}, repo, zerolog.Nop())

	_, err := svc.Sync(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty ticker universe")
}

func TestSync_CancelledContext(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	svc := NewSyncService(&fakeHistoryClient{}, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Sync(ctx, []string{"AAPL"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync cancelled")
}
