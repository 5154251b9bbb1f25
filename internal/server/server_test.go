package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/modules/metrics"
	"github.com/aristath/stockrank/internal/modules/prices"
	"github.com/aristath/stockrank/internal/modules/scoring"
	"github.com/aristath/stockrank/internal/pipeline"
	testutil "github.com/aristath/stockrank/internal/testing"
)

func newTestServer(t *testing.T) (*Server, *prices.Repository, func()) {
	t.Helper()

	db, cleanup := testutil.NewTestDB(t)
	log := zerolog.Nop()
	cfg := config.DefaultEngine()

	priceRepo := prices.NewRepository(db.Conn(), log)
	metricsRepo := metrics.NewRepository(db.Conn(), log)
	scoreRepo := scoring.NewRepository(db.Conn(), log)
	runner := pipeline.NewRunner(cfg, priceRepo, metricsRepo, scoreRepo, log)

	srv := New(Config{
		Port:        0,
		Log:         log,
		MarketDB:    db,
		Engine:      cfg,
		PriceRepo:   priceRepo,
		MetricsRepo: metricsRepo,
		ScoreRepo:   scoreRepo,
		Runner:      runner,
	})
	return srv, priceRepo, cleanup
}

func TestHandleHealth(t *testing.T) {
	srv, priceRepo, cleanup := newTestServer(t)
	defer cleanup()

	series := testutil.TrendingSeries("UPUP",
		time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 5, 0.001)
	require.NoError(t, priceRepo.UpsertSeries(series.Ticker, series.Points))

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// A passing response means the ping and integrity check both succeeded.
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.TickerCount)
	assert.Equal(t, series.Points[len(series.Points)-1].Date, resp.LatestPriceDate)
	assert.Empty(t, resp.LatestMetricsDate)
	assert.Empty(t, resp.LatestScoresDate)
}

func TestHandleHealth_ClosedDatabase(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	require.NoError(t, srv.marketDB.Close())

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
}

func TestHandleDashboard(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/api/rankings")
}
