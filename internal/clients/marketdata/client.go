// Package marketdata fetches daily price history and the ticker universe
// from public sources.
package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/stockrank/internal/domain"
)

const (
	defaultBaseURL     = "https://stooq.com"
	sp500ListURL       = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	defaultTimeout     = 30 * time.Second
	requestsPerSecond  = 2 // Polite rate toward the free endpoint
	dateLayout         = "2006-01-02"
	compactDateLayout  = "20060102"
)

// Client downloads daily adjusted close history per ticker.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	baseURL string
	log     zerolog.Logger
}

// New creates a market data client.
func New(log zerolog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(defaultTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second).
			SetHeader("User-Agent", "stockrank/1.0"),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		baseURL: defaultBaseURL,
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

// SetBaseURL overrides the price endpoint base URL (used in tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// FetchDailyHistory downloads daily bars for one ticker over [start, end].
// The endpoint serves CSV with header Date,Open,High,Low,Close,Volume.
func (c *Client) FetchDailyHistory(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"s":  normalizeSymbol(ticker),
			"d1": start.Format(compactDateLayout),
			"d2": end.Format(compactDateLayout),
			"i":  "d",
		}).
		Get(c.baseURL + "/q/d/l/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", ticker, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d fetching history for %s", resp.StatusCode(), ticker)
	}

	points, err := parseDailyCSV(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse history for %s: %w", ticker, err)
	}

	c.log.Debug().Str("ticker", ticker).Int("rows", len(points)).Msg("Fetched daily history")
	return points, nil
}

// parseDailyCSV reads the daily bar CSV into price points, keeping only
// rows with a parseable date and close. Rows arrive oldest first; the
// result is sorted by date ascending regardless.
func parseDailyCSV(r io.Reader) ([]domain.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in CSV response")
	}

	header := records[0]
	dateIdx, closeIdx, volIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "close":
			closeIdx = i
		case "volume":
			volIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("CSV header missing date/close columns: %v", header)
	}

	var points []domain.PricePoint
	for _, rec := range records[1:] {
		if len(rec) <= closeIdx || len(rec) <= dateIdx {
			continue
		}
		if _, err := time.Parse(dateLayout, rec[dateIdx]); err != nil {
			continue
		}
		adjClose, err := strconv.ParseFloat(rec[closeIdx], 64)
		if err != nil || adjClose <= 0 {
			continue
		}

		p := domain.PricePoint{Date: rec[dateIdx], AdjClose: adjClose}
		if volIdx >= 0 && len(rec) > volIdx {
			if v, err := strconv.ParseInt(rec[volIdx], 10, 64); err == nil {
				p.Volume = &v
			}
		}
		points = append(points, p)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// normalizeSymbol maps a US ticker to the endpoint's symbol form
// (lowercase with a ".us" suffix, class shares keep their dash).
func normalizeSymbol(ticker string) string {
	return strings.ToLower(strings.TrimSpace(ticker)) + ".us"
}
