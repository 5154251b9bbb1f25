package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchSP500Tickers scrapes the current S&P 500 constituents from the
// Wikipedia constituents table. Dots in class-share symbols are replaced
// with dashes to match the price endpoint's convention.
func (c *Client) FetchSP500Tickers(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	resp, err := c.http.R().SetContext(ctx).Get(sp500ListURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch S&P 500 list: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d fetching S&P 500 list", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse S&P 500 page: %w", err)
	}

	seen := make(map[string]bool)
	var tickers []string
	doc.Find("table#constituents tbody tr td:first-child").Each(func(_ int, s *goquery.Selection) {
		symbol := strings.ToUpper(strings.TrimSpace(s.Text()))
		symbol = strings.ReplaceAll(symbol, ".", "-")
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true
		tickers = append(tickers, symbol)
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no constituents found in S&P 500 table")
	}

	sort.Strings(tickers)
	c.log.Info().Int("count", len(tickers)).Msg("Fetched S&P 500 tickers")
	return tickers, nil
}

// ResolveUniverse picks the ticker universe: an explicit custom list wins,
// then the scraped S&P 500 constituents, then the fallback list.
func (c *Client) ResolveUniverse(ctx context.Context, custom, fallback []string) []string {
	if len(custom) > 0 {
		c.log.Info().Int("count", len(custom)).Msg("Using custom ticker universe")
		return custom
	}

	sp500, err := c.FetchSP500Tickers(ctx)
	if err == nil {
		return sp500
	}
	c.log.Warn().Err(err).Msg("Failed to fetch S&P 500 list, falling back to defaults")

	c.log.Info().Int("count", len(fallback)).Msg("Using default ticker universe")
	return fallback
}
