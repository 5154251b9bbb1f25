package testing

import (
	"time"

	"github.com/aristath/stockrank/internal/domain"
)

// TradingDates returns n consecutive weekday dates (YYYY-MM-DD) starting at
// start, skipping Saturdays and Sundays.
func TradingDates(start time.Time, n int) []string {
	dates := make([]string, 0, n)
	d := start
	for len(dates) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

// Series builds a price series from parallel dates and closes.
func Series(ticker string, dates []string, closes []float64) domain.PriceSeries {
	points := make([]domain.PricePoint, len(closes))
	for i := range closes {
		points[i] = domain.PricePoint{Date: dates[i], AdjClose: closes[i]}
	}
	return domain.PriceSeries{Ticker: ticker, Points: points}
}

// TrendingSeries builds a series of n trading days starting at start, where
// the close grows by dailyReturn each day from a base of 100.
func TrendingSeries(ticker string, start time.Time, n int, dailyReturn float64) domain.PriceSeries {
	dates := TradingDates(start, n)
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		closes[i] = price
		price *= 1 + dailyReturn
	}
	return Series(ticker, dates, closes)
}

// OscillatingSeries builds a series of n trading days whose daily returns
// alternate between +step and -step, giving nonzero volatility, drawdown,
// and downside deviation.
func OscillatingSeries(ticker string, start time.Time, n int, step float64) domain.PriceSeries {
	dates := TradingDates(start, n)
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		closes[i] = price
		if i%2 == 0 {
			price *= 1 + step
		} else {
			price *= 1 - step
		}
	}
	return Series(ticker, dates, closes)
}
