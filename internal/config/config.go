// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the market database (always absolute)
	LogLevel        string
	Port            int
	DevMode         bool
	RefreshSchedule string // Cron expression for the daily pipeline run
	Engine          Engine
}

// Engine holds the immutable parameter set consumed by the metrics and
// scoring engines. It is passed by value into each pipeline run so that
// re-execution with identical inputs is deterministic.
type Engine struct {
	Universe           []string // Ticker universe; empty means resolve at ingest time
	TradingDaysPerYear int
	Window             int // Rolling window for volatility / downside deviation
	Window3M           int // 3-month momentum horizon
	Window12M          int // 12-month momentum horizon
	MinTradingDays     int // Minimum usable history; tickers below are excluded
	Momentum3MWeight   float64
	Momentum12MWeight  float64
	Profiles           map[string]RiskProfile
	DefaultTopN        int
}

// RiskProfile is a named weight tuple controlling penalty/reward emphasis
// in the composite score:
//
//	raw_score = annualized_return - alpha*volatility - beta*|max_drawdown|
//	            - gamma*downside_deviation + delta*momentum
type RiskProfile struct {
	Alpha float64 `json:"alpha"` // volatility penalty
	Beta  float64 `json:"beta"`  // drawdown penalty
	Gamma float64 `json:"gamma"` // downside deviation penalty
	Delta float64 `json:"delta"` // momentum bonus
}

// DefaultTickers is the fallback universe when no custom list is configured
// and the S&P 500 constituent scrape fails.
var DefaultTickers = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "TSLA", "BRK-B",
	"JPM", "JNJ", "V", "UNH", "PG", "HD", "MA", "DIS", "BAC", "XOM",
	"PFE", "KO", "PEP", "CSCO", "INTC", "NFLX", "ADBE", "CRM", "ABT",
	"CVX", "WMT", "MRK",
}

// DefaultEngine returns the canonical engine parameter set.
func DefaultEngine() Engine {
	return Engine{
		TradingDaysPerYear: 252,
		Window:             252,
		Window3M:           63,
		Window12M:          252,
		MinTradingDays:     200,
		Momentum3MWeight:   0.6,
		Momentum12MWeight:  0.4,
		DefaultTopN:        10,
		Profiles: map[string]RiskProfile{
			"low":    {Alpha: 2.0, Beta: 2.0, Gamma: 1.5, Delta: 0.3},
			"medium": {Alpha: 1.0, Beta: 1.0, Gamma: 0.75, Delta: 0.7},
			"high":   {Alpha: 0.5, Beta: 0.5, Gamma: 0.3, Delta: 1.5},
		},
	}
}

// ProfileNames returns the configured risk profile names in sorted order.
func (e Engine) ProfileNames() []string {
	names := make([]string, 0, len(e.Profiles))
	for name := range e.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKRANK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8000),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		// Weekdays at 22:30 UTC, after US market close
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "30 22 * * MON-FRI"),
		Engine:          DefaultEngine(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if len(c.Engine.Profiles) == 0 {
		return fmt.Errorf("at least one risk profile must be configured")
	}
	if c.Engine.MinTradingDays < 2 {
		return fmt.Errorf("minimum trading days must be at least 2, got %d", c.Engine.MinTradingDays)
	}
	if c.Engine.Window < 2 {
		return fmt.Errorf("rolling window must be at least 2, got %d", c.Engine.Window)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
