package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOCKRANK_DATA_DIR", filepath.Join(t.TempDir(), "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "30 22 * * MON-FRI", cfg.RefreshSchedule)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKRANK_DATA_DIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REFRESH_SCHEDULE", "@daily")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "@daily", cfg.RefreshSchedule)
}

func TestDefaultEngine(t *testing.T) {
	engine := DefaultEngine()

	assert.Equal(t, 252, engine.TradingDaysPerYear)
	assert.Equal(t, 200, engine.MinTradingDays)
	assert.InDelta(t, 1.0, engine.Momentum3MWeight+engine.Momentum12MWeight, 1e-9)
	assert.Equal(t, []string{"high", "low", "medium"}, engine.ProfileNames())

	low := engine.Profiles["low"]
	high := engine.Profiles["high"]
	assert.Greater(t, low.Alpha, high.Alpha, "conservative penalizes volatility harder")
	assert.Less(t, low.Delta, high.Delta, "aggressive rewards momentum harder")
}

func TestValidate(t *testing.T) {
	cfg := &Config{Engine: DefaultEngine()}
	require.NoError(t, cfg.Validate())

	cfg.Engine.Profiles = nil
	assert.Error(t, cfg.Validate())

	cfg = &Config{Engine: DefaultEngine()}
	cfg.Engine.MinTradingDays = 1
	assert.Error(t, cfg.Validate())

	cfg = &Config{Engine: DefaultEngine()}
	cfg.Engine.Window = 0
	assert.Error(t, cfg.Validate())
}
