package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Analyzer.MinTrades)
	assert.InDelta(t, 0.98, cfg.Analyzer.MaxAvgBuyPrice, 1e-9)
	assert.InDelta(t, 40.0, cfg.Verdict.StrongMinScore, 1e-9)
	assert.InDelta(t, 1000.0, cfg.Copy.PortfolioBalance, 1e-9)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.API.DataBase)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30*24*time.Hour, cfg.ResolutionTTL())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeYAML(t, `
analyzer:
  min_trades: 25
  min_win_rate: 0.6
  workers: 4
verdict:
  strong_min_score: 50
copy:
  portfolio_balance: 250
redis:
  addr: localhost:6379
  ttl_hours: 2
log:
  level: debug
  file: logs/analyzer.log
export:
  enabled: true
  dir: out
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Analyzer.MinTrades)
	assert.InDelta(t, 0.6, cfg.Analyzer.MinWinRate, 1e-9)
	assert.Equal(t, 4, cfg.Analyzer.Workers)
	assert.InDelta(t, 50.0, cfg.Verdict.StrongMinScore, 1e-9)
	assert.InDelta(t, 25.0, cfg.Verdict.ModerateMinScore, 1e-9)
	assert.InDelta(t, 250.0, cfg.Copy.PortfolioBalance, 1e-9)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.ResolutionTTL())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logs/analyzer.log", cfg.Log.File)
	assert.True(t, cfg.Export.Enabled)
	assert.Equal(t, "out", cfg.Export.Dir)
}

func TestLoad_ExplicitZeroThresholdsKept(t *testing.T) {
	path := writeYAML(t, `
analyzer:
  min_roi: 0
  min_score: 0
  min_win_rate: 0
  min_trades: 0
verdict:
  moderate_min_win_rate: 0
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Analyzer.MinROI)
	assert.Zero(t, cfg.Analyzer.MinScore)
	assert.Zero(t, cfg.Analyzer.MinWinRate)
	assert.Zero(t, cfg.Analyzer.MinTrades)
	assert.Zero(t, cfg.Verdict.ModerateMinWinRate)

	// lo que no aparece en el fichero sigue con su default
	assert.Equal(t, 3, cfg.Analyzer.MinMarkets)
	assert.InDelta(t, 0.98, cfg.Analyzer.MaxAvgBuyPrice, 1e-9)
	assert.InDelta(t, 40.0, cfg.Verdict.StrongMinScore, 1e-9)
}

func TestLoad_NegativeROIFloor(t *testing.T) {
	cfg, err := config.Load(writeYAML(t, "analyzer:\n  min_roi: -0.1\n"))
	require.NoError(t, err)
	assert.InDelta(t, -0.1, cfg.Analyzer.MinROI, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PORTFOLIO_BALANCE", "5000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ANALYZER_DB", ":memory:")

	cfg, err := config.Load(writeYAML(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 5000.0, cfg.Copy.PortfolioBalance, 1e-9)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}

func TestLoad_InvalidEnvBalance(t *testing.T) {
	t.Setenv("PORTFOLIO_BALANCE", "lots")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := config.Load(writeYAML(t, "analyzer: [oops"))
	assert.Error(t, err)
}
