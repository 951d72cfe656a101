package export_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/internal/adapters/export"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(addr string, score float64, positions ...domain.CurrentPosition) domain.TraderReport {
	return domain.TraderReport{
		Metrics: domain.TraderMetrics{
			Address:          addr,
			Score:            score,
			WinRate:          0.625,
			ResolutionStats:  domain.ResolutionStats{Won: 3, Lost: 1, Unresolved: 2, Unknown: 1},
			CurrentPositions: positions,
		},
		Verdict:  domain.VerdictModerate,
		Strategy: domain.StrategyRecommendation{Primary: domain.StrategyMarketFixed},
	}
}

func position(market string) domain.CurrentPosition {
	return domain.CurrentPosition{
		MarketID:     market,
		TokenClass:   domain.TokenNo,
		Size:         12.346,
		AvgPrice:     0.4567,
		CurrentValue: 6.1,
		LastTradeAt:  time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTraders_FlattensResolutionStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteTraders(&buf, []domain.TraderReport{report("0xaaa", 42.5, position("0xm"))}))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)

	header, row := rows[0], rows[1]
	require.Len(t, row, len(header))
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %s not found", name)
		return ""
	}

	assert.Equal(t, "0xaaa", col("address"))
	assert.Equal(t, "42.50", col("score"))
	assert.Equal(t, "market_fixed", col("strategy"))
	assert.Equal(t, "3", col("res_won"))
	assert.Equal(t, "1", col("res_lost"))
	assert.Equal(t, "2", col("res_open"))
	assert.Equal(t, "1", col("res_unknown"))
	assert.NotContains(t, strings.Join(header, ","), "position")
}

func TestWriteSignals_TopTenOnly(t *testing.T) {
	var reports []domain.TraderReport
	for i := 0; i < 12; i++ {
		reports = append(reports, report(fmt.Sprintf("0x%02d", i), float64(100-i), position(fmt.Sprintf("m%02d", i))))
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteSignals(&buf, reports))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 1+export.SignalTraders)

	first := rows[1]
	assert.Equal(t, "0x00", first[0])
	assert.Equal(t, "m00", first[3])
	assert.Equal(t, "NO", first[4])
	assert.Equal(t, "12.35", first[5])
	assert.Equal(t, "0.457", first[6])
	assert.Equal(t, "2024-03-01 14:30", first[8])
	assert.Equal(t, "https://polymarket.com/event/m00", first[9])
}

func TestExport_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := export.NewCSV(dir).Export([]domain.TraderReport{
		report("0xaaa", 50, position("0xm1"), position("0xm2")),
		report("0xbbb", 40),
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Contains(t, filepath.Base(paths[0]), "copy_traders_")
	assert.Contains(t, filepath.Base(paths[1]), "current_portfolio_signals_")

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), 3)
}

func TestExport_NoSignalsFile(t *testing.T) {
	paths, err := export.NewCSV(t.TempDir()).Export([]domain.TraderReport{report("0xaaa", 50)})
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestExport_Empty(t *testing.T) {
	paths, err := export.NewCSV(t.TempDir()).Export(nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
