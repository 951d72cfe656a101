package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReport(addr string, score float64, verdict domain.Verdict) domain.TraderReport {
	return domain.TraderReport{
		Metrics: domain.TraderMetrics{
			Address:         addr,
			Score:           score,
			ROI:             0.2,
			WinRate:         0.6,
			TotalPnL:        120,
			CapitalDeployed: 600,
			TradeCount:      40,
			MarketCount:     8,
			Latency:         domain.LatencyProfile{Risk: domain.LatencyLow},
			LastTrade:       time.Unix(1700000000, 0).UTC(),
		},
		Verdict:  verdict,
		Strategy: domain.StrategyRecommendation{Primary: domain.StrategyLimitFixed, SuggestedSize: 10},
	}
}

func makeSummary(id string) domain.RunSummary {
	now := time.Now().UTC()
	return domain.RunSummary{RunID: id, StartedAt: now.Add(-time.Minute), FinishedAt: now, Candidates: 3, Passed: 2}
}

func TestSQLiteStorage_SaveAndTopTraders(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.SaveRun(ctx, makeSummary("run-1"), []domain.TraderReport{
		makeReport("0xaaa", 24.0, domain.VerdictModerate),
		makeReport("0xbbb", 52.5, domain.VerdictStrong),
	})
	require.NoError(t, err)

	top, err := db.TopTraders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	// Ordenados por score desc
	assert.Equal(t, "0xbbb", top[0].Metrics.Address)
	assert.InDelta(t, 52.5, top[0].Metrics.Score, 0.001)
	assert.Equal(t, domain.VerdictStrong, top[0].Verdict)
	assert.Equal(t, domain.LatencyLow, top[0].Metrics.Latency.Risk)
	assert.Equal(t, domain.StrategyLimitFixed, top[0].Strategy.Primary)
	assert.Equal(t, int64(1700000000), top[0].Metrics.LastTrade.Unix())
	assert.Equal(t, "0xaaa", top[1].Metrics.Address)
}

func TestSQLiteStorage_TopTradersLimit(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveRun(ctx, makeSummary("r"), []domain.TraderReport{
		makeReport("0x1", 10, domain.VerdictModerate),
		makeReport("0x2", 20, domain.VerdictModerate),
		makeReport("0x3", 30, domain.VerdictModerate),
	}))

	top, err := db.TopTraders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0x3", top[0].Metrics.Address)
}

func TestSQLiteStorage_SaveEmptyRun(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	// Sin RunID se genera uno
	assert.NoError(t, db.SaveRun(context.Background(), domain.RunSummary{}, nil))
	assert.NoError(t, db.SaveRun(context.Background(), domain.RunSummary{}, nil))

	top, err := db.TopTraders(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestSQLiteStorage_SmallScoreChangeSkipsWrite(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveRun(ctx, makeSummary("r1"), []domain.TraderReport{makeReport("0x1", 40, domain.VerdictStrong)}))
	// +1%: se queda el valor anterior
	require.NoError(t, db.SaveRun(ctx, makeSummary("r2"), []domain.TraderReport{makeReport("0x1", 40.4, domain.VerdictStrong)}))

	top, err := db.TopTraders(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.InDelta(t, 40.0, top[0].Metrics.Score, 0.001)

	// Cambio de veredicto: se reescribe aunque el score apenas cambie
	require.NoError(t, db.SaveRun(ctx, makeSummary("r3"), []domain.TraderReport{makeReport("0x1", 40.2, domain.VerdictModerate)}))
	top, err = db.TopTraders(ctx, 5)
	require.NoError(t, err)
	assert.InDelta(t, 40.2, top[0].Metrics.Score, 0.001)
	assert.Equal(t, domain.VerdictModerate, top[0].Verdict)
}

func TestSQLiteStorage_DuplicateRunIDFails(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveRun(ctx, makeSummary("same"), nil))
	assert.Error(t, db.SaveRun(ctx, makeSummary("same"), nil))
}

func TestSQLiteStorage_Resolutions(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, ok, err := db.GetResolution(ctx, "0xm")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SaveResolution(ctx, "0xm", domain.Resolved("tok_yes")))
	// insert-once: la segunda escritura no pisa la primera
	require.NoError(t, db.SaveResolution(ctx, "0xm", domain.Resolved("tok_no")))

	res, ok, err := db.GetResolution(ctx, "0xm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Resolved("tok_yes"), res)
}

func TestSQLiteStorage_ReopenKeepsResolutions(t *testing.T) {
	path := t.TempDir() + "/analyzer.db"
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveResolution(ctx, "0xm", domain.Resolved("")))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()

	res, ok, err := db.GetResolution(ctx, "0xm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.ResolutionResolved, res.Status)
	assert.Empty(t, res.WinningAssetID)
}
