package ledger_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockResolver struct {
	mu    sync.Mutex
	byMkt map[string]domain.Resolution
	calls []string
}

func newMockResolver(byMkt map[string]domain.Resolution) *mockResolver {
	return &mockResolver{byMkt: byMkt}
}

func (m *mockResolver) Resolve(_ context.Context, marketID, _ string) domain.Resolution {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, marketID)
	if r, ok := m.byMkt[marketID]; ok {
		return r
	}
	return domain.UnknownResolution()
}

// --- helpers ---

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func trade(market, asset string, side domain.Side, size, price float64, offset time.Duration) domain.NormalizedTrade {
	return domain.NormalizedTrade{
		Timestamp: t0.Add(offset),
		MarketID:  market,
		AssetID:   asset,
		Side:      side,
		Size:      size,
		Price:     price,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s %v", want, got, msg)
}

func scenarioTrades() []domain.NormalizedTrade {
	return []domain.NormalizedTrade{
		trade("m1", "tok_a", domain.SideBuy, 10, 0.40, 0),
		trade("m1", "tok_a", domain.SideBuy, 10, 0.60, time.Minute),
		trade("m1", "tok_a", domain.SideSell, 15, 0.70, 2*time.Minute),
	}
}

// --- scenarios ---

func TestBuild_UnresolvedMarksToLastPrice(t *testing.T) {
	eng := ledger.New(newMockResolver(map[string]domain.Resolution{"m1": domain.Unresolved()}))

	res := eng.Build(context.Background(), scenarioTrades())
	require.Len(t, res.Markets, 1)

	mr := res.Markets[0]
	assertDec(t, "3.5", mr.RealizedPnL)
	assertDec(t, "5", mr.RemainingShares)
	assertDec(t, "3", mr.RemainingCost)
	assertDec(t, "0.5", mr.UnrealizedPnL)
	assertDec(t, "4", mr.TotalPnL)
	assert.Equal(t, domain.StatusOpen, mr.Status)
	assert.Equal(t, 3, mr.TradeCount)
	assertDec(t, "20.5", mr.Volume) // 4 + 6 + 10.5

	require.Len(t, res.Positions, 1)
	pos := res.Positions[0]
	assert.InDelta(t, 5.0, pos.Size, 1e-12)
	assert.InDelta(t, 0.6, pos.AvgPrice, 1e-12)
	assert.InDelta(t, 3.5, pos.CurrentValue, 1e-12)
	assert.Equal(t, t0.Add(2*time.Minute), pos.LastTradeAt)
	assert.Equal(t, domain.ResolutionStats{Unresolved: 1}, res.Stats)
}

func TestBuild_ResolvedWinnerHeldToMaturity(t *testing.T) {
	eng := ledger.New(newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("tok_a")}))

	res := eng.Build(context.Background(), scenarioTrades())
	mr := res.Markets[0]

	assertDec(t, "2", mr.UnrealizedPnL)
	assertDec(t, "5.5", mr.TotalPnL)
	assert.Equal(t, domain.StatusWon, mr.Status)
	assert.Empty(t, res.Positions)
	assert.Equal(t, domain.ResolutionStats{Won: 1}, res.Stats)
}

func TestBuild_ResolvedLoser(t *testing.T) {
	eng := ledger.New(newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("tok_b")}))

	mr := eng.Build(context.Background(), scenarioTrades()).Markets[0]
	assertDec(t, "-3", mr.UnrealizedPnL)
	assertDec(t, "0.5", mr.TotalPnL)
	assert.Equal(t, domain.StatusLost, mr.Status)
}

func TestBuild_ResolvedWithoutWinnerIsLost(t *testing.T) {
	eng := ledger.New(newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("")}))

	mr := eng.Build(context.Background(), scenarioTrades()).Markets[0]
	assert.Equal(t, domain.StatusLost, mr.Status)
}

func TestBuild_ResolvedByLabel(t *testing.T) {
	eng := ledger.New(newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("YES")}))

	trades := []domain.NormalizedTrade{
		trade("m1", "Yes", domain.SideBuy, 10, 0.30, 0),
		trade("m1", "No", domain.SideBuy, 10, 0.65, time.Minute),
	}
	res := eng.Build(context.Background(), trades)
	require.Len(t, res.Markets, 2)

	// orden (mercado, asset): "No" < "Yes"
	no, yes := res.Markets[0], res.Markets[1]
	assert.Equal(t, domain.TokenNo, no.TokenClass)
	assert.Equal(t, domain.StatusLost, no.Status)
	assertDec(t, "-6.5", no.TotalPnL)

	assert.Equal(t, domain.TokenYes, yes.TokenClass)
	assert.Equal(t, domain.StatusWon, yes.Status)
	assertDec(t, "7", yes.TotalPnL)
}

func TestBuild_UnknownResolutionMarksToLastPrice(t *testing.T) {
	eng := ledger.New(newMockResolver(nil))

	res := eng.Build(context.Background(), scenarioTrades())
	mr := res.Markets[0]
	assertDec(t, "0.5", mr.UnrealizedPnL)
	assert.Equal(t, domain.StatusUnknown, mr.Status)
	assert.Empty(t, res.Positions)
	assert.Equal(t, domain.ResolutionStats{Unknown: 1}, res.Stats)
}

func TestBuild_NilResolverDegradesToUnknown(t *testing.T) {
	mr := ledger.New(nil).Build(context.Background(), scenarioTrades()).Markets[0]
	assert.Equal(t, domain.StatusUnknown, mr.Status)
	assertDec(t, "4", mr.TotalPnL)
}

// --- edge cases ---

func TestBuild_OversellAddsNoCost(t *testing.T) {
	eng := ledger.New(newMockResolver(nil))
	trades := []domain.NormalizedTrade{
		trade("m1", "a", domain.SideBuy, 5, 0.5, 0),
		trade("m1", "a", domain.SideSell, 8, 0.6, time.Minute),
	}

	mr := eng.Build(context.Background(), trades).Markets[0]
	assertDec(t, "2.3", mr.RealizedPnL) // 8×0.6 − 5×0.5
	assertDec(t, "0", mr.RemainingShares)
	assertDec(t, "0", mr.RemainingCost)
	assert.Equal(t, domain.StatusOpen, mr.Status)
}

func TestBuild_SellWithoutBuys(t *testing.T) {
	res := ledger.New(newMockResolver(nil)).Build(context.Background(), []domain.NormalizedTrade{
		trade("m1", "a", domain.SideSell, 4, 0.25, 0),
	})
	assertDec(t, "1", res.Markets[0].RealizedPnL)
	assert.Empty(t, res.Positions)
}

func TestBuild_DustSkipsResolver(t *testing.T) {
	r := newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("a")})
	trades := []domain.NormalizedTrade{
		trade("m1", "a", domain.SideBuy, 10.005, 0.5, 0),
		trade("m1", "a", domain.SideSell, 10, 0.6, time.Minute),
	}

	res := ledger.New(r).Build(context.Background(), trades)
	mr := res.Markets[0]
	assertDec(t, "0.005", mr.RemainingShares)
	assert.True(t, mr.UnrealizedPnL.IsZero())
	assert.Equal(t, domain.StatusOpen, mr.Status)
	assert.Empty(t, r.calls)
	assert.Empty(t, res.Positions)
	assert.Zero(t, res.Stats.Total())
}

func TestBuild_ExactlyAtThresholdIsDust(t *testing.T) {
	r := newMockResolver(nil)
	res := ledger.New(r).Build(context.Background(), []domain.NormalizedTrade{
		trade("m1", "a", domain.SideBuy, 0.01, 0.5, 0),
	})
	assert.Empty(t, r.calls)
	assert.Equal(t, domain.StatusOpen, res.Markets[0].Status)
}

func TestBuild_OrdersByTimestampThenArrival(t *testing.T) {
	r := newMockResolver(nil)

	// SELL llega antes pero ocurre después
	late := []domain.NormalizedTrade{
		trade("m1", "a", domain.SideSell, 10, 0.8, time.Hour),
		trade("m1", "a", domain.SideBuy, 10, 0.5, 0),
	}
	mr := ledger.New(r).Build(context.Background(), late).Markets[0]
	assertDec(t, "3", mr.RealizedPnL)
	assertDec(t, "0", mr.RemainingShares)

	// mismo timestamp: manda el orden de llegada
	sellFirst := []domain.NormalizedTrade{
		trade("m2", "a", domain.SideSell, 10, 0.8, 0),
		trade("m2", "a", domain.SideBuy, 10, 0.5, 0),
	}
	mr = ledger.New(r).Build(context.Background(), sellFirst).Markets[0]
	assertDec(t, "8", mr.RealizedPnL)
	assertDec(t, "10", mr.RemainingShares)
}

func TestBuild_GroupsSortedAndResolverKeyedByMarket(t *testing.T) {
	r := newMockResolver(map[string]domain.Resolution{"m1": domain.Unresolved(), "m2": domain.Unresolved()})
	trades := []domain.NormalizedTrade{
		trade("m2", "z", domain.SideBuy, 1, 0.5, 0),
		trade("m1", "b", domain.SideBuy, 1, 0.5, 0),
		trade("m1", "a", domain.SideBuy, 1, 0.5, 0),
	}

	res := ledger.New(r).Build(context.Background(), trades)
	require.Len(t, res.Markets, 3)
	assert.Equal(t, "m1", res.Markets[0].MarketID)
	assert.Equal(t, "a", res.Markets[0].AssetID)
	assert.Equal(t, "b", res.Markets[1].AssetID)
	assert.Equal(t, "m2", res.Markets[2].MarketID)
	assert.Equal(t, []string{"m1", "m1", "m2"}, r.calls)
}

func TestBuild_PanicsOnNonPositiveSize(t *testing.T) {
	assert.Panics(t, func() {
		ledger.New(nil).Build(context.Background(), []domain.NormalizedTrade{
			trade("m1", "a", domain.SideBuy, -1, 0.5, 0),
		})
	})
}

// --- properties ---

func TestBuild_FIFOConservationAndPnLIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	eng := ledger.New(newMockResolver(nil))

	for iter := 0; iter < 200; iter++ {
		var (
			trades  []domain.NormalizedTrade
			held    = decimal.Zero
			revenue = decimal.Zero
			spent   = decimal.Zero
		)
		n := 1 + rng.Intn(20)
		for i := 0; i < n; i++ {
			size := float64(1+rng.Intn(100)) / 4
			price := float64(1+rng.Intn(99)) / 100
			side := domain.SideBuy
			sz := decimal.NewFromFloat(size)
			if held.GreaterThanOrEqual(sz) && rng.Intn(2) == 0 {
				side = domain.SideSell
				held = held.Sub(sz)
				revenue = revenue.Add(sz.Mul(decimal.NewFromFloat(price)))
			} else {
				held = held.Add(sz)
				spent = spent.Add(sz.Mul(decimal.NewFromFloat(price)))
			}
			trades = append(trades, trade("m", "a", side, size, price, time.Duration(i)*time.Second))
		}

		mr := eng.Build(context.Background(), trades).Markets[0]
		assertDec(t, held.String(), mr.RemainingShares, "iter", iter)
		assert.True(t, mr.RemainingShares.GreaterThanOrEqual(decimal.Zero))
		assert.True(t, mr.RemainingCost.GreaterThanOrEqual(decimal.Zero))
		assert.True(t, mr.RealizedPnL.Add(mr.UnrealizedPnL).Equal(mr.TotalPnL))

		if mr.RemainingShares.IsZero() {
			assertDec(t, revenue.Sub(spent).String(), mr.TotalPnL, "iter", iter)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	trades := append(scenarioTrades(),
		trade("m2", "b", domain.SideBuy, 3, 0.2, time.Hour),
		trade("m0", "c", domain.SideBuy, 7, 0.9, 2*time.Hour),
	)
	r := newMockResolver(map[string]domain.Resolution{"m1": domain.Resolved("tok_a"), "m2": domain.Unresolved()})

	first := ledger.New(r).Build(context.Background(), trades)
	second := ledger.New(r).Build(context.Background(), trades)
	assert.Equal(t, first, second)
}
