package polymarket_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alejandrodnm/polycopy/internal/adapters/polymarket"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient apunta las tres APIs al mismo servidor de test.
func newTestClient(srv *httptest.Server) *polymarket.Client {
	return polymarket.NewClient(srv.URL, srv.URL, srv.URL)
}

func serveJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestFetchWalletTrades_Fixture(t *testing.T) {
	body := fixture(t, "wallet_trades.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("user"))
		serveJSON(w, body)
	}))
	defer srv.Close()

	raws, err := newTestClient(srv).FetchWalletTrades(context.Background(), "0xabc", 500)
	require.NoError(t, err)
	require.Len(t, raws, 3)

	trades := domain.NormalizeAll(raws)
	require.Len(t, trades, 3)
	assert.Equal(t, "0xmarket1", trades[0].MarketID)
	assert.Equal(t, "tok_yes_1", trades[0].AssetID)
	assert.Equal(t, domain.SideSell, trades[1].Side)
	assert.InDelta(t, 0.3, trades[2].Price, 1e-9)
}

func TestFetchWalletTrades_Paginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		n := limit
		if offset == 100 {
			assert.Equal(t, 50, limit)
			n = 20
		}
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`{"timestamp": %d, "market": "m", "asset": "a", "side": "BUY", "size": 1, "price": 0.5}`, 1700000000+offset+i)
		}
		serveJSON(w, "["+strings.Join(items, ",")+"]")
	}))
	defer srv.Close()

	raws, err := newTestClient(srv).FetchWalletTrades(context.Background(), "0xabc", 150)
	require.NoError(t, err)
	assert.Len(t, raws, 120)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchWalletTrades_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	raws, err := newTestClient(srv).FetchWalletTrades(context.Background(), "0xabc", 100)
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestFetchWalletTrades_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad user", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchWalletTrades(context.Background(), "0xabc", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client error 400")
}

func TestFetchCandidates_Leaderboard(t *testing.T) {
	week := fixture(t, "leaderboard_week.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaderboard", r.URL.Path)
		switch r.URL.Query().Get("window") {
		case "week":
			serveJSON(w, week)
		case "month":
			http.NotFound(w, r)
		default:
			serveJSON(w, `[{"user": "0xaaaa000000000000000000000000000000000001", "pnl": 1, "volume": 1},
				{"user": "0xcccc000000000000000000000000000000000003", "pnl": 5, "volume": 50}]`)
		}
	}))
	defer srv.Close()

	cands, err := newTestClient(srv).FetchCandidates(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, cands, 3)

	assert.Equal(t, "0xaaaa000000000000000000000000000000000001", cands[0].Address)
	assert.InDelta(t, 1520.5, cands[0].PnL, 1e-9)
	assert.Equal(t, "leaderboard_week", cands[0].Source)
	assert.InDelta(t, 830.25, cands[1].PnL, 1e-9)
	assert.Equal(t, "0xcccc000000000000000000000000000000000003", cands[2].Address)
	assert.Equal(t, "leaderboard_all", cands[2].Source)
}

func TestFetchCandidates_FallbackToRecentTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/leaderboard":
			http.NotFound(w, r)
		case "/trades":
			assert.Empty(t, r.URL.Query().Get("user"))
			serveJSON(w, `[
				{"user": "0xA", "size": "10", "price": "0.5"},
				{"maker": "0xb", "size": 100, "price": 0.2},
				{"user": "0xa", "size": 2, "price": 0.5}
			]`)
		}
	}))
	defer srv.Close()

	cands, err := newTestClient(srv).FetchCandidates(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "0xb", cands[0].Address)
	assert.InDelta(t, 20.0, cands[0].Volume, 1e-9)
	assert.Equal(t, "0xa", cands[1].Address)
	assert.InDelta(t, 6.0, cands[1].Volume, 1e-9)
	assert.Equal(t, "recent_trades_fallback", cands[1].Source)
}
