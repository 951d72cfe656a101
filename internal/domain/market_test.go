package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMarketResult_Decided(t *testing.T) {
	assert.True(t, MarketResult{TotalPnL: decimal.RequireFromString("0.01")}.Decided())
	assert.True(t, MarketResult{TotalPnL: decimal.RequireFromString("-2")}.Decided())
	assert.False(t, MarketResult{TotalPnL: decimal.Zero}.Decided())
	assert.False(t, MarketResult{}.Decided())
}

func TestTraderMetrics_TradesPerDay(t *testing.T) {
	assert.InDelta(t, 2.5, TraderMetrics{TradeCount: 25, ActiveDays: 10}.TradesPerDay(), 1e-9)
	assert.InDelta(t, 7.0, TraderMetrics{TradeCount: 7}.TradesPerDay(), 1e-9)
}
