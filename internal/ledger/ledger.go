// Package ledger replays a wallet's trades through per-(market, asset) FIFO
// lot queues and values what is still held using market resolutions.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"github.com/shopspring/decimal"
)

// MaterialityThreshold is the share count at or below which a remaining
// position is treated as dust: no valuation and no resolver call.
var MaterialityThreshold = decimal.RequireFromString("0.01")

var one = decimal.NewFromInt(1)

// Result is the ledger output for one wallet.
type Result struct {
	Markets   []domain.MarketResult
	Positions []domain.CurrentPosition
	Stats     domain.ResolutionStats
}

// Engine builds ledgers. It is stateless apart from the injected resolver
// and safe for concurrent use if the resolver is.
type Engine struct {
	resolver ports.Resolver
}

// New creates an Engine. A nil resolver values every held position as Unknown.
func New(resolver ports.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

type groupKey struct {
	market string
	asset  string
}

// Build replays trades grouped by (market, asset). Groups are emitted in
// lexicographic (market, asset) order; trades inside a group are replayed by
// ascending timestamp with ties kept in arrival order.
//
// It panics if a trade with a non-positive size reaches it: Normalize never
// produces one.
func (e *Engine) Build(ctx context.Context, trades []domain.NormalizedTrade) Result {
	groups := make(map[groupKey][]domain.NormalizedTrade)
	for _, t := range trades {
		if t.Size <= 0 {
			panic(fmt.Sprintf("ledger: non-positive size %v in market %s", t.Size, t.MarketID))
		}
		k := groupKey{market: t.MarketID, asset: t.AssetID}
		groups[k] = append(groups[k], t)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].market != keys[j].market {
			return keys[i].market < keys[j].market
		}
		return keys[i].asset < keys[j].asset
	})

	var res Result
	res.Markets = make([]domain.MarketResult, 0, len(keys))
	for _, k := range keys {
		mr := replay(k, groups[k])
		if mr.RemainingShares.GreaterThan(MaterialityThreshold) {
			e.value(ctx, &mr, &res.Stats)
			if mr.Status == domain.StatusOpen {
				res.Positions = append(res.Positions, currentPosition(mr))
			}
		}
		res.Markets = append(res.Markets, mr)
	}
	return res
}

// replay runs the FIFO matching for a single group and returns the result
// with realized PnL only.
func replay(k groupKey, trades []domain.NormalizedTrade) domain.MarketResult {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})

	var (
		q        queue
		realized decimal.Decimal
		volume   decimal.Decimal
		last     domain.NormalizedTrade
	)
	for _, t := range trades {
		size := decimal.NewFromFloat(t.Size)
		price := decimal.NewFromFloat(t.Price)
		volume = volume.Add(size.Mul(price))

		switch t.Side {
		case domain.SideBuy:
			q.push(size, price)
		case domain.SideSell:
			cost := q.consume(size)
			realized = realized.Add(size.Mul(price).Sub(cost))
		}
		last = t
	}

	shares, cost := q.totals()
	return domain.MarketResult{
		MarketID:        k.market,
		AssetID:         k.asset,
		TokenClass:      domain.ClassifyToken(k.asset),
		RealizedPnL:     realized,
		TotalPnL:        realized,
		RemainingShares: shares,
		RemainingCost:   cost,
		Status:          domain.StatusOpen,
		Volume:          volume,
		TradeCount:      len(trades),
		LastPrice:       decimal.NewFromFloat(last.Price),
		LastTradeAt:     last.Timestamp,
	}
}

// value asks the resolver about the group's market and sets unrealized PnL
// and status. Resolver failures arrive as Unknown and fall back to the last
// trade price.
func (e *Engine) value(ctx context.Context, mr *domain.MarketResult, stats *domain.ResolutionStats) {
	r := domain.UnknownResolution()
	if e.resolver != nil {
		r = e.resolver.Resolve(ctx, mr.MarketID, mr.AssetID)
	}

	markToLast := mr.RemainingShares.Mul(mr.LastPrice).Sub(mr.RemainingCost)
	switch r.Status {
	case domain.ResolutionResolved:
		if r.Wins(mr.AssetID, mr.TokenClass) {
			mr.UnrealizedPnL = mr.RemainingShares.Mul(one).Sub(mr.RemainingCost)
			mr.Status = domain.StatusWon
			stats.Won++
		} else {
			mr.UnrealizedPnL = mr.RemainingCost.Neg()
			mr.Status = domain.StatusLost
			stats.Lost++
		}
	case domain.ResolutionUnresolved:
		mr.UnrealizedPnL = markToLast
		mr.Status = domain.StatusOpen
		stats.Unresolved++
	default:
		mr.UnrealizedPnL = markToLast
		mr.Status = domain.StatusUnknown
		stats.Unknown++
	}
	mr.TotalPnL = mr.RealizedPnL.Add(mr.UnrealizedPnL)
}

func currentPosition(mr domain.MarketResult) domain.CurrentPosition {
	return domain.CurrentPosition{
		MarketID:     mr.MarketID,
		AssetID:      mr.AssetID,
		TokenClass:   mr.TokenClass,
		Size:         mr.RemainingShares.InexactFloat64(),
		AvgPrice:     mr.RemainingCost.Div(mr.RemainingShares).InexactFloat64(),
		CurrentValue: mr.UnrealizedPnL.Add(mr.RemainingCost).InexactFloat64(),
		LastTradeAt:  mr.LastTradeAt,
	}
}
