package analyzer

import (
	"context"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ledger"
	"github.com/alejandrodnm/polycopy/internal/ports"
)

const secondsPerDay = 86400.0

// Analyzer convierte el historial de una wallet en TraderMetrics.
type Analyzer struct {
	cfg    Config
	engine *ledger.Engine
}

// New crea un Analyzer. El resolver se comparte entre todas las wallets de
// una ejecución.
func New(cfg Config, resolver ports.Resolver) *Analyzer {
	return &Analyzer{cfg: cfg, engine: ledger.New(resolver)}
}

// Config devuelve los umbrales en uso.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze aplica los filtros en orden y calcula las métricas. Los filtros
// baratos van antes de construir el ledger, que es el que consulta el
// resolver. Un rechazo se devuelve como *domain.IneligibleError.
// now se usa solo para la inactividad y el peso de recencia.
func (a *Analyzer) Analyze(ctx context.Context, address string, raw []domain.RawTrade, now time.Time) (domain.TraderMetrics, error) {
	trades := domain.NormalizeAll(raw)

	if len(trades) < a.cfg.MinTrades {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMinTrades, float64(len(trades)), float64(a.cfg.MinTrades))
	}

	markets := distinctMarkets(trades)
	if markets < a.cfg.MinMarkets {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMinMarkets, float64(markets), float64(a.cfg.MinMarkets))
	}

	act := summarize(trades)
	if act.avgBuyPrice > a.cfg.MaxAvgBuyPrice {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMaxAvgBuyPrice, act.avgBuyPrice, a.cfg.MaxAvgBuyPrice)
	}
	if act.avgTrade > a.cfg.MaxAvgTradeSize {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMaxAvgTrade, act.avgTrade, a.cfg.MaxAvgTradeSize)
	}
	if act.capital <= 0 {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterCapital, act.capital, 0)
	}

	book := a.engine.Build(ctx, trades)

	var (
		profitable, losing int
		totalPnL, volume   float64
		pnls               = make([]float64, 0, len(book.Markets))
	)
	for _, mr := range book.Markets {
		pnl := mr.TotalPnL.InexactFloat64()
		if mr.Decided() {
			if mr.TotalPnL.IsPositive() {
				profitable++
			} else {
				losing++
			}
		}
		totalPnL += pnl
		volume += mr.Volume.InexactFloat64()
		pnls = append(pnls, pnl)
	}

	decided := profitable + losing
	if decided == 0 {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterDecidedMarkets, 0, 1)
	}

	winRate := float64(profitable) / float64(decided)
	if winRate < a.cfg.MinWinRate {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMinWinRate, winRate, a.cfg.MinWinRate)
	}

	roi := totalPnL / act.capital
	if floor := a.effectiveMinROI(winRate); roi < floor {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMinROI, roi, floor)
	}

	sharpe := domain.SharpeRatio(pnls, decided)

	activeDays := max(act.last.Sub(act.first).Seconds()/secondsPerDay, 1)
	daysInactive := now.Sub(act.last).Seconds() / secondsPerDay
	recency := domain.RecencyWeight(daysInactive, a.cfg.RecencyHalfLifeDays)

	score := domain.CompositeScore(domain.ScoreInputs{
		ROI:              roi,
		WinRate:          winRate,
		Sharpe:           sharpe,
		TradeCount:       len(trades),
		MedianTradeValue: act.medianTrade,
		RecencyWeight:    recency,
	})
	if score < a.cfg.MinScore {
		return domain.TraderMetrics{}, domain.Ineligible(domain.FilterMinScore, score, a.cfg.MinScore)
	}

	return domain.TraderMetrics{
		Address:           address,
		Score:             score,
		ROI:               roi,
		AnnualizedROI:     domain.AnnualizeROI(roi, activeDays),
		WinRate:           winRate,
		Sharpe:            sharpe,
		RecencyWeight:     recency,
		Latency:           domain.ClassifyLatency(act.timestamps),
		TotalPnL:          totalPnL,
		CapitalDeployed:   act.capital,
		Volume:            volume,
		TradeCount:        len(trades),
		MarketCount:       markets,
		ProfitableMarkets: profitable,
		LosingMarkets:     losing,
		AvgBuyPrice:       act.avgBuyPrice,
		AvgTradeValue:     act.avgTrade,
		MedianTradeValue:  act.medianTrade,
		ActiveDays:        activeDays,
		DaysInactive:      daysInactive,
		FirstTrade:        act.first,
		LastTrade:         act.last,
		ResolutionStats:   book.Stats,
		CurrentPositions:  book.Positions,
	}, nil
}

// effectiveMinROI relaja el ROI mínimo para win rates altos.
func (a *Analyzer) effectiveMinROI(winRate float64) float64 {
	switch {
	case winRate >= 0.90:
		return 0
	case winRate >= 0.80:
		return a.cfg.MinROI * 0.25
	case winRate >= 0.70:
		return a.cfg.MinROI * 0.5
	default:
		return a.cfg.MinROI
	}
}

// activity son las estadísticas baratas que se calculan antes del ledger.
type activity struct {
	avgBuyPrice float64
	avgTrade    float64
	medianTrade float64
	capital     float64
	first, last time.Time
	timestamps  []time.Time
}

func summarize(trades []domain.NormalizedTrade) activity {
	var (
		act       activity
		buyPrices []float64
		notionals = make([]float64, 0, len(trades))
	)
	act.timestamps = make([]time.Time, 0, len(trades))
	for i, t := range trades {
		n := t.Notional()
		notionals = append(notionals, n)
		if t.IsBuy() {
			buyPrices = append(buyPrices, t.Price)
			act.capital += n
		}
		if i == 0 || t.Timestamp.Before(act.first) {
			act.first = t.Timestamp
		}
		if i == 0 || t.Timestamp.After(act.last) {
			act.last = t.Timestamp
		}
		act.timestamps = append(act.timestamps, t.Timestamp)
	}

	act.avgBuyPrice = 1.0
	if len(buyPrices) > 0 {
		act.avgBuyPrice = domain.Mean(buyPrices)
	}
	act.avgTrade = domain.Mean(notionals)
	act.medianTrade = domain.Median(notionals)
	return act
}

func distinctMarkets(trades []domain.NormalizedTrade) int {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		seen[t.MarketID] = struct{}{}
	}
	return len(seen)
}

// Verdict clasifica un trader elegible.
func Verdict(m domain.TraderMetrics, th VerdictThresholds) domain.Verdict {
	switch {
	case m.Score >= th.StrongScore && m.WinRate >= th.StrongWinRate && m.Sharpe > 0:
		return domain.VerdictStrong
	case m.Score >= th.ModerateScore && m.WinRate >= th.ModerateWinRate:
		return domain.VerdictModerate
	default:
		return domain.VerdictNotRecommended
	}
}
