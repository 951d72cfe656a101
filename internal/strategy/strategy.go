// Package strategy deriva parámetros de copy-trading a partir de las métricas
// de un trader. Cada paso es una tabla de reglas evaluada en orden; gana la
// primera que aplica.
package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	minLimitOrder  = 0.01
	minMarketOrder = 1.0
	minFixedOnDust = 2.0
	dustTradeValue = 2.0
	// ratio usado cuando el trader no tiene capital desplegado
	zeroCapitalRatio = 0.01
)

// input es lo que las reglas necesitan de las métricas y del portfolio.
type input struct {
	m        domain.TraderMetrics
	balance  float64
	ratio    float64 // balance / capital del trader
	avgTrade float64
}

// Recommend es una función pura de las métricas y el balance del portfolio.
func Recommend(m domain.TraderMetrics, portfolioBalance float64) domain.StrategyRecommendation {
	in := input{
		m:        m,
		balance:  portfolioBalance,
		ratio:    zeroCapitalRatio,
		avgTrade: m.AvgTradeValue,
	}
	if m.CapitalDeployed > 0 {
		in.ratio = portfolioBalance / m.CapitalDeployed
	}

	var rec domain.StrategyRecommendation
	applyOrderType(in, &rec)
	applySizing(in, &rec)
	applyMinimums(&rec)
	applyPositionLimit(in, &rec)
	applyFrequency(in, &rec)
	applyLabel(&rec)
	rec.Compounding = compounding(in, &rec)
	return rec
}

// --- 1. tipo de orden ---

type orderRule struct {
	risk    domain.LatencyRisk
	order   domain.OrderType
	reason  string
	warning string
}

var orderRules = []orderRule{
	{domain.LatencyHigh, domain.OrderLimit,
		"HIGH latency risk - use limit orders to avoid chasing prices",
		"Many trades may not fill - expect lower trade frequency"},
	{domain.LatencyMedium, domain.OrderHybrid,
		"MEDIUM latency risk - use limit orders for rapid trades, market for slower ones", ""},
}

var defaultOrderRule = orderRule{
	order:  domain.OrderMarket,
	reason: "LOW latency risk - market orders are viable",
}

func applyOrderType(in input, rec *domain.StrategyRecommendation) {
	rule := defaultOrderRule
	for _, r := range orderRules {
		if r.risk == in.m.Latency.Risk {
			rule = r
			break
		}
	}
	rec.OrderType = rule.order
	rec.Reasons = append(rec.Reasons, rule.reason)
	if rule.warning != "" {
		rec.Warnings = append(rec.Warnings, rule.warning)
	}
}

// --- 2. sizing ---

type sizingRule struct {
	name  string
	when  func(input) bool
	apply func(input, *domain.StrategyRecommendation)
}

var sizingRules = []sizingRule{
	{
		name: "large_trades",
		when: func(in input) bool { return in.avgTrade > in.balance*0.4 },
		apply: func(in input, rec *domain.StrategyRecommendation) {
			rec.SizingMethod = domain.SizingFixed
			rec.SuggestedSize = math.Max(minMarketOrder, in.balance*fixedSizePct(in.m.WinRate))
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("Trader avg trade ($%.0f) > 40%% of your portfolio - use fixed sizing", in.avgTrade))
		},
	},
	{
		name: "similar_capital",
		when: func(in input) bool { return in.ratio > 0.5 && in.ratio < 2.0 },
		apply: func(in input, rec *domain.StrategyRecommendation) {
			rec.SizingMethod = domain.SizingProportional
			rec.SuggestedSize = math.Min(1.0, in.ratio)
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("Similar capital to trader - copy %.0f%% of each trade", rec.SuggestedSize*100))
		},
	},
	{
		name: "larger_trader",
		when: func(in input) bool { return in.ratio <= 0.5 },
		apply: func(in input, rec *domain.StrategyRecommendation) {
			est := in.avgTrade * in.ratio
			if est < dustTradeValue {
				rec.SizingMethod = domain.SizingFixed
				rec.SuggestedSize = math.Max(minFixedOnDust, in.balance*fixedSizePct(in.m.WinRate))
				rec.Reasons = append(rec.Reasons,
					fmt.Sprintf("Proportional copy would be too small ($%.2f) - using fixed size", est))
				return
			}
			rec.SizingMethod = domain.SizingProportional
			rec.SuggestedSize = in.ratio
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("Trader has %.1fx your capital - scale down proportionally", 1/in.ratio))
		},
	},
}

var defaultSizingRule = sizingRule{
	name: "smaller_trader",
	apply: func(in input, rec *domain.StrategyRecommendation) {
		rec.SizingMethod = domain.SizingFixed
		rec.SuggestedSize = math.Min(in.avgTrade, in.balance*0.05)
		rec.Reasons = append(rec.Reasons, "You have more capital than trader - match their trade sizes")
	},
}

func applySizing(in input, rec *domain.StrategyRecommendation) {
	for _, r := range sizingRules {
		if r.when(in) {
			r.apply(in, rec)
			return
		}
	}
	defaultSizingRule.apply(in, rec)
}

// fixedSizePct es 5% del portfolio más 0.4 por cada punto de win rate sobre 50%.
func fixedSizePct(winRate float64) float64 {
	return 0.05 + math.Max(0, winRate-0.5)*0.4
}

// --- 3. mínimos por tipo de orden ---

func applyMinimums(rec *domain.StrategyRecommendation) {
	fixed := rec.SizingMethod == domain.SizingFixed
	if rec.OrderType == domain.OrderLimit {
		if fixed && rec.SuggestedSize < minLimitOrder {
			rec.SuggestedSize = minLimitOrder
		}
		rec.Reasons = append(rec.Reasons, "Limit orders allow smaller sizes ($0.01 min)")
		return
	}
	// market e hybrid comparten el mínimo de $1
	if fixed && rec.SuggestedSize < minMarketOrder {
		rec.SuggestedSize = minMarketOrder
		rec.Warnings = append(rec.Warnings, "Minimum $1 per market order - may over-expose on small trades")
	}
}

// --- 4. posición máxima ---

type positionRule struct {
	when   func(m domain.TraderMetrics) bool
	pct    float64
	reason string
}

var positionRules = []positionRule{
	{func(m domain.TraderMetrics) bool { return m.Sharpe > 1.0 && m.WinRate > 0.6 }, 25,
		"Elite metrics - allow up to 25% per position"},
	{func(m domain.TraderMetrics) bool { return m.WinRate > 0.7 }, 30,
		"Win rate > 70% - allow up to 30% per position"},
	{func(m domain.TraderMetrics) bool { return m.Sharpe > 0.5 && m.WinRate > 0.55 }, 15, ""},
	{func(m domain.TraderMetrics) bool { return m.Sharpe > 0 && m.WinRate > 0.52 }, 10, ""},
}

func applyPositionLimit(in input, rec *domain.StrategyRecommendation) {
	for _, r := range positionRules {
		if r.when(in.m) {
			rec.MaxPositionPct = r.pct
			if r.reason != "" {
				rec.Reasons = append(rec.Reasons, r.reason)
			}
			return
		}
	}
	rec.MaxPositionPct = 5
	rec.Warnings = append(rec.Warnings, "Conservative sizing due to modest risk metrics")
}

// --- 5. frecuencia y capital diario ---

func applyFrequency(in input, rec *domain.StrategyRecommendation) {
	if in.m.ActiveDays <= 0 {
		return
	}
	perDay := in.m.TradesPerDay()
	rec.ExpectedTradesPerDay = perDay

	if rec.SizingMethod == domain.SizingFixed {
		rec.ExpectedDailyCapital = perDay * rec.SuggestedSize
	} else {
		rec.ExpectedDailyCapital = perDay * in.avgTrade * rec.SuggestedSize
	}

	if rec.ExpectedDailyCapital > in.balance*0.5 {
		rec.Warnings = append(rec.Warnings,
			fmt.Sprintf("High daily capital usage ($%.0f) - consider reducing size", rec.ExpectedDailyCapital))
	}
}

// --- 6. etiqueta ---

type labelKey struct {
	order  domain.OrderType
	sizing domain.SizingMethod
}

var labels = map[labelKey]string{
	{domain.OrderLimit, domain.SizingFixed}:         domain.StrategyLimitFixed,
	{domain.OrderLimit, domain.SizingProportional}:  domain.StrategyLimitProportional,
	{domain.OrderMarket, domain.SizingFixed}:        domain.StrategyMarketFixed,
	{domain.OrderMarket, domain.SizingProportional}: domain.StrategyMarketProportional,
}

func applyLabel(rec *domain.StrategyRecommendation) {
	if rec.OrderType == domain.OrderHybrid {
		rec.Primary = domain.StrategyAdaptive
		rec.Reasons = append(rec.Reasons, "Use market orders when gap > 60s, limit orders otherwise")
		return
	}
	rec.Primary = labels[labelKey{rec.OrderType, rec.SizingMethod}]
}

// Code devuelve la letra corta de una estrategia para la consola.
func Code(primary string) string {
	switch primary {
	case domain.StrategyMarketProportional:
		return "A"
	case domain.StrategyMarketFixed:
		return "B"
	case domain.StrategyLimitProportional:
		return "C"
	case domain.StrategyLimitFixed:
		return "D"
	case domain.StrategyAdaptive:
		return "E"
	}
	return "?"
}

// CompoundingCode es la letra del overlay de compounding.
const CompoundingCode = "G"
