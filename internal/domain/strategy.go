package domain

import "math"

// OrderType es el tipo de orden recomendado para copiar a un trader.
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderHybrid OrderType = "hybrid"
	OrderMarket OrderType = "market"
)

// SizingMethod es el método de sizing recomendado.
type SizingMethod string

const (
	// SizingFixed: SuggestedSize es un importe en USDC por trade.
	SizingFixed SizingMethod = "fixed_amount"
	// SizingProportional: SuggestedSize es la fracción del trade original a copiar.
	SizingProportional SizingMethod = "pct_of_trade"
)

// Etiquetas de estrategia primaria.
const (
	StrategyLimitFixed         = "limit_fixed"
	StrategyLimitProportional  = "limit_proportional"
	StrategyMarketFixed        = "market_fixed"
	StrategyMarketProportional = "market_proportional"
	StrategyAdaptive           = "adaptive"
)

// StrategyRecommendation son los parámetros de copy-trading derivados de las
// métricas de un trader. No implica ejecución de órdenes.
type StrategyRecommendation struct {
	Primary              string
	OrderType            OrderType
	SizingMethod         SizingMethod
	SuggestedSize        float64
	MaxPositionPct       float64
	ExpectedTradesPerDay float64
	ExpectedDailyCapital float64
	Reasons              []string
	Warnings             []string
	Compounding          *CompoundingParams // nil si no aplica
}

// Umbrales de drawdown por defecto del overlay de compounding.
const (
	DefaultDrawdownHalve = 0.20
	DefaultDrawdownReset = 0.40
	DefaultDrawdownPause = 0.60
)

// CompoundingParams parametriza el overlay de compounding. Solo describe los
// parámetros; el seguimiento de PnL acumulado y pico entre trades es cosa del
// ejecutor, que este sistema no implementa.
type CompoundingParams struct {
	BaseSize            float64 // USDC
	ReinvestmentRate    float64
	TierIncrement       float64 // USDC de beneficio por tier
	SizeIncreasePerTier float64
	MaxMultiplier       float64

	// Drawdown desde el pico a partir del cual se reduce a la mitad, se
	// vuelve al tamaño base o se deja de copiar.
	DrawdownHalve float64
	DrawdownReset float64
	DrawdownPause float64
}

// Drawdown devuelve (peak-current)/peak. Solo está definido con peak > 0.
func (p CompoundingParams) Drawdown(peak, current float64) (float64, bool) {
	if peak <= 0 {
		return 0, false
	}
	return (peak - current) / peak, true
}

// Tier devuelve el tier alcanzado con el beneficio acumulado dado.
func (p CompoundingParams) Tier(cumulative float64) int {
	if cumulative <= 0 || p.TierIncrement <= 0 {
		return 0
	}
	return int(math.Floor(cumulative / p.TierIncrement))
}

// Multiplier devuelve el multiplicador de tamaño para un tier, con tope.
func (p CompoundingParams) Multiplier(tier int) float64 {
	return math.Min(1+float64(tier)*p.SizeIncreasePerTier, p.MaxMultiplier)
}

// EffectiveCapital devuelve base + beneficio reinvertido.
func (p CompoundingParams) EffectiveCapital(cumulative float64) float64 {
	if cumulative <= 0 {
		return p.BaseSize
	}
	return p.BaseSize + cumulative*p.ReinvestmentRate
}

// PositionSize aplica tiers y protección de drawdown. paused=true indica que
// hay que dejar de copiar al trader.
func (p CompoundingParams) PositionSize(cumulative, peak float64) (size float64, paused bool) {
	size = p.BaseSize
	if cumulative > 0 {
		size = p.EffectiveCapital(cumulative) * p.Multiplier(p.Tier(cumulative))
	}

	dd, ok := p.Drawdown(peak, cumulative)
	if !ok {
		return size, false
	}
	switch {
	case dd > p.DrawdownPause:
		return 0, true
	case dd > p.DrawdownReset:
		return p.BaseSize, false
	case dd > p.DrawdownHalve:
		return size * 0.5, false
	}
	return size, false
}
