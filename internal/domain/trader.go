package domain

import "time"

// LatencyRisk indica lo difícil que es seguir a un trader a tiempo.
type LatencyRisk string

const (
	LatencyLow    LatencyRisk = "LOW"
	LatencyMedium LatencyRisk = "MEDIUM"
	LatencyHigh   LatencyRisk = "HIGH"
)

// Verdict es la recomendación final sobre un trader.
type Verdict string

const (
	VerdictStrong         Verdict = "STRONG"
	VerdictModerate       Verdict = "MODERATE"
	VerdictNotRecommended Verdict = "NOT_RECOMMENDED"
)

// LatencyProfile resume los gaps entre trades consecutivos.
type LatencyProfile struct {
	Risk          LatencyRisk
	MedianGapSecs float64
	RapidPct      float64 // % de gaps < 60s
	VeryRapidPct  float64 // % de gaps < 10s
}

// TraderMetrics es el agregado de todos los MarketResult de una wallet.
type TraderMetrics struct {
	Address string

	Score         float64
	ROI           float64
	AnnualizedROI float64
	WinRate       float64
	Sharpe        float64
	RecencyWeight float64
	Latency       LatencyProfile

	TotalPnL        float64
	CapitalDeployed float64
	Volume          float64

	TradeCount        int
	MarketCount       int
	ProfitableMarkets int
	LosingMarkets     int

	AvgBuyPrice      float64
	AvgTradeValue    float64
	MedianTradeValue float64

	ActiveDays   float64
	DaysInactive float64
	FirstTrade   time.Time
	LastTrade    time.Time

	ResolutionStats  ResolutionStats
	CurrentPositions []CurrentPosition
}

// TradesPerDay devuelve la frecuencia media de trades.
func (m TraderMetrics) TradesPerDay() float64 {
	if m.ActiveDays <= 0 {
		return float64(m.TradeCount)
	}
	return float64(m.TradeCount) / m.ActiveDays
}

// Candidate es una wallet a analizar, típicamente del leaderboard.
type Candidate struct {
	Address string
	PnL     float64
	Volume  float64
	Source  string // "leaderboard_week", "recent_trades_fallback", "cli"...
}

// TraderReport junta métricas, veredicto y estrategia de un trader elegible.
type TraderReport struct {
	Metrics  TraderMetrics
	Verdict  Verdict
	Strategy StrategyRecommendation
}

// RunSummary resume una ejecución del analizador.
type RunSummary struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Candidates      int
	Passed          int
	Filtered        int
	NoData          int
	ResolutionCache int
}
