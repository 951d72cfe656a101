package domain

import (
	"math"
	"sort"
	"time"
)

const (
	// MaxAnnualizedROI limita el ROI anualizado a 2000%.
	MaxAnnualizedROI = 20.0
	// MinRecencyWeight es el suelo del decaimiento por inactividad.
	MinRecencyWeight = 0.05
	// SingleTradeGapSecs es el gap sintético cuando solo hay un trade (1 día).
	SingleTradeGapSecs = 86400.0

	minAnnualizeDays = 7.0
	rapidGap         = 60 * time.Second
	veryRapidGap     = 10 * time.Second
)

// RecencyWeight calcula exp(-ln2 × díasInactivo / halfLife) con suelo 0.05.
func RecencyWeight(daysInactive, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 1
	}
	if daysInactive < 0 {
		daysInactive = 0
	}
	return math.Max(math.Exp(-math.Ln2*daysInactive/halfLifeDays), MinRecencyWeight)
}

// AnnualizeROI devuelve (1+roi)^(365/activeDays) - 1 con tope MaxAnnualizedROI.
// Solo anualiza con roi > 0 y al menos 7 días activos; si no, devuelve roi.
func AnnualizeROI(roi, activeDays float64) float64 {
	if roi <= 0 || activeDays < minAnnualizeDays {
		return roi
	}
	return math.Min(math.Pow(1+roi, 365/activeDays)-1, MaxAnnualizedROI)
}

// SharpeRatio calcula media/desviación (poblacional) de los PnL por mercado.
// Devuelve 0 con menos de 2 mercados decididos, menos de 2 muestras o
// varianza nula.
func SharpeRatio(pnls []float64, decided int) float64 {
	if decided < 2 || len(pnls) < 2 {
		return 0
	}
	var sum float64
	for _, p := range pnls {
		sum += p
	}
	mean := sum / float64(len(pnls))

	var sq float64
	for _, p := range pnls {
		d := p - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(pnls)))
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std
}

// ClassifyLatency analiza los gaps entre trades consecutivos (ordenados por
// tiempo). HIGH si >10% de gaps <10s o >30% <60s; MEDIUM si >10% <60s.
func ClassifyLatency(timestamps []time.Time) LatencyProfile {
	if len(timestamps) < 2 {
		return LatencyProfile{Risk: LatencyLow, MedianGapSecs: SingleTradeGapSecs}
	}

	sorted := make([]time.Time, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]float64, 0, len(sorted)-1)
	var rapid, veryRapid int
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Sub(sorted[i-1])
		gaps = append(gaps, gap.Seconds())
		if gap < rapidGap {
			rapid++
		}
		if gap < veryRapidGap {
			veryRapid++
		}
	}

	p := LatencyProfile{
		MedianGapSecs: Median(gaps),
		RapidPct:      float64(rapid) / float64(len(gaps)),
		VeryRapidPct:  float64(veryRapid) / float64(len(gaps)),
	}
	switch {
	case p.VeryRapidPct > 0.10 || p.RapidPct > 0.30:
		p.Risk = LatencyHigh
	case p.RapidPct > 0.10:
		p.Risk = LatencyMedium
	default:
		p.Risk = LatencyLow
	}
	return p
}

// ScoreInputs son las entradas del score compuesto.
type ScoreInputs struct {
	ROI              float64
	WinRate          float64
	Sharpe           float64
	TradeCount       int
	MedianTradeValue float64
	RecencyWeight    float64
}

// CompositeScore calcula el score compuesto:
//
//	recency × (0.25·min(ROI×100, 200) + 0.25·winRate×100 + 0.20·max(sharpe, −2)×15
//	           + 0.15·log10(trades+1)×15 + 0.15·(100/(medianTrade+50))×20)
func CompositeScore(in ScoreInputs) float64 {
	roiPart := math.Min(in.ROI*100, 200) * 0.25
	winPart := in.WinRate * 100 * 0.25
	sharpePart := math.Max(in.Sharpe, -2) * 15 * 0.20
	activityPart := math.Log10(float64(in.TradeCount)+1) * 15 * 0.15
	followPart := (100 / (in.MedianTradeValue + 50)) * 20 * 0.15
	return in.RecencyWeight * (roiPart + winPart + sharpePart + activityPart + followPart)
}

// Median devuelve la mediana de xs (0 si está vacío). No modifica xs.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Mean devuelve la media de xs (0 si está vacío).
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
