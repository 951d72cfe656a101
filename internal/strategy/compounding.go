package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const compoundingMinWinRate = 0.60

// compoundingTier son los parámetros del overlay para un rango de win rate.
type compoundingTier struct {
	minWinRate    float64
	basePct       float64
	reinvest      float64
	tierStep      float64
	increase      float64
	maxMultiplier float64
}

// Ordenados de más a menos exigente.
var compoundingTiers = []compoundingTier{
	{minWinRate: 0.75, basePct: 0.05, reinvest: 0.60, tierStep: 15, increase: 0.30, maxMultiplier: 5},
	{minWinRate: 0.65, basePct: 0.04, reinvest: 0.50, tierStep: 20, increase: 0.25, maxMultiplier: 4},
	{minWinRate: 0.60, basePct: 0.03, reinvest: 0.40, tierStep: 25, increase: 0.20, maxMultiplier: 3},
}

// compounding devuelve los parámetros del overlay o nil si el trader no es
// lo bastante consistente (win rate < 60% o sharpe <= 0).
func compounding(in input, rec *domain.StrategyRecommendation) *domain.CompoundingParams {
	if in.m.WinRate < compoundingMinWinRate || in.m.Sharpe <= 0 {
		return nil
	}

	for _, t := range compoundingTiers {
		if in.m.WinRate < t.minWinRate {
			continue
		}
		p := &domain.CompoundingParams{
			BaseSize:            math.Round(in.balance*t.basePct*100) / 100,
			ReinvestmentRate:    t.reinvest,
			TierIncrement:       t.tierStep,
			SizeIncreasePerTier: t.increase,
			MaxMultiplier:       t.maxMultiplier,
			DrawdownHalve:       domain.DefaultDrawdownHalve,
			DrawdownReset:       domain.DefaultDrawdownReset,
			DrawdownPause:       domain.DefaultDrawdownPause,
		}
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("COMPOUNDING recommended: %.0f%% win rate with positive Sharpe", in.m.WinRate*100),
			fmt.Sprintf("  Start: $%.2f, compound %.0f%% of profits, up to %.0fx max",
				p.BaseSize, p.ReinvestmentRate*100, p.MaxMultiplier),
		)
		return p
	}
	return nil
}
