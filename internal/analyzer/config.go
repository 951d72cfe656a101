package analyzer

// Config contiene los umbrales de elegibilidad del analizador.
type Config struct {
	// MinTrades descarta wallets con menos trades válidos.
	MinTrades int
	// MinWinRate descarta wallets con win rate menor (mercados con PnL 0 no cuentan).
	MinWinRate float64
	// MinMarkets descarta wallets que operan en pocos mercados distintos.
	MinMarkets int
	// MaxAvgTradeSize descarta ballenas (USDC medio por trade).
	MaxAvgTradeSize float64
	// MaxAvgBuyPrice descarta scalpers que compran casi a 1.
	MaxAvgBuyPrice float64
	// MinROI es el ROI mínimo, relajado según win rate.
	MinROI float64
	// MinScore es el score compuesto mínimo.
	MinScore float64
	// RecencyHalfLifeDays es la vida media del decaimiento por inactividad.
	RecencyHalfLifeDays float64
}

// DefaultConfig devuelve los umbrales por defecto.
func DefaultConfig() Config {
	return Config{
		MinTrades:           10,
		MinWinRate:          0.50,
		MinMarkets:          3,
		MaxAvgTradeSize:     5000,
		MaxAvgBuyPrice:      0.98,
		MinROI:              0.05,
		MinScore:            5,
		RecencyHalfLifeDays: 30,
	}
}

// VerdictThresholds define los cortes del veredicto final.
type VerdictThresholds struct {
	StrongScore     float64
	StrongWinRate   float64
	ModerateScore   float64
	ModerateWinRate float64
}

// DefaultVerdictThresholds devuelve los cortes por defecto.
func DefaultVerdictThresholds() VerdictThresholds {
	return VerdictThresholds{
		StrongScore:     40,
		StrongWinRate:   0.55,
		ModerateScore:   25,
		ModerateWinRate: 0.52,
	}
}
