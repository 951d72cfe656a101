package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketStatus es el estado final de un grupo (mercado, asset) tras el ledger.
type MarketStatus string

const (
	StatusOpen    MarketStatus = "open"
	StatusWon     MarketStatus = "won"
	StatusLost    MarketStatus = "lost"
	StatusUnknown MarketStatus = "unknown"
)

// MarketResult es el resultado del ledger FIFO para un grupo (mercado, asset).
// Los importes van en decimal para no acumular error en el split de lotes.
type MarketResult struct {
	MarketID        string
	AssetID         string
	TokenClass      TokenClass
	RealizedPnL     decimal.Decimal
	UnrealizedPnL   decimal.Decimal
	TotalPnL        decimal.Decimal
	RemainingShares decimal.Decimal
	RemainingCost   decimal.Decimal
	Status          MarketStatus
	Volume          decimal.Decimal // Σ size × price de todos los trades del grupo
	TradeCount      int
	LastPrice       decimal.Decimal
	LastTradeAt     time.Time
}

// Decided devuelve true si el grupo tuvo PnL distinto de cero.
// Los grupos con PnL cero no cuentan ni como ganadores ni como perdedores.
func (r MarketResult) Decided() bool {
	return !r.TotalPnL.IsZero()
}

// CurrentPosition es una posición abierta (status=open) al final del replay.
type CurrentPosition struct {
	MarketID     string
	AssetID      string
	TokenClass   TokenClass
	Size         float64
	AvgPrice     float64
	CurrentValue float64 // unrealized + coste restante
	LastTradeAt  time.Time
}

// ResolutionStats cuenta los grupos valorados por estado de resolución.
// Los grupos con shares por debajo del umbral de materialidad no se cuentan.
type ResolutionStats struct {
	Won        int `json:"won"`
	Lost       int `json:"lost"`
	Unresolved int `json:"unresolved"`
	Unknown    int `json:"unknown"`
}

// Total devuelve la suma de todos los contadores.
func (s ResolutionStats) Total() int {
	return s.Won + s.Lost + s.Unresolved + s.Unknown
}
