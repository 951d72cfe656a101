package domain

import "time"

// RawTrade es un registro de trade tal como llega del gateway: claves y tipos
// heterogéneos según el endpoint (data-api, exports antiguos, fixtures).
type RawTrade map[string]any

// Side es el lado de un trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// UnknownID es el identificador que se usa cuando el registro no trae mercado o asset.
const UnknownID = "unknown"

// NormalizedTrade es la forma canónica de un trade. Se crea una sola vez en
// Normalize y no se modifica después.
type NormalizedTrade struct {
	Timestamp time.Time
	MarketID  string // condition id
	AssetID   string // token id del outcome
	Side      Side
	Size      float64 // shares, siempre > 0
	Price     float64 // en (0, 1]
}

// Notional devuelve size × price en USDC.
func (t NormalizedTrade) Notional() float64 {
	return t.Size * t.Price
}

// IsBuy devuelve true si el trade es una compra.
func (t NormalizedTrade) IsBuy() bool {
	return t.Side == SideBuy
}
