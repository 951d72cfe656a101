package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica que el recurso no existe (404 o clave ausente).
	ErrNotFound = errors.New("not found")
	// ErrIneligible agrupa todos los rechazos de filtros del analizador.
	ErrIneligible = errors.New("trader ineligible")
	// ErrNoTrades indica que la wallet no tiene trades utilizables.
	ErrNoTrades = errors.New("no usable trades")
)

// Nombres de los filtros del analizador, en orden de evaluación.
const (
	FilterMinTrades      = "min_trades"
	FilterMinMarkets     = "min_markets"
	FilterMaxAvgBuyPrice = "max_avg_buy_price"
	FilterMaxAvgTrade    = "max_avg_trade"
	FilterCapital        = "capital_deployed"
	FilterDecidedMarkets = "decided_markets"
	FilterMinWinRate     = "min_win_rate"
	FilterMinROI         = "min_roi"
	FilterMinScore       = "min_score"
)

// IneligibleError es el rechazo tipado de un trader: qué filtro falló,
// el valor medido y el umbral aplicado.
type IneligibleError struct {
	Filter    string
	Value     float64
	Threshold float64
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("ineligible: %s (value=%.4f threshold=%.4f)", e.Filter, e.Value, e.Threshold)
}

// Is permite errors.Is(err, ErrIneligible).
func (e *IneligibleError) Is(target error) bool {
	return target == ErrIneligible
}

// Ineligible construye un IneligibleError.
func Ineligible(filter string, value, threshold float64) error {
	return &IneligibleError{Filter: filter, Value: value, Threshold: threshold}
}
