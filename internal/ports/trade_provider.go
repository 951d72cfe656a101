package ports

import (
	"context"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// TradeProvider obtiene el historial de trades de una wallet.
type TradeProvider interface {
	// FetchWalletTrades pagina hasta limit trades (0 = sin límite) en el orden
	// que devuelve el gateway.
	FetchWalletTrades(ctx context.Context, address string, limit int) ([]domain.RawTrade, error)
}

// CandidateProvider obtiene wallets candidatas a analizar.
type CandidateProvider interface {
	FetchCandidates(ctx context.Context, limit int) ([]domain.Candidate, error)
}
