package ports

import (
	"context"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// Resolver responde si un mercado se liquidó y qué outcome ganó.
type Resolver interface {
	// Resolve nunca devuelve error: fallos y respuestas inconclusas se
	// traducen a domain.ResolutionUnknown.
	Resolve(ctx context.Context, marketID, assetID string) domain.Resolution
}

// ResolutionSource consulta la metadata del exchange para un mercado.
type ResolutionSource interface {
	FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error)
}

// ResolutionStore persiste resoluciones ya liquidadas entre ejecuciones.
type ResolutionStore interface {
	// GetResolution devuelve ok=false si no hay registro para el mercado.
	GetResolution(ctx context.Context, marketID string) (res domain.Resolution, ok bool, err error)
	SaveResolution(ctx context.Context, marketID string, res domain.Resolution) error
}
