package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

type resolutionStep struct {
	name  string
	fetch func(context.Context, string) (domain.Resolution, bool, error)
}

// FetchResolution pregunta por la resolución de un mercado en cascada:
// CLOB, Gamma markets y Gamma events. La primera respuesta concluyente gana.
//
// Si ningún paso aporta datos devuelve Unknown. El error solo se propaga
// cuando algún paso falló por algo distinto a un 404, para que la caché no
// memorice fallos transitorios.
func (c *Client) FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error) {
	steps := []resolutionStep{
		{"clob", c.fetchCLOBResolution},
		{"gamma_markets", c.fetchGammaMarketResolution},
		{"gamma_events", c.fetchGammaEventResolution},
	}

	var errs []error
	for _, step := range steps {
		res, ok, err := step.fetch(ctx, marketID)
		if err != nil {
			if ctx.Err() != nil {
				return domain.UnknownResolution(), ctx.Err()
			}
			if !errors.Is(err, domain.ErrNotFound) {
				slog.Debug("resolution step failed", "step", step.name, "market", marketID, "err", err)
				errs = append(errs, err)
			}
			continue
		}
		if ok {
			return res, nil
		}
	}

	if len(errs) > 0 {
		return domain.UnknownResolution(), fmt.Errorf("polymarket.FetchResolution: %s: %w", marketID, errors.Join(errs...))
	}
	return domain.UnknownResolution(), nil
}
