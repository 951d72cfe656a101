package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaEventsPath  = "/events"
)

// fetchGammaMarketResolution busca el mercado por condition_id en Gamma.
// Un mercado resuelto sin outcome no es concluyente (ok=false).
func (c *Client) fetchGammaMarketResolution(ctx context.Context, marketID string) (domain.Resolution, bool, error) {
	var markets []gammaMarket
	u := c.gamma.base + gammaMarketsPath + "?condition_id=" + url.QueryEscape(marketID)
	if err := c.get(ctx, c.gamma, u, &markets); err != nil {
		return domain.UnknownResolution(), false, fmt.Errorf("polymarket.fetchGammaMarketResolution: %w", err)
	}
	if len(markets) == 0 {
		return domain.UnknownResolution(), false, nil
	}

	m := markets[0]
	if !m.Resolved {
		return domain.Unresolved(), true, nil
	}
	if outcome := gammaOutcome(m); outcome != "" {
		return domain.Resolved(outcome), true, nil
	}
	return domain.UnknownResolution(), false, nil
}

// fetchGammaEventResolution usa el id como slug de evento. Basta con que
// un mercado del evento esté resuelto.
func (c *Client) fetchGammaEventResolution(ctx context.Context, marketID string) (domain.Resolution, bool, error) {
	var events []gammaEvent
	u := c.gamma.base + gammaEventsPath + "?slug=" + url.QueryEscape(marketID)
	if err := c.get(ctx, c.gamma, u, &events); err != nil {
		return domain.UnknownResolution(), false, fmt.Errorf("polymarket.fetchGammaEventResolution: %w", err)
	}
	if len(events) == 0 {
		return domain.UnknownResolution(), false, nil
	}

	for _, m := range events[0].Markets {
		if m.Resolved {
			return domain.Resolved(gammaOutcome(m)), true, nil
		}
	}
	return domain.Unresolved(), true, nil
}
