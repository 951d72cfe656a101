package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const clobMarketsPath = "/markets/"

// fetchCLOBResolution consulta GET /markets/{condition_id} del CLOB.
// ok es false cuando la respuesta viene vacía y hay que preguntar a Gamma.
func (c *Client) fetchCLOBResolution(ctx context.Context, marketID string) (domain.Resolution, bool, error) {
	var m clobMarket
	if err := c.get(ctx, c.clob, c.clob.base+clobMarketsPath+url.PathEscape(marketID), &m); err != nil {
		return domain.UnknownResolution(), false, fmt.Errorf("polymarket.fetchCLOBResolution: %w", err)
	}
	if !m.hasData() {
		return domain.UnknownResolution(), false, nil
	}
	return mapCLOBResolution(m), true, nil
}
