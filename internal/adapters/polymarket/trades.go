package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	tradesPath      = "/trades"
	tradesPageLimit = 100
)

// FetchWalletTrades obtiene hasta limit trades de una wallet usando la Data API.
// Pagina por offset en lotes de tradesPageLimit; una página corta o vacía es la última.
// Los trades se devuelven sin normalizar: el shape del feed cambia entre versiones.
func (c *Client) FetchWalletTrades(ctx context.Context, address string, limit int) ([]domain.RawTrade, error) {
	var all []domain.RawTrade

	for offset := 0; offset < limit; {
		batch := min(tradesPageLimit, limit-offset)

		q := url.Values{}
		q.Set("user", address)
		q.Set("limit", strconv.Itoa(batch))
		q.Set("offset", strconv.Itoa(offset))

		var page []domain.RawTrade
		err := c.get(ctx, c.data, c.data.base+tradesPath+"?"+q.Encode(), &page)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("polymarket.FetchWalletTrades: %s: %w", address, err)
		}

		all = append(all, page...)

		slog.Debug("fetched wallet trades page",
			"wallet", shortAddr(address),
			"offset", offset,
			"count", len(page),
			"total", len(all),
		)

		if len(page) < batch {
			break
		}
		offset += len(page)
	}

	return all, nil
}

func shortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
