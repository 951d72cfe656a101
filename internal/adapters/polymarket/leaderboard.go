package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	leaderboardPath    = "/leaderboard"
	fallbackTradeLimit = 1000
)

// leaderboardWindows se consultan en orden; el primero que aporta una
// dirección se queda con ella.
var leaderboardWindows = []string{"week", "month", "all"}

// FetchCandidates devuelve hasta limit wallets candidatas a analizar.
// Combina las ventanas del leaderboard; si ninguna responde con datos,
// agrega el feed público de trades por volumen.
func (c *Client) FetchCandidates(ctx context.Context, limit int) ([]domain.Candidate, error) {
	seen := make(map[string]bool)
	var out []domain.Candidate

	for _, window := range leaderboardWindows {
		url := fmt.Sprintf("%s%s?window=%s&limit=%d", c.data.base, leaderboardPath, window, limit)

		var entries []leaderboardEntry
		if err := c.get(ctx, c.data, url, &entries); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("polymarket.FetchCandidates: %w", ctx.Err())
			}
			slog.Warn("leaderboard window failed", "window", window, "err", err)
			continue
		}

		out = append(out, mapLeaderboard(entries, window, seen)...)
		slog.Debug("leaderboard window fetched", "window", window, "entries", len(entries), "total", len(out))
	}

	if len(out) > 0 {
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	slog.Warn("leaderboard empty, falling back to recent trades")
	return c.candidatesFromRecentTrades(ctx, limit)
}

func (c *Client) candidatesFromRecentTrades(ctx context.Context, limit int) ([]domain.Candidate, error) {
	url := c.data.base + tradesPath + "?limit=" + strconv.Itoa(fallbackTradeLimit)

	var trades []publicTrade
	err := c.get(ctx, c.data, url, &trades)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("polymarket.FetchCandidates: fallback: %w", err)
	}
	return candidatesFromTrades(trades, limit), nil
}
