package polymarket

import (
	"sort"
	"strings"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// --- candidatos ---

// mapLeaderboard convierte las entradas del leaderboard en candidatos,
// saltando las direcciones ya vistas (seen se actualiza).
func mapLeaderboard(entries []leaderboardEntry, window string, seen map[string]bool) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		addr := e.User
		if addr == "" {
			addr = e.Address
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true

		pnl, _ := e.PnL.Float64()
		vol, _ := e.Volume.Float64()
		out = append(out, domain.Candidate{
			Address: addr,
			PnL:     pnl,
			Volume:  vol,
			Source:  "leaderboard_" + window,
		})
	}
	return out
}

// candidatesFromTrades agrega volumen por usuario y devuelve los limit con más volumen.
func candidatesFromTrades(trades []publicTrade, limit int) []domain.Candidate {
	volume := make(map[string]float64)
	for _, t := range trades {
		addr := firstNonEmpty(t.User, t.Maker, t.Taker)
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		size, errS := t.Size.Float64()
		price, errP := t.Price.Float64()
		if errS != nil || errP != nil {
			continue
		}
		volume[addr] += size * price
	}

	out := make([]domain.Candidate, 0, len(volume))
	for addr, v := range volume {
		out = append(out, domain.Candidate{Address: addr, Volume: v, Source: "recent_trades_fallback"})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Address < out[j].Address
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// --- resoluciones ---

// hasData replica el "respuesta no vacía" de la API del CLOB.
func (m clobMarket) hasData() bool {
	return m.ConditionID != "" || len(m.Tokens) > 0 || m.Closed || m.Active != nil
}

// mapCLOBResolution: mercado cerrado o inactivo → Resolved con el token
// ganador (o sin ganador); si no, Unresolved.
func mapCLOBResolution(m clobMarket) domain.Resolution {
	closed := m.Closed || (m.Active != nil && !*m.Active)
	if !closed {
		return domain.Unresolved()
	}
	for _, t := range m.Tokens {
		if t.Winner {
			return domain.Resolved(firstNonEmpty(t.TokenID, t.AssetID))
		}
	}
	return domain.Resolved("")
}

// gammaOutcome devuelve el outcome en mayúsculas, o "" si no hay.
func gammaOutcome(m gammaMarket) string {
	return strings.ToUpper(strings.TrimSpace(firstNonEmpty(m.Outcome, m.ResolutionOutcome)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
