package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Data API ---

// leaderboardEntry es un item de GET /leaderboard. Algunas versiones de la
// API devuelven "user" y otras "address"; pnl y volume pueden llegar como strings.
type leaderboardEntry struct {
	User    string      `json:"user"`
	Address string      `json:"address"`
	PnL     json.Number `json:"pnl"`
	Volume  json.Number `json:"volume"`
}

// publicTrade es un trade del feed público GET /trades (sin filtro de user).
// Solo se usa para minar candidatos cuando el leaderboard no responde.
type publicTrade struct {
	User  string      `json:"user"`
	Maker string      `json:"maker"`
	Taker string      `json:"taker"`
	Size  json.Number `json:"size"`
	Price json.Number `json:"price"`
}

// --- CLOB API ---

// clobMarket es la respuesta de GET /markets/{condition_id}.
type clobMarket struct {
	ConditionID string      `json:"condition_id"`
	Active      *bool       `json:"active"`
	Closed      bool        `json:"closed"`
	Tokens      []clobToken `json:"tokens"`
}

// clobToken representa un token (outcome) en el CLOB.
type clobToken struct {
	TokenID string  `json:"token_id"`
	AssetID string  `json:"asset_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// --- Gamma API ---

// gammaMarket contiene el estado de resolución de un mercado en Gamma.
type gammaMarket struct {
	ConditionID       string `json:"conditionId"`
	Slug              string `json:"slug"`
	Resolved          bool   `json:"resolved"`
	Closed            bool   `json:"closed"`
	Outcome           string `json:"outcome"`
	ResolutionOutcome string `json:"resolutionOutcome"`
}

// gammaEvent es un item de GET /events.
type gammaEvent struct {
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}
