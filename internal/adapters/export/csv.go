// Package export escribe los resultados de una ejecución en ficheros CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// SignalTraders es el número de traders (por score) cuyas posiciones abiertas se exportan.
const SignalTraders = 10

const marketLinkBase = "https://polymarket.com/event/"

var traderHeader = []string{
	"address", "score", "verdict", "strategy", "roi", "annualized_roi", "win_rate", "sharpe",
	"total_pnl", "capital_deployed", "volume", "trades", "markets", "profitable_markets",
	"losing_markets", "avg_buy_price", "avg_trade", "median_trade", "active_days",
	"days_inactive", "recency", "latency_risk", "median_gap_secs", "rapid_pct", "very_rapid_pct",
	"res_won", "res_lost", "res_open", "res_unknown",
}

var signalHeader = []string{
	"trader_address", "trader_score", "trader_win_rate", "market_id", "token_type",
	"size", "avg_entry_price", "est_current_value", "last_trade_date", "link",
}

// CSV exporta traders y señales de posiciones abiertas a un directorio.
type CSV struct {
	dir string
	now func() time.Time
}

// NewCSV crea el exportador. dir vacío usa el directorio actual.
func NewCSV(dir string) *CSV {
	if dir == "" {
		dir = "."
	}
	return &CSV{dir: dir, now: time.Now}
}

// Export escribe copy_traders_<ts>.csv y, si hay posiciones abiertas entre los
// mejores traders, current_portfolio_signals_<ts>.csv. Devuelve las rutas escritas.
func (e *CSV) Export(reports []domain.TraderReport) ([]string, error) {
	if len(reports) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.Export: mkdir %s: %w", e.dir, err)
	}

	stamp := e.now().Format("20060102_1504")
	tradersPath := filepath.Join(e.dir, "copy_traders_"+stamp+".csv")
	if err := writeFile(tradersPath, func(w io.Writer) error { return WriteTraders(w, reports) }); err != nil {
		return nil, fmt.Errorf("export.Export: %w", err)
	}
	paths := []string{tradersPath}
	slog.Info("traders exported", "path", tradersPath, "count", len(reports))

	if countSignals(reports) == 0 {
		slog.Info("no open positions among top traders")
		return paths, nil
	}

	signalsPath := filepath.Join(e.dir, "current_portfolio_signals_"+stamp+".csv")
	if err := writeFile(signalsPath, func(w io.Writer) error { return WriteSignals(w, reports) }); err != nil {
		return paths, fmt.Errorf("export.Export: %w", err)
	}
	slog.Info("portfolio signals exported", "path", signalsPath, "count", countSignals(reports))
	return append(paths, signalsPath), nil
}

// WriteTraders escribe una fila por trader; las resolution stats van aplanadas
// y las posiciones abiertas se omiten.
func WriteTraders(w io.Writer, reports []domain.TraderReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traderHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range reports {
		m := r.Metrics
		row := []string{
			m.Address,
			ff(m.Score, 2),
			string(r.Verdict),
			r.Strategy.Primary,
			ff(m.ROI, 4),
			ff(m.AnnualizedROI, 4),
			ff(m.WinRate, 4),
			ff(m.Sharpe, 4),
			ff(m.TotalPnL, 2),
			ff(m.CapitalDeployed, 2),
			ff(m.Volume, 2),
			strconv.Itoa(m.TradeCount),
			strconv.Itoa(m.MarketCount),
			strconv.Itoa(m.ProfitableMarkets),
			strconv.Itoa(m.LosingMarkets),
			ff(m.AvgBuyPrice, 4),
			ff(m.AvgTradeValue, 2),
			ff(m.MedianTradeValue, 2),
			ff(m.ActiveDays, 1),
			ff(m.DaysInactive, 1),
			ff(m.RecencyWeight, 4),
			string(m.Latency.Risk),
			ff(m.Latency.MedianGapSecs, 0),
			ff(m.Latency.RapidPct, 1),
			ff(m.Latency.VeryRapidPct, 1),
			strconv.Itoa(m.ResolutionStats.Won),
			strconv.Itoa(m.ResolutionStats.Lost),
			strconv.Itoa(m.ResolutionStats.Unresolved),
			strconv.Itoa(m.ResolutionStats.Unknown),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write trader %s: %w", m.Address, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSignals escribe las posiciones abiertas de los SignalTraders primeros reports.
func WriteSignals(w io.Writer, reports []domain.TraderReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(signalHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range topReports(reports) {
		m := r.Metrics
		for _, p := range m.CurrentPositions {
			row := []string{
				m.Address,
				ff(m.Score, 2),
				ff(m.WinRate, 4),
				p.MarketID,
				string(p.TokenClass),
				ff(p.Size, 2),
				ff(p.AvgPrice, 3),
				ff(p.CurrentValue, 2),
				p.LastTradeAt.UTC().Format("2006-01-02 15:04"),
				marketLinkBase + p.MarketID,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write signal %s/%s: %w", m.Address, p.MarketID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func topReports(reports []domain.TraderReport) []domain.TraderReport {
	if len(reports) > SignalTraders {
		return reports[:SignalTraders]
	}
	return reports
}

func countSignals(reports []domain.TraderReport) int {
	n := 0
	for _, r := range topReports(reports) {
		n += len(r.Metrics.CurrentPositions)
	}
	return n
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func ff(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
