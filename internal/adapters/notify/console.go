package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/strategy"
	"github.com/olekukonko/tablewriter"
)

const (
	leaderboardRows = 25
	detailPositions = 5
	rule            = "======================================================================"
)

// Console implementa ports.Notifier.
type Console struct {
	out              io.Writer
	portfolioBalance float64
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(portfolioBalance float64) *Console {
	return &Console{out: os.Stdout, portfolioBalance: portfolioBalance}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, portfolioBalance float64) *Console {
	return &Console{out: w, portfolioBalance: portfolioBalance}
}

// Notify imprime el leaderboard de traders elegibles y el resumen de la ejecución.
func (c *Console) Notify(_ context.Context, reports []domain.TraderReport, summary domain.RunSummary) error {
	if len(reports) == 0 {
		fmt.Fprintf(c.out, "[%s] no eligible traders found\n", time.Now().Format("15:04:05"))
	} else {
		c.printLeaderboard("TOP TRADERS FOR COPY-TRADING (hold-to-maturity adjusted)", reports)
		c.printStrategies(reports)
	}
	c.printSummary(summary)
	return nil
}

// PrintHistory imprime los mejores traders guardados en ejecuciones anteriores.
func (c *Console) PrintHistory(reports []domain.TraderReport) {
	if len(reports) == 0 {
		fmt.Fprintln(c.out, "no stored traders yet")
		return
	}
	c.printLeaderboard("STORED TRADERS (best score first)", reports)
}

// printLeaderboard imprime la tabla ordenada tal como llega (score desc).
func (c *Console) printLeaderboard(title string, reports []domain.TraderReport) {
	fmt.Fprintf(c.out, "\n%s\n", title)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Score", "ROI%", "WinRate", "Sharpe", "P&L", "Capital", "Trades", "Mkts", "AvgBuy", "Latency", "Verdict", "Strat", "Address")

	for i, r := range reports {
		if i >= leaderboardRows {
			break
		}
		m := r.Metrics
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.1f", m.Score),
			fmt.Sprintf("%+.1f", m.ROI*100),
			fmt.Sprintf("%.1f%%", m.WinRate*100),
			fmt.Sprintf("%+.3f", m.Sharpe),
			compactUSD(m.TotalPnL),
			compactUSD(m.CapitalDeployed),
			fmt.Sprintf("%d", m.TradeCount),
			fmt.Sprintf("%d", m.MarketCount),
			fmt.Sprintf("$%.2f", m.AvgBuyPrice),
			string(m.Latency.Risk),
			string(r.Verdict),
			strategy.Code(r.Strategy.Primary),
			m.Address,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Strat: A=market+proportional B=market+fixed C=limit+proportional D=limit+fixed E=adaptive (+G compounding)")
}

// printStrategies imprime una línea de estrategia por trader recomendable.
func (c *Console) printStrategies(reports []domain.TraderReport) {
	fmt.Fprintf(c.out, "\n=== COPY STRATEGIES (portfolio $%.0f) ===\n", c.portfolioBalance)
	shown := 0
	for _, r := range reports {
		if r.Verdict == domain.VerdictNotRecommended || shown >= leaderboardRows {
			continue
		}
		shown++
		code := strategy.Code(r.Strategy.Primary)
		if r.Strategy.Compounding != nil {
			code += "+" + strategy.CompoundingCode
		}
		fmt.Fprintf(c.out, "  %-4s %s  %s  max %.1f%%  ~%.1f trades/day  [%s]\n",
			code, shortAddr(r.Metrics.Address), sizeLabel(r.Strategy), r.Strategy.MaxPositionPct,
			r.Strategy.ExpectedTradesPerDay, r.Verdict)
	}
	if shown == 0 {
		fmt.Fprintln(c.out, "  no trader reached MODERATE or better")
	}
}

func (c *Console) printSummary(s domain.RunSummary) {
	fmt.Fprintf(c.out, "\nrun %s: %d candidates → %d passed, %d filtered, %d without data | %d markets resolved in cache | %s\n",
		shortRunID(s.RunID), s.Candidates, s.Passed, s.Filtered, s.NoData, s.ResolutionCache,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
}

// PrintTraderDetail imprime el análisis completo de una wallet (modo -address).
func (c *Console) PrintTraderDetail(r domain.TraderReport) {
	m := r.Metrics
	w := c.out

	fmt.Fprintf(w, "\n%s\nTRADER ANALYSIS: %s\n%s\n", rule, m.Address, rule)

	fmt.Fprintln(w, "\n--- Performance ---")
	kv(w, "ROI:", fmt.Sprintf("%+.2f%%", m.ROI*100))
	kv(w, "Annualized ROI:", fmt.Sprintf("%+.1f%%", m.AnnualizedROI*100))
	kv(w, "Total P&L:", fmt.Sprintf("$%.2f", m.TotalPnL))
	kv(w, "Capital Deployed:", fmt.Sprintf("$%.2f", m.CapitalDeployed))
	kv(w, "Volume Traded:", fmt.Sprintf("$%.2f", m.Volume))

	fmt.Fprintln(w, "\n--- Consistency ---")
	kv(w, "Win Rate:", fmt.Sprintf("%.1f%%", m.WinRate*100))
	kv(w, "Sharpe Ratio:", fmt.Sprintf("%.3f", m.Sharpe))
	kv(w, "Markets Won:", fmt.Sprintf("%d", m.ProfitableMarkets))
	kv(w, "Markets Lost:", fmt.Sprintf("%d", m.LosingMarkets))

	fmt.Fprintln(w, "\n--- Activity ---")
	kv(w, "Total Trades:", fmt.Sprintf("%d", m.TradeCount))
	kv(w, "Markets Traded:", fmt.Sprintf("%d", m.MarketCount))
	kv(w, "Active Days:", fmt.Sprintf("%.0f", m.ActiveDays))
	kv(w, "Days Since Last Trade:", fmt.Sprintf("%.1f", m.DaysInactive))
	kv(w, "Recency Factor:", fmt.Sprintf("%.3f", m.RecencyWeight))

	fmt.Fprintln(w, "\n--- Followability ---")
	kv(w, "Avg Buy Price:", fmt.Sprintf("$%.3f", m.AvgBuyPrice))
	kv(w, "Median Trade Size:", fmt.Sprintf("$%.2f", m.MedianTradeValue))
	kv(w, "Avg Trade Size:", fmt.Sprintf("$%.2f", m.AvgTradeValue))

	fmt.Fprintln(w, "\n--- Latency Dependency ---")
	kv(w, "Latency Risk:", string(m.Latency.Risk))
	kv(w, "Median Trade Gap:", gapLabel(m.Latency.MedianGapSecs))
	kv(w, "Rapid Trades (<60s):", fmt.Sprintf("%.1f%%", m.Latency.RapidPct))
	kv(w, "Very Rapid (<10s):", fmt.Sprintf("%.1f%%", m.Latency.VeryRapidPct))
	switch m.Latency.Risk {
	case domain.LatencyHigh:
		fmt.Fprintln(w, "  WARNING: high-frequency trader, difficult to copy effectively")
	case domain.LatencyMedium:
		fmt.Fprintln(w, "  CAUTION: some time-sensitive trades, may miss some entries")
	}

	rs := m.ResolutionStats
	fmt.Fprintln(w, "\n--- Market Resolution Stats ---")
	kv(w, "Positions Won:", fmt.Sprintf("%d", rs.Won))
	kv(w, "Positions Lost:", fmt.Sprintf("%d", rs.Lost))
	kv(w, "Still Open:", fmt.Sprintf("%d", rs.Unresolved))
	kv(w, "Unknown:", fmt.Sprintf("%d", rs.Unknown))

	if len(m.CurrentPositions) > 0 {
		fmt.Fprintf(w, "\n--- Current Open Positions (%d) ---\n", len(m.CurrentPositions))
		for i, p := range m.CurrentPositions {
			if i >= detailPositions {
				break
			}
			label := ""
			if p.TokenClass != domain.TokenUnknown {
				label = "[" + string(p.TokenClass) + "]"
			}
			fmt.Fprintf(w, "  %s%s | %.1f @ $%.3f\n", truncate(p.MarketID, 23), label, p.Size, p.AvgPrice)
		}
	}

	fmt.Fprintf(w, "\n%s\nSUMMARY\n%s\n", rule, rule)
	kv(w, "Address:", m.Address)
	kv(w, "Composite Score:", fmt.Sprintf("%.1f", m.Score))
	kv(w, "ROI:", fmt.Sprintf("%+.2f%%", m.ROI*100))
	kv(w, "Win Rate:", fmt.Sprintf("%.1f%%", m.WinRate*100))
	kv(w, "Sharpe:", fmt.Sprintf("%.3f", m.Sharpe))
	kv(w, "Latency Risk:", string(m.Latency.Risk))

	switch r.Verdict {
	case domain.VerdictStrong:
		fmt.Fprintln(w, "\nVERDICT: STRONG candidate for copy trading")
	case domain.VerdictModerate:
		fmt.Fprintln(w, "\nVERDICT: MODERATE candidate, monitor before copying")
	default:
		fmt.Fprintln(w, "\nVERDICT: NOT RECOMMENDED for copy trading")
	}
	fmt.Fprintln(w, rule)

	c.printStrategy(r.Strategy)
}

// printStrategy imprime la recomendación de copy-trading completa.
func (c *Console) printStrategy(rec domain.StrategyRecommendation) {
	w := c.out
	fmt.Fprintf(w, "\n--- COPY TRADING STRATEGY (Portfolio: $%.0f) ---\n", c.portfolioBalance)
	kv(w, "Recommended Strategy:", fmt.Sprintf("%s. %s", strategy.Code(rec.Primary), strings.ToUpper(strings.ReplaceAll(rec.Primary, "_", " "))))
	kv(w, "Order Type:", strings.ToUpper(string(rec.OrderType)))
	kv(w, "Sizing Method:", string(rec.SizingMethod))
	kv(w, "Suggested Size:", sizeLabel(rec))
	kv(w, "Max Position:", fmt.Sprintf("%.1f%% of portfolio ($%.2f)", rec.MaxPositionPct, c.portfolioBalance*rec.MaxPositionPct/100))
	kv(w, "Est. Trades/Day:", fmt.Sprintf("%.1f", rec.ExpectedTradesPerDay))
	kv(w, "Est. Daily Capital:", fmt.Sprintf("$%.2f", rec.ExpectedDailyCapital))

	if p := rec.Compounding; p != nil {
		fmt.Fprintf(w, "\n--- COMPOUNDING STRATEGY (%s) ---\n", strategy.CompoundingCode)
		kv(w, "Base Size:", fmt.Sprintf("$%.2f", p.BaseSize))
		kv(w, "Reinvestment Rate:", fmt.Sprintf("%.0f%%", p.ReinvestmentRate*100))
		kv(w, "Tier Increment:", fmt.Sprintf("$%.0f profit per tier", p.TierIncrement))
		kv(w, "Size Increase/Tier:", fmt.Sprintf("+%.0f%%", p.SizeIncreasePerTier*100))
		kv(w, "Max Multiplier:", fmt.Sprintf("%.0fx base size", p.MaxMultiplier))
		fmt.Fprintln(w, "\nDrawdown Protection:")
		fmt.Fprintf(w, "  - %.0f%% drawdown: halve position size\n", p.DrawdownHalve*100)
		fmt.Fprintf(w, "  - %.0f%% drawdown: reset to base size\n", p.DrawdownReset*100)
		fmt.Fprintf(w, "  - %.0f%% drawdown: PAUSE copying this trader\n", p.DrawdownPause*100)
	}

	if len(rec.Reasons) > 0 {
		fmt.Fprintln(w, "\nRationale:")
		for _, r := range rec.Reasons {
			fmt.Fprintf(w, "  + %s\n", r)
		}
	}
	if len(rec.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range rec.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warn)
		}
	}
}

// PrintIneligible explica por qué una wallet no pasó el análisis.
func (c *Console) PrintIneligible(address string, err error) {
	fmt.Fprintf(c.out, "\n%s\n", rule)

	var inel *domain.IneligibleError
	switch {
	case errors.As(err, &inel):
		fmt.Fprintf(c.out, "Trader %s did not pass minimum filters.\n", address)
		fmt.Fprintf(c.out, "  failed filter: %s (value %.4f, threshold %.4f)\n", inel.Filter, inel.Value, inel.Threshold)
	case errors.Is(err, domain.ErrNoTrades):
		fmt.Fprintf(c.out, "No usable trades found for %s\n", address)
		fmt.Fprintln(c.out, "  - the address has no Polymarket activity, or")
		fmt.Fprintln(c.out, "  - the address format is incorrect (0x + 40 hex)")
	default:
		fmt.Fprintf(c.out, "Analysis of %s failed: %v\n", address, err)
	}
	fmt.Fprintln(c.out, rule)
}

// --- helpers ---

func kv(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%-25s %s\n", key, value)
}

func sizeLabel(rec domain.StrategyRecommendation) string {
	if rec.SizingMethod == domain.SizingProportional {
		return fmt.Sprintf("%.1f%% of trader's position", rec.SuggestedSize*100)
	}
	return fmt.Sprintf("$%.2f per trade", rec.SuggestedSize)
}

func gapLabel(secs float64) string {
	switch {
	case secs >= 86400:
		return fmt.Sprintf("%.1f days", secs/86400)
	case secs >= 3600:
		return fmt.Sprintf("%.1f hours", secs/3600)
	case secs >= 60:
		return fmt.Sprintf("%.1f minutes", secs/60)
	}
	return fmt.Sprintf("%.0f seconds", secs)
}

// compactUSD abrevia importes grandes: $1234 / $150k.
func compactUSD(v float64) string {
	if v >= 100000 || v <= -100000 {
		return fmt.Sprintf("$%.0fk", v/1000)
	}
	return fmt.Sprintf("$%.0f", v)
}

func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
