// Package scanner orquesta una ejecución del analizador: candidatos, historial,
// análisis, veredicto, estrategia, ranking y salida.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polycopy/internal/analyzer"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/metrics"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"github.com/alejandrodnm/polycopy/internal/strategy"
	"github.com/google/uuid"
)

// Config contiene la configuración del scanner.
type Config struct {
	CandidateLimit   int // wallets a pedir al leaderboard
	MaxTradesLookup  int // trades máximos por wallet
	AnalysisWorkers  int // goroutines para análisis paralelo (0 = NumCPU*2)
	PortfolioBalance float64
	Verdict          analyzer.VerdictThresholds
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		CandidateLimit:   60,
		MaxTradesLookup:  500,
		PortfolioBalance: 1000,
		Verdict:          analyzer.DefaultVerdictThresholds(),
	}
}

// CacheSizer expone el tamaño de la caché de resoluciones para el resumen.
type CacheSizer interface {
	Len() int
}

// Scanner es el orquestador de una ejecución.
type Scanner struct {
	cfg        Config
	candidates ports.CandidateProvider
	trades     ports.TradeProvider
	analyzer   *analyzer.Analyzer
	cache      CacheSizer
	storage    ports.Storage
	notifier   ports.Notifier
	exporter   ports.Exporter
	now        func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
// storage, exporter y cache son opcionales (nil).
func New(
	cfg Config,
	candidates ports.CandidateProvider,
	trades ports.TradeProvider,
	an *analyzer.Analyzer,
	cache CacheSizer,
	storage ports.Storage,
	notifier ports.Notifier,
	exporter ports.Exporter,
) *Scanner {
	return &Scanner{
		cfg:        cfg,
		candidates: candidates,
		trades:     trades,
		analyzer:   an,
		cache:      cache,
		storage:    storage,
		notifier:   notifier,
		exporter:   exporter,
		now:        time.Now,
	}
}

// Run ejecuta una pasada completa sobre el leaderboard y notifica/persiste/exporta
// los resultados. Los fallos de salida se loguean pero no abortan la ejecución.
func (s *Scanner) Run(ctx context.Context) ([]domain.TraderReport, domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: uuid.NewString(), StartedAt: s.now()}

	candidates, err := s.candidates.FetchCandidates(ctx, s.cfg.CandidateLimit)
	if err != nil {
		return nil, summary, fmt.Errorf("scanner.Run: fetch candidates: %w", err)
	}
	summary.Candidates = len(candidates)
	if len(candidates) == 0 {
		return nil, summary, fmt.Errorf("scanner.Run: %w", errNoCandidates)
	}

	slog.Info("analyzing candidates",
		"run_id", summary.RunID,
		"candidates", len(candidates),
		"workers", s.cfg.AnalysisWorkers,
	)

	outcomes := s.analyzeConcurrent(ctx, candidates, summary.StartedAt)
	if ctx.Err() != nil {
		return nil, summary, fmt.Errorf("scanner.Run: %w", ctx.Err())
	}

	var reports []domain.TraderReport
	for _, o := range outcomes {
		switch o.kind {
		case outcomePassed:
			reports = append(reports, o.report)
			summary.Passed++
		case outcomeFiltered:
			summary.Filtered++
		default:
			summary.NoData++
		}
	}
	reports = rankReports(reports)

	summary.FinishedAt = s.now()
	if s.cache != nil {
		summary.ResolutionCache = s.cache.Len()
	}
	metrics.RunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	s.publish(ctx, reports, summary)

	slog.Info("run complete",
		"run_id", summary.RunID,
		"passed", summary.Passed,
		"filtered", summary.Filtered,
		"no_data", summary.NoData,
		"resolution_cache", summary.ResolutionCache,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
	return reports, summary, nil
}

// AnalyzeAddress analiza una sola wallet. Devuelve domain.ErrNoTrades si no hay
// historial y *domain.IneligibleError si no pasa los filtros.
func (s *Scanner) AnalyzeAddress(ctx context.Context, address string) (domain.TraderReport, error) {
	raw, err := s.trades.FetchWalletTrades(ctx, address, s.cfg.MaxTradesLookup)
	if err != nil {
		return domain.TraderReport{}, fmt.Errorf("scanner.AnalyzeAddress: %w", err)
	}
	if len(raw) == 0 {
		return domain.TraderReport{}, domain.ErrNoTrades
	}
	slog.Info("trade history fetched", "address", address, "trades", len(raw))

	return s.buildReport(ctx, address, raw, s.now())
}

// History devuelve los mejores traders de ejecuciones anteriores.
func (s *Scanner) History(ctx context.Context, limit int) ([]domain.TraderReport, error) {
	if s.storage == nil {
		return nil, errors.New("scanner.History: storage disabled")
	}
	reports, err := s.storage.TopTraders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("scanner.History: %w", err)
	}
	return reports, nil
}

// buildReport analiza, aplica veredicto y deriva la estrategia.
func (s *Scanner) buildReport(ctx context.Context, address string, raw []domain.RawTrade, now time.Time) (domain.TraderReport, error) {
	m, err := s.analyzer.Analyze(ctx, address, raw, now)
	if err != nil {
		return domain.TraderReport{}, err
	}
	return domain.TraderReport{
		Metrics:  m,
		Verdict:  analyzer.Verdict(m, s.cfg.Verdict),
		Strategy: strategy.Recommend(m, s.cfg.PortfolioBalance),
	}, nil
}

func (s *Scanner) publish(ctx context.Context, reports []domain.TraderReport, summary domain.RunSummary) {
	if err := s.notifier.Notify(ctx, reports, summary); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if s.storage != nil {
		if err := s.storage.SaveRun(ctx, summary, reports); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}
	if s.exporter != nil {
		if _, err := s.exporter.Export(reports); err != nil {
			slog.Warn("export error", "err", err)
		}
	}
}

var errNoCandidates = errors.New("no candidates found")
