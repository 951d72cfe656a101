package scanner

// concurrent.go — worker pool para analizar wallets en paralelo.
//
// El cuello de botella es la red (historial + resoluciones). Los workers se
// autolimitan con los rate limiters del cliente; la caché de resoluciones es
// el único estado compartido entre ellos.

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/metrics"
)

type outcomeKind int

const (
	outcomeNoData outcomeKind = iota
	outcomeFiltered
	outcomePassed
)

func (k outcomeKind) String() string {
	switch k {
	case outcomePassed:
		return "passed"
	case outcomeFiltered:
		return "filtered"
	default:
		return "no_data"
	}
}

type outcome struct {
	address string
	kind    outcomeKind
	report  domain.TraderReport
}

// analyzeConcurrent analiza todos los candidatos usando un worker pool.
// Si workers <= 0 usa runtime.NumCPU() × 2.
func (s *Scanner) analyzeConcurrent(ctx context.Context, candidates []domain.Candidate, now time.Time) []outcome {
	workers := s.cfg.AnalysisWorkers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan domain.Candidate, len(candidates))
	resultCh := make(chan outcome, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range workCh {
				if ctx.Err() != nil {
					continue
				}
				o := s.analyzeCandidate(ctx, c.Address, now)
				metrics.TradersAnalyzed.WithLabelValues(o.kind.String()).Inc()
				resultCh <- o
			}
		}()
	}

	for _, c := range candidates {
		workCh <- c
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make([]outcome, 0, len(candidates))
	for o := range resultCh {
		out = append(out, o)
	}

	slog.Debug("concurrent analysis complete",
		"candidates", len(candidates),
		"analyzed", len(out),
		"workers", workers,
	)
	return out
}

// analyzeCandidate clasifica una wallet. Un fallo al traer el historial
// descarta la wallet entera.
func (s *Scanner) analyzeCandidate(ctx context.Context, address string, now time.Time) outcome {
	raw, err := s.trades.FetchWalletTrades(ctx, address, s.cfg.MaxTradesLookup)
	if err != nil {
		slog.Warn("trade history fetch failed", "address", address, "err", err)
		return outcome{address: address, kind: outcomeNoData}
	}
	if len(raw) == 0 {
		slog.Debug("no trades", "address", address)
		return outcome{address: address, kind: outcomeNoData}
	}

	report, err := s.buildReport(ctx, address, raw, now)
	var inel *domain.IneligibleError
	switch {
	case errors.As(err, &inel):
		metrics.TradersFiltered.WithLabelValues(inel.Filter).Inc()
		slog.Debug("trader filtered", "address", address, "filter", inel.Filter, "value", inel.Value)
		return outcome{address: address, kind: outcomeFiltered}
	case err != nil:
		slog.Warn("analysis failed", "address", address, "err", err)
		return outcome{address: address, kind: outcomeNoData}
	}

	slog.Info("trader passed",
		"address", address,
		"score", report.Metrics.Score,
		"roi", report.Metrics.ROI,
		"win_rate", report.Metrics.WinRate,
		"verdict", report.Verdict,
	)
	return outcome{address: address, kind: outcomePassed, report: report}
}
