package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/alejandrodnm/polycopy/internal/adapters/export"
	"github.com/alejandrodnm/polycopy/internal/adapters/notify"
	"github.com/alejandrodnm/polycopy/internal/adapters/polymarket"
	"github.com/alejandrodnm/polycopy/internal/adapters/rediscache"
	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/analyzer"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/metrics"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"github.com/alejandrodnm/polycopy/internal/resolver"
	"github.com/alejandrodnm/polycopy/internal/scanner"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain devuelve el código de salida para que los defers (cierre del log
// rotado, cancelación del contexto) se ejecuten antes de os.Exit.
func realMain(args []string) int {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	address := fs.String("address", "", "analyze a single wallet (0x + 40 hex) instead of the leaderboard")
	limit := fs.Int("limit", 0, "leaderboard candidates to analyze (overrides config)")
	history := fs.Int("history", 0, "print the N best stored traders and exit")
	noDB := fs.Bool("no-db", false, "do not open the SQLite database")
	exportCSV := fs.Bool("export", false, "write CSV exports (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Modo wallet: validar antes de tocar la red
	if *address != "" && !addressRe.MatchString(*address) {
		fmt.Fprintf(os.Stderr, "invalid address %q: expected 0x followed by 40 hex characters\n", *address)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return 1
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *limit > 0 {
		cfg.Analyzer.LeaderboardLimit = *limit
	}
	if *exportCSV {
		cfg.Export.Enabled = true
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, strings.ToLower(*address), *history, *noDB); err != nil {
		slog.Error("analyzer exited with error", "err", err)
		return 1
	}
	return 0
}

// run arma las dependencias y ejecuta el modo pedido junto al servidor de métricas.
func run(ctx context.Context, cfg *config.Config, address string, history int, noDB bool) error {
	slog.Info("polycopy starting",
		"mode", mode(address, history),
		"candidates", cfg.Analyzer.LeaderboardLimit,
		"portfolio", cfg.Copy.PortfolioBalance,
		"redis", cfg.Redis.Addr != "",
		"metrics", cfg.Metrics.Addr,
	)

	client := polymarket.NewClient(cfg.API.DataBase, cfg.API.CLOBBase, cfg.API.GammaBase)

	var (
		runStore        ports.Storage
		resolutionStore ports.ResolutionStore
	)
	if !noDB {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open storage %s: %w", cfg.Storage.DSN, err)
		}
		defer db.Close()
		runStore, resolutionStore = db, db
	}

	if cfg.Redis.Addr != "" {
		rc, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		// Redis se comparte entre procesos; tiene prioridad sobre SQLite
		resolutionStore = rediscache.NewResolutionStore(rc, cfg.ResolutionTTL())
	}

	cache := resolver.NewCache(client, resolutionStore)
	an := analyzer.New(analyzerConfig(cfg.Analyzer), cache)
	notifier := notify.NewConsole(cfg.Copy.PortfolioBalance)

	var exporter ports.Exporter
	if cfg.Export.Enabled {
		exporter = export.NewCSV(cfg.Export.Dir)
	}

	scanCfg := scanner.DefaultConfig()
	scanCfg.CandidateLimit = cfg.Analyzer.LeaderboardLimit
	scanCfg.MaxTradesLookup = cfg.Analyzer.MaxTradesLookup
	scanCfg.AnalysisWorkers = cfg.Analyzer.Workers
	scanCfg.PortfolioBalance = cfg.Copy.PortfolioBalance
	scanCfg.Verdict = analyzer.VerdictThresholds{
		StrongScore:     cfg.Verdict.StrongMinScore,
		StrongWinRate:   cfg.Verdict.StrongMinWinRate,
		ModerateScore:   cfg.Verdict.ModerateMinScore,
		ModerateWinRate: cfg.Verdict.ModerateMinWinRate,
	}

	s := scanner.New(scanCfg, client, client, an, cache, runStore, notifier, exporter)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.Metrics.Addr) })
	}

	g.Go(func() error {
		defer stop() // apaga el servidor de métricas al terminar
		switch {
		case history > 0:
			reports, err := s.History(gctx, history)
			if err != nil {
				return err
			}
			notifier.PrintHistory(reports)
			return nil

		case address != "":
			report, err := s.AnalyzeAddress(gctx, address)
			if errors.Is(err, domain.ErrIneligible) || errors.Is(err, domain.ErrNoTrades) {
				notifier.PrintIneligible(address, err)
				return nil
			}
			if err != nil {
				return err
			}
			notifier.PrintTraderDetail(report)
			return nil

		default:
			_, _, err := s.Run(gctx)
			return err
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("polycopy stopped cleanly", "resolutions_cached", cache.Len())
	return nil
}

func analyzerConfig(c config.AnalyzerConfig) analyzer.Config {
	return analyzer.Config{
		MinTrades:           c.MinTrades,
		MinWinRate:          c.MinWinRate,
		MinMarkets:          c.MinMarkets,
		MaxAvgTradeSize:     c.MaxAvgTradeSize,
		MaxAvgBuyPrice:      c.MaxAvgBuyPrice,
		MinROI:              c.MinROI,
		MinScore:            c.MinScore,
		RecencyHalfLifeDays: c.RecencyHalfLifeDays,
	}
}

func mode(address string, history int) string {
	switch {
	case history > 0:
		return "history"
	case address != "":
		return "wallet"
	}
	return "leaderboard"
}

// serveMetrics sirve /metrics hasta que el contexto se cancele.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// setupLogger configura slog sobre stderr y, si hay log.file, una copia rotada.
// Devuelve la función que cierra el fichero.
func setupLogger(cfg config.LogConfig) func() {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "log dir: %v\n", err)
		} else {
			lj := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
			}
			out = io.MultiWriter(os.Stderr, lj)
			closeFn = func() { _ = lj.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}
