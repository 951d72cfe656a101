package storage

// sqlite.go — histórico de ejecuciones y caché persistente de resoluciones.
//
// Tablas:
//   - `runs`: resumen de cada ejecución (una fila por run, id UUID).
//   - `traders`: UNA fila por wallet elegible (UPSERT) con su último score y el pico histórico.
//     Cache en memoria: solo se reescribe si cambió el veredicto o el score > 5%;
//     si no, solo se refrescan last_seen, last_run_id y peak_score.
//   - `resolutions`: mercados ya liquidados. Un mercado resuelto no cambia, así que
//     se insertan una vez y nunca se podan.
//   - Prune automático al arrancar: runs > 90d, traders no vistos en 30d.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    started_at       INTEGER NOT NULL,
    finished_at      INTEGER NOT NULL,
    candidates       INTEGER NOT NULL DEFAULT 0,
    passed           INTEGER NOT NULL DEFAULT 0,
    filtered         INTEGER NOT NULL DEFAULT 0,
    no_data          INTEGER NOT NULL DEFAULT 0,
    resolution_cache INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS traders (
    address        TEXT PRIMARY KEY,
    score          REAL    NOT NULL DEFAULT 0,
    roi            REAL    NOT NULL DEFAULT 0,
    win_rate       REAL    NOT NULL DEFAULT 0,
    sharpe         REAL    NOT NULL DEFAULT 0,
    total_pnl      REAL    NOT NULL DEFAULT 0,
    capital        REAL    NOT NULL DEFAULT 0,
    trade_count    INTEGER NOT NULL DEFAULT 0,
    market_count   INTEGER NOT NULL DEFAULT 0,
    latency_risk   TEXT    NOT NULL DEFAULT '',
    verdict        TEXT    NOT NULL,
    strategy       TEXT    NOT NULL DEFAULT '',
    suggested_size REAL    NOT NULL DEFAULT 0,
    last_trade     INTEGER NOT NULL DEFAULT 0,
    first_seen     INTEGER NOT NULL,
    last_seen      INTEGER NOT NULL,
    last_run_id    TEXT    NOT NULL,
    peak_score     REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS resolutions (
    market_id      TEXT PRIMARY KEY,
    status         INTEGER NOT NULL,
    winning_asset  TEXT    NOT NULL DEFAULT '',
    saved_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started  ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_traders_score ON traders(score DESC);
CREATE INDEX IF NOT EXISTS idx_traders_last  ON traders(last_seen DESC);
`

const (
	retentionRuns    = 90 * 24 * time.Hour
	retentionTraders = 30 * 24 * time.Hour
	scoreChangePct   = 0.05 // 5% de cambio en score → reescribir
)

// cachedTrader es el snapshot del último estado guardado de una wallet.
type cachedTrader struct {
	verdict domain.Verdict
	score   float64
}

// SQLiteStorage implementa ports.Storage y ports.ResolutionStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedTrader // address → estado guardado
	mu    sync.Mutex
	now   func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedTrader),
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveRun persiste el resumen de la ejecución y hace upsert de los traders
// que cambiaron respecto a la ejecución anterior. Los que no cambiaron solo
// refrescan last_seen, last_run_id y el pico de score. Todo va en una
// transacción; la caché se actualiza tras el commit.
func (s *SQLiteStorage) SaveRun(ctx context.Context, summary domain.RunSummary, reports []domain.TraderReport) error {
	if summary.RunID == "" {
		summary.RunID = uuid.NewString()
	}
	now := s.now()
	toWrite, unchanged := s.filterChanged(reports)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, candidates, passed, filtered, no_data, resolution_cache)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.StartedAt.Unix(), summary.FinishedAt.Unix(),
		summary.Candidates, summary.Passed, summary.Filtered, summary.NoData, summary.ResolutionCache,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	if err := upsertTraders(ctx, tx, toWrite, summary.RunID, now); err != nil {
		return err
	}
	if err := touchTraders(ctx, tx, unchanged, summary.RunID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}

	s.mu.Lock()
	for _, r := range toWrite {
		s.cache[r.Metrics.Address] = cachedTrader{verdict: r.Verdict, score: r.Metrics.Score}
	}
	s.mu.Unlock()
	return nil
}

func upsertTraders(ctx context.Context, tx *sql.Tx, reports []domain.TraderReport, runID string, now time.Time) error {
	if len(reports) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO traders
			(address, score, roi, win_rate, sharpe, total_pnl, capital, trade_count,
			 market_count, latency_risk, verdict, strategy, suggested_size, last_trade,
			 first_seen, last_seen, last_run_id, peak_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			score          = excluded.score,
			roi            = excluded.roi,
			win_rate       = excluded.win_rate,
			sharpe         = excluded.sharpe,
			total_pnl      = excluded.total_pnl,
			capital        = excluded.capital,
			trade_count    = excluded.trade_count,
			market_count   = excluded.market_count,
			latency_risk   = excluded.latency_risk,
			verdict        = excluded.verdict,
			strategy       = excluded.strategy,
			suggested_size = excluded.suggested_size,
			last_trade     = excluded.last_trade,
			last_seen      = excluded.last_seen,
			last_run_id    = excluded.last_run_id,
			peak_score     = MAX(peak_score, excluded.score)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		m := r.Metrics
		if _, err := stmt.ExecContext(ctx,
			m.Address, m.Score, m.ROI, m.WinRate, m.Sharpe, m.TotalPnL, m.CapitalDeployed,
			m.TradeCount, m.MarketCount, string(m.Latency.Risk), string(r.Verdict),
			r.Strategy.Primary, r.Strategy.SuggestedSize, m.LastTrade.Unix(),
			now.Unix(), // first_seen: ignorado en ON CONFLICT
			now.Unix(),
			runID,
			m.Score,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: upsert %s: %w", m.Address, err)
		}
	}
	return nil
}

// touchTraders marca como vistos en esta ejecución a los traders que no se reescriben.
func touchTraders(ctx context.Context, tx *sql.Tx, reports []domain.TraderReport, runID string, now time.Time) error {
	if len(reports) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE traders
		SET last_seen = ?, last_run_id = ?, peak_score = MAX(peak_score, ?)
		WHERE address = ?
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare touch: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		if _, err := stmt.ExecContext(ctx, now.Unix(), runID, r.Metrics.Score, r.Metrics.Address); err != nil {
			return fmt.Errorf("storage.SaveRun: touch %s: %w", r.Metrics.Address, err)
		}
	}
	return nil
}

// TopTraders devuelve los traders guardados ordenados por score desc.
func (s *SQLiteStorage) TopTraders(ctx context.Context, limit int) ([]domain.TraderReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, score, roi, win_rate, sharpe, total_pnl, capital,
		       trade_count, market_count, latency_risk, verdict, strategy,
		       suggested_size, last_trade
		FROM traders
		ORDER BY score DESC, address
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.TopTraders: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TraderReport
	for rows.Next() {
		var r domain.TraderReport
		var risk, verdict string
		var lastTrade int64

		if err := rows.Scan(
			&r.Metrics.Address,
			&r.Metrics.Score,
			&r.Metrics.ROI,
			&r.Metrics.WinRate,
			&r.Metrics.Sharpe,
			&r.Metrics.TotalPnL,
			&r.Metrics.CapitalDeployed,
			&r.Metrics.TradeCount,
			&r.Metrics.MarketCount,
			&risk,
			&verdict,
			&r.Strategy.Primary,
			&r.Strategy.SuggestedSize,
			&lastTrade,
		); err != nil {
			return nil, fmt.Errorf("storage.TopTraders: scan row: %w", err)
		}

		r.Metrics.Latency.Risk = domain.LatencyRisk(risk)
		r.Verdict = domain.Verdict(verdict)
		r.Metrics.LastTrade = time.Unix(lastTrade, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetResolution implementa ports.ResolutionStore.
func (s *SQLiteStorage) GetResolution(ctx context.Context, marketID string) (domain.Resolution, bool, error) {
	var status int
	var winner string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, winning_asset FROM resolutions WHERE market_id = ?`, marketID,
	).Scan(&status, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Resolution{}, false, nil
	}
	if err != nil {
		return domain.Resolution{}, false, fmt.Errorf("storage.GetResolution: %s: %w", marketID, err)
	}
	return domain.Resolution{Status: domain.ResolutionStatus(status), WinningAssetID: winner}, true, nil
}

// SaveResolution implementa ports.ResolutionStore. El primer valor guardado se conserva.
func (s *SQLiteStorage) SaveResolution(ctx context.Context, marketID string, res domain.Resolution) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (market_id, status, winning_asset, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(market_id) DO NOTHING`,
		marketID, int(res.Status), res.WinningAssetID, s.now().Unix(),
	); err != nil {
		return fmt.Errorf("storage.SaveResolution: %s: %w", marketID, err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged separa los reports cuyo veredicto cambió o cuyo score se movió
// más de scoreChangePct de los que siguen igual. No toca la caché.
func (s *SQLiteStorage) filterChanged(reports []domain.TraderReport) (changed, unchanged []domain.TraderReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reports {
		if prev, ok := s.cache[r.Metrics.Address]; ok &&
			prev.verdict == r.Verdict &&
			relChange(prev.score, r.Metrics.Score) < scoreChangePct {
			unchanged = append(unchanged, r)
			continue
		}
		changed = append(changed, r)
	}
	return changed, unchanged
}

// pruneOld elimina runs y traders antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := s.now()
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, now.Add(-retentionRuns).Unix())
	s.db.ExecContext(ctx, `DELETE FROM traders WHERE last_seen < ?`, now.Add(-retentionTraders).Unix())
}

// warmCache precarga la caché desde la DB al arrancar.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT address, verdict, score FROM traders`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var addr, verdict string
		var score float64
		if rows.Scan(&addr, &verdict, &score) == nil {
			s.cache[addr] = cachedTrader{verdict: domain.Verdict(verdict), score: score}
		}
	}
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0
	}
	return math.Abs(new-old) / math.Abs(old)
}
