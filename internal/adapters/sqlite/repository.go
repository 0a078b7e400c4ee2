package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.RunJournal using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/daybot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Run journal ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		execution_time TIMESTAMP NOT NULL,
		dry_run INTEGER NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		total_symbols INTEGER NOT NULL DEFAULT 0,
		trades INTEGER NOT NULL DEFAULT 0,
		skips INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		error_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		should_trade INTEGER NOT NULL,
		notional REAL NOT NULL,
		take_profit REAL NULL,
		stop_loss REAL NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		order_class TEXT NOT NULL,
		notional REAL NOT NULL,
		dry_run INTEGER NOT NULL,
		order_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_execution_time ON runs (execution_time);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals (symbol);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// RecordRun stores the run, its signals and its order outcomes in one transaction.
// Recording the same run ID twice replaces the earlier entry.
func (r *Repository) RecordRun(ctx context.Context, result *domain.RunResult) error {
	if result == nil || result.RunID == "" {
		return fmt.Errorf("run result without ID: %w", ports.ErrInvalidRequest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for run %s: %w: %w", result.RunID, ports.ErrQueryFailed, err)
	}
	defer tx.Rollback() // No-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, result.RunID); err != nil {
		return fmt.Errorf("failed to replace run %s: %w: %w", result.RunID, ports.ErrQueryFailed, err)
	}

	const insertRun = `
	INSERT INTO runs (run_id, execution_time, dry_run, strategy, total_symbols, trades, skips, error, error_type)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		result.RunID, result.ExecutionTime.UTC(), result.DryRun, result.Strategy,
		result.Summary.TotalSymbols, result.Summary.Trades, result.Summary.Skips,
		result.Error, result.ErrorType); err != nil {
		return fmt.Errorf("failed to insert run %s: %w: %w", result.RunID, ports.ErrQueryFailed, err)
	}

	const insertSignal = `
	INSERT INTO signals (run_id, position, symbol, should_trade, notional, take_profit, stop_loss, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i, sig := range result.Signals {
		if _, err := tx.ExecContext(ctx, insertSignal,
			result.RunID, i, sig.Symbol, sig.ShouldTrade, sig.Notional,
			nullPrice(sig.TakeProfitPrice), nullPrice(sig.StopLossPrice), sig.Reason); err != nil {
			return fmt.Errorf("failed to insert signal %s for run %s: %w: %w", sig.Symbol, result.RunID, ports.ErrQueryFailed, err)
		}
	}

	const insertOrder = `
	INSERT INTO orders (run_id, symbol, order_class, notional, dry_run, order_id, status, error, submitted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, o := range result.Orders {
		if _, err := tx.ExecContext(ctx, insertOrder,
			result.RunID, o.Symbol, string(o.Class), o.Notional, o.DryRun,
			o.OrderID, o.Status, o.Error, o.At.UTC()); err != nil {
			return fmt.Errorf("failed to insert order %s for run %s: %w: %w", o.Symbol, result.RunID, ports.ErrQueryFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w: %w", result.RunID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Run recorded", map[string]interface{}{
		"runID": result.RunID, "signals": len(result.Signals), "orders": len(result.Orders),
	})
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
	SELECT r.run_id, r.execution_time, r.dry_run, r.strategy, r.total_symbols, r.trades, r.skips,
	       r.error, r.error_type,
	       (SELECT COUNT(*) FROM orders o WHERE o.run_id = r.run_id AND o.error <> '')
	FROM runs r
	ORDER BY r.execution_time DESC, r.rowid DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var records []*domain.RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w: %w", ports.ErrQueryFailed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w: %w", ports.ErrQueryFailed, err)
	}
	return records, nil
}

// SignalsForRun returns the journaled signals of a run in evaluation order.
func (r *Repository) SignalsForRun(ctx context.Context, runID string) ([]domain.TradeSignal, error) {
	const query = `
	SELECT symbol, should_trade, notional, take_profit, stop_loss, reason
	FROM signals
	WHERE run_id = ?
	ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var signals []domain.TradeSignal
	for rows.Next() {
		var (
			sig    domain.TradeSignal
			tp, sl sql.NullFloat64
		)
		if err := rows.Scan(&sig.Symbol, &sig.ShouldTrade, &sig.Notional, &tp, &sl, &sig.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w: %w", ports.ErrQueryFailed, err)
		}
		if tp.Valid {
			sig.TakeProfitPrice = domain.Price(tp.Float64)
		}
		if sl.Valid {
			sig.StopLossPrice = domain.Price(sl.Float64)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w: %w", ports.ErrQueryFailed, err)
	}
	return signals, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRunRecord(s scanner) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	if err := s.Scan(
		&rec.RunID, &rec.ExecutionTime, &rec.DryRun, &rec.Strategy,
		&rec.Summary.TotalSymbols, &rec.Summary.Trades, &rec.Summary.Skips,
		&rec.Error, &rec.ErrorType, &rec.OrdersFailed,
	); err != nil {
		return nil, err
	}
	rec.ExecutionTime = rec.ExecutionTime.UTC()
	return &rec, nil
}

func nullPrice(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
