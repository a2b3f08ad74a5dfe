package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  sweep_id      TEXT NOT NULL,
  dataset       TEXT NOT NULL,
  activation    TEXT NOT NULL,
  init_strategy TEXT NOT NULL,
  seed          INTEGER NOT NULL,
  kind          TEXT NOT NULL,
  reason        TEXT,
  final_loss    REAL,
  final_acc     REAL,
  log_path      TEXT,
  duration_ms   INTEGER,
  finished_at   TEXT
);
CREATE INDEX IF NOT EXISTS outcomes_sweep ON outcomes (sweep_id);`

// SQLite is a ledger persisted in a SQLite database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the ledger database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// Writers from every worker share one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure ledger: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Outcome ledger opened.", "path", path)
	return &SQLite{db: db, path: path}, nil
}

// Record inserts one entry.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	var loss, acc sql.NullFloat64
	if e.HasMetrics {
		loss = sql.NullFloat64{Float64: e.FinalLoss, Valid: true}
		acc = sql.NullFloat64{Float64: e.FinalAcc, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO outcomes (sweep_id, dataset, activation, init_strategy, seed, kind, reason,
                      final_loss, final_acc, log_path, duration_ms, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SweepID, e.Config.Dataset, e.Config.Activation, e.Config.InitStrategy, e.Config.Seed,
		e.Kind.String(), e.Reason, loss, acc, e.LogPath,
		e.Duration.Milliseconds(), e.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", e.Config, err)
	}
	return nil
}

// Entries returns the sweep's entries in insertion order.
func (s *SQLite) Entries(ctx context.Context, sweepID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT dataset, activation, init_strategy, seed, kind, reason,
       final_loss, final_acc, log_path, duration_ms, finished_at
FROM outcomes WHERE sweep_id = ? ORDER BY id`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			cfg             sweep.RunConfiguration
			kind            string
			reason, logPath sql.NullString
			loss, acc       sql.NullFloat64
			durationMs      sql.NullInt64
			finished        sql.NullString
		)
		if err := rows.Scan(&cfg.Dataset, &cfg.Activation, &cfg.InitStrategy, &cfg.Seed,
			&kind, &reason, &loss, &acc, &logPath, &durationMs, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		k, ok := outcome.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("ledger row for %s has unknown kind %q", cfg, kind)
		}
		e := Entry{
			SweepID:    sweepID,
			Config:     cfg,
			Kind:       k,
			Reason:     reason.String,
			HasMetrics: loss.Valid && acc.Valid,
			FinalLoss:  loss.Float64,
			FinalAcc:   acc.Float64,
			LogPath:    logPath.String,
			Duration:   time.Duration(durationMs.Int64) * time.Millisecond,
		}
		if finished.Valid {
			if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("ledger row for %s: finished_at: %w", cfg, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }
