package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProcessedRunStore = (*ProcessedRunRepo)(nil)

const lastUpdatedKey = "processed_runs.last_updated"

// ProcessedRunRepo is the SQLite implementation of the ProcessedRunStore port.
type ProcessedRunRepo struct {
	db  *DB
	now func() time.Time
}

// NewProcessedRunRepo creates a new ProcessedRunRepo backed by the given DB.
func NewProcessedRunRepo(db *DB) *ProcessedRunRepo {
	return &ProcessedRunRepo{db: db, now: time.Now}
}

// Load returns every stored run ID. Query failures are logged and yield an
// empty set.
func (r *ProcessedRunRepo) Load(ctx context.Context) model.RunIDSet {
	ids, err := r.loadIDs(ctx)
	if err != nil {
		slog.Warn("loading processed runs from sqlite, starting empty", "path", r.db.path, "error", err)
		return model.NewRunIDSet()
	}

	slog.Info("loaded processed run state", "path", r.db.path, "count", ids.Len())
	return ids
}

func (r *ProcessedRunRepo) loadIDs(ctx context.Context) (model.RunIDSet, error) {
	const query = `SELECT run_id FROM processed_runs`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query processed runs: %w", err)
	}
	defer rows.Close()

	ids := model.NewRunIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed run: %w", err)
		}
		ids.Add(id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed runs: %w", err)
	}

	return ids, nil
}

// Save atomically replaces the stored IDs with the MaxStoredRunIDs largest IDs
// of ids and records the save time.
func (r *ProcessedRunRepo) Save(ctx context.Context, ids model.RunIDSet) error {
	state := model.NewProcessedRunState(ids, r.now())

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	if _, err := tx.ExecContext(ctx, `DELETE FROM processed_runs`); err != nil {
		return fmt.Errorf("clear processed runs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO processed_runs (run_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare processed run insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range state.RunIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("insert processed run %d: %w", id, err)
		}
	}

	const metaQuery = `
		INSERT INTO state_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := tx.ExecContext(ctx, metaQuery, lastUpdatedKey, formatTime(state.LastUpdated)); err != nil {
		return fmt.Errorf("record last updated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed runs: %w", err)
	}

	return nil
}

// LastUpdated returns the time of the most recent Save, or the zero time if
// nothing has been saved.
func (r *ProcessedRunRepo) LastUpdated(ctx context.Context) (time.Time, error) {
	const query = `SELECT value FROM state_meta WHERE key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, lastUpdatedKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("query last updated: %w", err)
	}

	return parseTime(value)
}
