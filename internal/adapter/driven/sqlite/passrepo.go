package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PassStore = (*PassRepo)(nil)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// PassRepo is the SQLite implementation of the PassStore port.
type PassRepo struct {
	db *DB
}

// NewPassRepo creates a new PassRepo backed by the given DB.
func NewPassRepo(db *DB) *PassRepo {
	return &PassRepo{db: db}
}

// Record inserts a pass summary. Recording the same ID twice replaces the row.
func (r *PassRepo) Record(ctx context.Context, s model.PassSummary) error {
	const query = `
		INSERT INTO collection_passes (
			id, repo, started_at, finished_at, total,
			skipped_duplicate, skipped_branch, skipped_incomplete, skipped_cancelled, skipped_timing,
			processed, jobs_recorded, stored_ids, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			total = excluded.total,
			skipped_duplicate = excluded.skipped_duplicate,
			skipped_branch = excluded.skipped_branch,
			skipped_incomplete = excluded.skipped_incomplete,
			skipped_cancelled = excluded.skipped_cancelled,
			skipped_timing = excluded.skipped_timing,
			processed = excluded.processed,
			jobs_recorded = excluded.jobs_recorded,
			stored_ids = excluded.stored_ids,
			error = excluded.error
	`

	var finishedAt any
	if !s.FinishedAt.IsZero() {
		finishedAt = formatTime(s.FinishedAt)
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		s.ID, s.Repo, formatTime(s.StartedAt), finishedAt, s.Total,
		s.SkippedDuplicate, s.SkippedBranch, s.SkippedIncomplete, s.SkippedCancelled, s.SkippedTiming,
		s.Processed, s.JobsRecorded, s.StoredIDs, s.Error,
	)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", s.ID, err)
	}

	return nil
}

// ListRecent returns up to limit passes, newest first.
func (r *PassRepo) ListRecent(ctx context.Context, limit int) ([]model.PassSummary, error) {
	const query = `
		SELECT id, repo, started_at, finished_at, total,
			skipped_duplicate, skipped_branch, skipped_incomplete, skipped_cancelled, skipped_timing,
			processed, jobs_recorded, stored_ids, error
		FROM collection_passes
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []model.PassSummary
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}

	return passes, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPass(s scanner) (*model.PassSummary, error) {
	var p model.PassSummary
	var startedAt string
	var finishedAt sql.NullString

	err := s.Scan(
		&p.ID, &p.Repo, &startedAt, &finishedAt, &p.Total,
		&p.SkippedDuplicate, &p.SkippedBranch, &p.SkippedIncomplete, &p.SkippedCancelled, &p.SkippedTiming,
		&p.Processed, &p.JobsRecorded, &p.StoredIDs, &p.Error,
	)
	if err != nil {
		return nil, err
	}

	p.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}

	if finishedAt.Valid {
		p.FinishedAt, err = parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
	}

	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
