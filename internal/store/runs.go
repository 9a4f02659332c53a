// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// RunParams describes a run at the moment it starts.
type RunParams struct {
	SearchQuery string
	TargetCount int
	PageSize    int
}

// RunRecord represents a run history entry.
type RunRecord struct {
	ID                int64      `json:"id"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"` // nil while running
	SearchQuery       string     `json:"searchQuery"`
	TargetCount       int        `json:"targetCount"`
	PageSize          int        `json:"pageSize"`
	ItemsProcessed    int        `json:"itemsProcessed"`
	PagesFetched      int        `json:"pagesFetched"`
	Succeeded         int        `json:"succeeded"`
	Failed            int        `json:"failed"`
	TerminationReason string     `json:"terminationReason,omitempty"` // empty while running
	ErrorMessage      string     `json:"error,omitempty"`
	DurationMs        int64      `json:"durationMs"`
}

// Running reports whether the run has not been completed.
func (r RunRecord) Running() bool {
	return r.CompletedAt == nil
}

// OutcomeRecord is one persisted entry of a run's outcome log.
type OutcomeRecord struct {
	Position   int    `json:"position"`
	FullName   string `json:"fullName"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// RecordRunStart creates a new run record and returns its ID.
func (s *Store) RecordRunStart(ctx context.Context, params RunParams) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, search_query, target_count, page_size)
		VALUES (?, ?, ?, ?)
	`, formatTimeForSQLite(s.now()), params.SearchQuery, params.TargetCount, params.PageSize)
	if err != nil {
		return 0, fmt.Errorf("inserting run record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

// RecordOutcome appends one outcome to a run's log and upserts the
// repository it refers to. position is 1-based.
func (s *Store) RecordOutcome(ctx context.Context, runID int64, position int, outcome pipeline.Outcome[github.Repository]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := s.upsertRepository(ctx, tx, outcome.Item); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_outcomes (run_id, position, full_name, status, reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, position, outcome.Item.FullName(), outcome.Status.String(), nullString(outcome.Reason), outcome.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting outcome %d of run %d: %w", position, runID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RecordRunComplete updates a run record with the final summary.
func (s *Store) RecordRunComplete(ctx context.Context, runID int64, summary pipeline.RunSummary[github.Repository]) error {
	now := s.now()
	startedAt, err := s.getRunStartedAt(ctx, runID)
	if err != nil {
		return fmt.Errorf("getting run started_at: %w", err)
	}

	var errMsg string
	if summary.Err != nil {
		errMsg = summary.Err.Error()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			completed_at = ?,
			items_processed = ?,
			pages_fetched = ?,
			succeeded = ?,
			failed = ?,
			termination_reason = ?,
			error = ?,
			duration_ms = ?
		WHERE id = ?
	`,
		formatTimeForSQLite(now),
		summary.ItemsProcessed,
		summary.PagesFetched,
		summary.Succeeded(),
		summary.Failed(),
		summary.Reason.String(),
		nullString(errMsg),
		now.Sub(startedAt).Milliseconds(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("updating run record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// getRunStartedAt retrieves the started_at time for a run record.
func (s *Store) getRunStartedAt(ctx context.Context, runID int64) (time.Time, error) {
	var startedAt string
	err := s.db.QueryRowContext(ctx, `SELECT started_at FROM runs WHERE id = ?`, runID).Scan(&startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}

	return parseTimeFromSQLite(startedAt)
}

const selectRunColumns = `
	SELECT id, started_at, completed_at, search_query, target_count, page_size,
	       items_processed, pages_fetched, succeeded, failed,
	       termination_reason, error, duration_ms
	FROM runs`

// GetRun returns a single run. Returns ErrNotFound if it does not exist.
func (s *Store) GetRun(ctx context.Context, runID int64) (*RunRecord, error) {
	record, err := scanRun(s.db.QueryRowContext(ctx, selectRunColumns+` WHERE id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &record, nil
}

// GetLatestRun returns the most recently started run.
// Returns ErrNotFound if no run has been recorded.
func (s *Store) GetLatestRun(ctx context.Context) (*RunRecord, error) {
	record, err := scanRun(s.db.QueryRowContext(ctx, selectRunColumns+` ORDER BY started_at DESC, id DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return &record, nil
}

// GetRunHistory returns the most recent runs, newest first.
func (s *Store) GetRunHistory(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRunColumns+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return records, nil
}

// GetRunOutcomes returns a run's outcome log in dispatch order.
func (s *Store) GetRunOutcomes(ctx context.Context, runID int64) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, full_name, status, reason, duration_ms
		FROM run_outcomes
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var reason sql.NullString
		if err := rows.Scan(&o.Position, &o.FullName, &o.Status, &reason, &o.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Reason = reason.String
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return outcomes, nil
}

// scanRun handles the common scanning logic for run records.
func scanRun(s scanner) (RunRecord, error) {
	var record RunRecord
	var startedAt, completedAt, reason, errorMessage sql.NullString
	var durationMs sql.NullInt64

	err := s.Scan(
		&record.ID,
		&startedAt,
		&completedAt,
		&record.SearchQuery,
		&record.TargetCount,
		&record.PageSize,
		&record.ItemsProcessed,
		&record.PagesFetched,
		&record.Succeeded,
		&record.Failed,
		&reason,
		&errorMessage,
		&durationMs,
	)
	if err != nil {
		return RunRecord{}, err
	}

	if record.StartedAt, err = parseNullTime(startedAt); err != nil {
		return RunRecord{}, fmt.Errorf("parsing started_at: %w", err)
	}

	if completedAt.Valid && completedAt.String != "" {
		t, err := parseTimeFromSQLite(completedAt.String)
		if err != nil {
			return RunRecord{}, fmt.Errorf("parsing completed_at: %w", err)
		}
		record.CompletedAt = &t
	}

	record.TerminationReason = reason.String
	record.ErrorMessage = errorMessage.String
	record.DurationMs = durationMs.Int64

	return record, nil
}
