// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/review"
)

var _ review.Sink = (*Store)(nil)

// PullRequestRow is one sampled pull request and the repository it belongs to.
type PullRequestRow struct {
	FullName    string
	PullRequest github.PullRequest
}

// SavePullRequests replaces the stored sample for repo, upserting the
// repository first. It implements review.Sink.
func (s *Store) SavePullRequests(ctx context.Context, repo github.Repository, prs []github.PullRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := s.upsertRepository(ctx, tx, repo); err != nil {
		return err
	}

	fullName := repo.FullName()
	if _, err := tx.ExecContext(ctx, `DELETE FROM pull_requests WHERE full_name = ?`, fullName); err != nil {
		return fmt.Errorf("clearing pull requests for %s: %w", fullName, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pull_requests (
			full_name, number, state, created_at, merged_at, closed_at,
			description_length, changed_files, additions, deletions,
			reviews, comments, participants, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	collectedAt := formatTimeForSQLite(s.now())
	for _, pr := range prs {
		_, err := stmt.ExecContext(ctx,
			fullName, pr.Number, string(pr.State),
			formatTimeForSQLite(pr.CreatedAt),
			formatTimeForSQLite(pr.MergedAt),
			formatTimeForSQLite(pr.ClosedAt),
			pr.DescriptionLength, pr.ChangedFiles, pr.Additions, pr.Deletions,
			pr.Reviews, pr.Comments, pr.Participants, collectedAt,
		)
		if err != nil {
			return fmt.Errorf("saving pull request %s#%d: %w", fullName, pr.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CountPullRequests returns how many sampled pull requests are stored for a repository.
func (s *Store) CountPullRequests(ctx context.Context, fullName string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pull_requests WHERE full_name = ?`, fullName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pull requests: %w", err)
	}
	return count, nil
}

// GetPullRequestDataset returns every sampled pull request, grouped by
// repository and newest first within each.
func (s *Store) GetPullRequestDataset(ctx context.Context) ([]PullRequestRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT full_name, number, state, created_at, merged_at, closed_at,
		       description_length, changed_files, additions, deletions,
		       reviews, comments, participants
		FROM pull_requests
		ORDER BY full_name, number DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pull request dataset: %w", err)
	}
	defer rows.Close()

	var dataset []PullRequestRow
	for rows.Next() {
		var row PullRequestRow
		var state string
		var createdAt, mergedAt, closedAt sql.NullString
		pr := &row.PullRequest
		err := rows.Scan(
			&row.FullName,
			&pr.Number,
			&state,
			&createdAt,
			&mergedAt,
			&closedAt,
			&pr.DescriptionLength,
			&pr.ChangedFiles,
			&pr.Additions,
			&pr.Deletions,
			&pr.Reviews,
			&pr.Comments,
			&pr.Participants,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning pull request row: %w", err)
		}

		pr.State = github.PullRequestState(state)
		if pr.CreatedAt, err = parseNullTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if pr.MergedAt, err = parseNullTime(mergedAt); err != nil {
			return nil, fmt.Errorf("parsing merged_at: %w", err)
		}
		if pr.ClosedAt, err = parseNullTime(closedAt); err != nil {
			return nil, fmt.Errorf("parsing closed_at: %w", err)
		}

		dataset = append(dataset, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return dataset, nil
}
