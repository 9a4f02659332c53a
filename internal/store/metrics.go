// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/llbbl/repstudy/internal/ck"
	"github.com/llbbl/repstudy/internal/github"
)

var _ ck.MetricsSink = (*Store)(nil)

// StudyRow joins a repository with its CK metrics.
type StudyRow struct {
	Repository github.Repository
	Metrics    ck.Metrics
	AnalyzedAt time.Time
}

// SaveMetrics stores the CK metrics for repo, upserting the repository first.
// It implements ck.MetricsSink.
func (s *Store) SaveMetrics(ctx context.Context, repo github.Repository, m ck.Metrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := s.upsertRepository(ctx, tx, repo); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO repo_metrics (full_name, class_count, total_loc, cbo, wmc, dit, rfc, lcom, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			class_count = excluded.class_count,
			total_loc = excluded.total_loc,
			cbo = excluded.cbo,
			wmc = excluded.wmc,
			dit = excluded.dit,
			rfc = excluded.rfc,
			lcom = excluded.lcom,
			analyzed_at = excluded.analyzed_at
	`, repo.FullName(), m.ClassCount, m.TotalLOC, m.CBO, m.WMC, m.DIT, m.RFC, m.LCOM, formatTimeForSQLite(s.now()))
	if err != nil {
		return fmt.Errorf("saving metrics for %s: %w", repo.FullName(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetMetrics returns the stored metrics for a repository.
// Returns ErrNotFound if the repository has not been analyzed.
func (s *Store) GetMetrics(ctx context.Context, fullName string) (*ck.Metrics, error) {
	var m ck.Metrics
	err := s.db.QueryRowContext(ctx, `
		SELECT class_count, total_loc, cbo, wmc, dit, rfc, lcom
		FROM repo_metrics WHERE full_name = ?
	`, fullName).Scan(&m.ClassCount, &m.TotalLOC, &m.CBO, &m.WMC, &m.DIT, &m.RFC, &m.LCOM)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	return &m, nil
}

// GetStudyDataset returns every repository that has metrics, ordered by stars descending.
func (s *Store) GetStudyDataset(ctx context.Context) ([]StudyRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.owner, r.name, r.url, r.stars, r.merged_pull_requests,
		       r.all_issues, r.closed_issues, r.releases, r.primary_language,
		       r.created_at, r.updated_at,
		       m.class_count, m.total_loc, m.cbo, m.wmc, m.dit, m.rfc, m.lcom, m.analyzed_at
		FROM repositories r
		JOIN repo_metrics m ON m.full_name = r.full_name
		ORDER BY r.stars DESC, r.full_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying study dataset: %w", err)
	}
	defer rows.Close()

	var dataset []StudyRow
	for rows.Next() {
		var row StudyRow
		var url, primaryLanguage, createdAt, updatedAt, analyzedAt sql.NullString
		err := rows.Scan(
			&row.Repository.Owner,
			&row.Repository.Name,
			&url,
			&row.Repository.Stargazers,
			&row.Repository.MergedPullRequests,
			&row.Repository.AllIssues,
			&row.Repository.ClosedIssues,
			&row.Repository.Releases,
			&primaryLanguage,
			&createdAt,
			&updatedAt,
			&row.Metrics.ClassCount,
			&row.Metrics.TotalLOC,
			&row.Metrics.CBO,
			&row.Metrics.WMC,
			&row.Metrics.DIT,
			&row.Metrics.RFC,
			&row.Metrics.LCOM,
			&analyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning study row: %w", err)
		}

		row.Repository.URL = url.String
		row.Repository.PrimaryLanguage = primaryLanguage.String
		if row.Repository.CreatedAt, err = parseNullTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if row.Repository.UpdatedAt, err = parseNullTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		if row.AnalyzedAt, err = parseNullTime(analyzedAt); err != nil {
			return nil, fmt.Errorf("parsing analyzed_at: %w", err)
		}

		dataset = append(dataset, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return dataset, nil
}
