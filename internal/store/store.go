// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package store provides the data access layer for collected repositories,
// run history and analysis metrics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/llbbl/repstudy/internal/github"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides data access methods backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store with the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertRepositorySQL = `
	INSERT INTO repositories (
		owner, name, full_name, url, stars, merged_pull_requests,
		all_issues, closed_issues, releases, primary_language,
		created_at, updated_at, collected_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(full_name) DO UPDATE SET
		url = excluded.url,
		stars = excluded.stars,
		merged_pull_requests = excluded.merged_pull_requests,
		all_issues = excluded.all_issues,
		closed_issues = excluded.closed_issues,
		releases = excluded.releases,
		primary_language = excluded.primary_language,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		collected_at = excluded.collected_at
`

// upsertRepository inserts or refreshes a single repository. Existing rows
// are updated in place so dependent metrics and pull requests survive.
func (s *Store) upsertRepository(ctx context.Context, ex execer, repo github.Repository) error {
	_, err := ex.ExecContext(ctx, upsertRepositorySQL, repositoryArgs(repo, s.now())...)
	if err != nil {
		return fmt.Errorf("upserting repository %s: %w", repo.FullName(), err)
	}
	return nil
}

func repositoryArgs(repo github.Repository, collectedAt time.Time) []any {
	return []any{
		repo.Owner,
		repo.Name,
		repo.FullName(),
		nullString(repo.URL),
		repo.Stargazers,
		repo.MergedPullRequests,
		repo.AllIssues,
		repo.ClosedIssues,
		repo.Releases,
		nullString(repo.PrimaryLanguage),
		formatTimeForSQLite(repo.CreatedAt),
		formatTimeForSQLite(repo.UpdatedAt),
		formatTimeForSQLite(collectedAt),
	}
}

const selectRepositoryColumns = `
	SELECT r.owner, r.name, r.url, r.stars, r.merged_pull_requests,
	       r.all_issues, r.closed_issues, r.releases, r.primary_language,
	       r.created_at, r.updated_at
	FROM repositories r`

// GetRepository loads a single repo by owner and name.
// Returns ErrNotFound if the repository does not exist.
func (s *Store) GetRepository(ctx context.Context, owner, name string) (*github.Repository, error) {
	row := s.db.QueryRowContext(ctx, selectRepositoryColumns+` WHERE r.owner = ? AND r.name = ?`, owner, name)

	repo, err := scanRepo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying repository: %w", err)
	}

	return &repo, nil
}

// GetRepositories returns all stored repositories ordered by stars descending.
func (s *Store) GetRepositories(ctx context.Context) ([]github.Repository, error) {
	rows, err := s.db.QueryContext(ctx, selectRepositoryColumns+` ORDER BY r.stars DESC, r.full_name`)
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}
	defer rows.Close()

	var repos []github.Repository
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return repos, nil
}

// CountRepositories returns the number of stored repositories.
func (s *Store) CountRepositories(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting repositories: %w", err)
	}
	return count, nil
}

// GetLastCollectedAt returns when any repository was last collected.
// Returns zero time if the table is empty.
func (s *Store) GetLastCollectedAt(ctx context.Context) (time.Time, error) {
	var collectedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(collected_at) FROM repositories`).Scan(&collectedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last collection time: %w", err)
	}

	if !collectedAt.Valid || collectedAt.String == "" {
		return time.Time{}, nil
	}

	t, err := parseTimeFromSQLite(collectedAt.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing collection time: %w", err)
	}

	return t, nil
}

// scanner is an interface for both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRepo handles the common repository scanning logic.
func scanRepo(s scanner) (github.Repository, error) {
	var repo github.Repository
	var url, primaryLanguage, createdAt, updatedAt sql.NullString

	err := s.Scan(
		&repo.Owner,
		&repo.Name,
		&url,
		&repo.Stargazers,
		&repo.MergedPullRequests,
		&repo.AllIssues,
		&repo.ClosedIssues,
		&repo.Releases,
		&primaryLanguage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return github.Repository{}, err
	}

	repo.URL = url.String
	repo.PrimaryLanguage = primaryLanguage.String

	if repo.CreatedAt, err = parseNullTime(createdAt); err != nil {
		return github.Repository{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if repo.UpdatedAt, err = parseNullTime(updatedAt); err != nil {
		return github.Repository{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	return repo, nil
}

// nullString returns a sql.NullString for the given string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// sqliteTimeFormat is the standard SQLite datetime format.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// formatTimeForSQLite converts a time to SQLite format string, or nil if zero.
func formatTimeForSQLite(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(sqliteTimeFormat)
}

// parseNullTime parses a nullable SQLite time column.
func parseNullTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return parseTimeFromSQLite(ns.String)
}

// parseTimeFromSQLite parses a time string from SQLite, handling multiple formats.
func parseTimeFromSQLite(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	// Try common SQLite formats
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.999999999Z",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
