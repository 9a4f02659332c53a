// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenAndMigrate(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { Close(database) })
	return database
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	defer Close(db)

	assert.NoError(t, db.Ping())
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "study.db")
	resolved, err := ResolvePath(path)
	require.NoError(t, err)

	db, err := OpenAndMigrate(resolved)
	require.NoError(t, err)
	defer Close(db)

	assert.FileExists(t, path)
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := openMigrated(t)

	queries := map[string]string{
		"repositories":  "SELECT id, owner, name, full_name, url, stars, merged_pull_requests, all_issues, closed_issues, releases, primary_language, created_at, updated_at, collected_at FROM repositories LIMIT 1",
		"runs":          "SELECT id, started_at, completed_at, search_query, target_count, page_size, items_processed, pages_fetched, succeeded, failed, termination_reason, error, duration_ms FROM runs LIMIT 1",
		"run_outcomes":  "SELECT id, run_id, position, full_name, status, reason, duration_ms FROM run_outcomes LIMIT 1",
		"repo_metrics":  "SELECT id, full_name, class_count, total_loc, cbo, wmc, dit, rfc, lcom, analyzed_at FROM repo_metrics LIMIT 1",
		"pull_requests": "SELECT id, full_name, number, state, created_at, merged_at, closed_at, description_length, changed_files, additions, deletions, reviews, comments, participants, collected_at FROM pull_requests LIMIT 1",
	}
	for table, query := range queries {
		_, err := db.Exec(query)
		assert.NoError(t, err, "%s table should exist with expected columns", table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openMigrated(t)

	assert.NoError(t, RunMigrations(db), "running migrations twice should be idempotent")
}

func TestGetMigrationVersion(t *testing.T) {
	db := openMigrated(t)

	version, err := GetMigrationVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestGetDefaultDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := GetDefaultDBPath()
	require.NoError(t, err)
	assert.Contains(t, path, ".repstudy")
	assert.Equal(t, "repstudy.db", filepath.Base(path))
}

func TestResolvePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "repstudy.db", filepath.Base(path))

	path, err = ResolvePath(MemoryPath)
	require.NoError(t, err)
	assert.Equal(t, MemoryPath, path)
}

func TestRepositoriesTable_UniqueConstraints(t *testing.T) {
	db := openMigrated(t)

	_, err := db.Exec(`INSERT INTO repositories (owner, name, full_name) VALUES ('test-owner', 'test-repo', 'test-owner/test-repo')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO repositories (owner, name, full_name) VALUES ('other-owner', 'other-repo', 'test-owner/test-repo')`)
	assert.Error(t, err, "duplicate full_name should violate unique constraint")

	_, err = db.Exec(`INSERT INTO repositories (owner, name, full_name) VALUES ('test-owner', 'test-repo', 'different/full-name')`)
	assert.Error(t, err, "duplicate owner+name should violate unique constraint")
}

func TestRunOutcomes_ForeignKeyAndStatusCheck(t *testing.T) {
	db := openMigrated(t)

	_, err := db.Exec(`INSERT INTO run_outcomes (run_id, position, full_name, status) VALUES (999, 1, 'a/b', 'success')`)
	assert.Error(t, err, "outcome must reference an existing run")

	res, err := db.Exec(`INSERT INTO runs (started_at, search_query, target_count, page_size) VALUES ('2026-01-01 00:00:00', 'q', 1, 1)`)
	require.NoError(t, err)
	runID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO run_outcomes (run_id, position, full_name, status) VALUES (?, 1, 'a/b', 'skipped')`, runID)
	assert.Error(t, err, "status is restricted to success or failure")
}
