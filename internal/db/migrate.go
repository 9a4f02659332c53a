// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// gooseLogger routes goose output through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "db")
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "component", "db")
}

func setupGoose() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return nil
}

// RunMigrations runs all pending database migrations.
func RunMigrations(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}

	// Get version before migrations
	versionBefore, err := goose.GetDBVersion(db)
	if err != nil {
		slog.Debug("could not get migration version before", "component", "db", "error", err)
		versionBefore = 0
	}

	slog.Debug("running migrations", "component", "db", "version_before", versionBefore)

	if err := goose.Up(db, "migrations"); err != nil {
		slog.Error("failed to run migrations", "component", "db", "error", err)
		return fmt.Errorf("running migrations: %w", err)
	}

	versionAfter, err := goose.GetDBVersion(db)
	if err != nil {
		slog.Debug("could not get migration version after", "component", "db", "error", err)
	} else if versionAfter != versionBefore {
		slog.Info("migrations complete", "component", "db", "version_before", versionBefore, "version_after", versionAfter)
	}

	return nil
}

// GetMigrationVersion returns the current migration version.
func GetMigrationVersion(db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("getting migration version: %w", err)
	}

	return version, nil
}
