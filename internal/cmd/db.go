// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/db"
	"github.com/llbbl/repstudy/internal/store"
)

var (
	forceReset bool
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing the repstudy SQLite database.`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending database migrations",
	Long:  `Run all pending database migrations to update the schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		dbPath, err := db.ResolvePath(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("getting database path: %w", err)
		}

		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close(database)

		// Get version before migration
		versionBefore, _ := db.GetMigrationVersion(database)

		if err := db.RunMigrations(database); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		versionAfter, err := db.GetMigrationVersion(database)
		if err != nil {
			return fmt.Errorf("getting migration version: %w", err)
		}

		if versionBefore == versionAfter {
			fmt.Fprintf(out, "Database is already at version %d (no migrations needed)\n", versionAfter)
		} else {
			fmt.Fprintf(out, "Migrations complete: version %d -> %d\n", versionBefore, versionAfter)
		}

		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status and statistics",
	Long:  `Display database location, migration version, repository count and the latest run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		dbPath, err := db.ResolvePath(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("getting database path: %w", err)
		}

		fmt.Fprintf(out, "Database path: %s\n", dbPath)

		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			fmt.Fprintln(out, "Status: Database does not exist (run 'repstudy db migrate' to create)")
			return nil
		}

		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close(database)

		version, err := db.GetMigrationVersion(database)
		if err != nil {
			fmt.Fprintf(out, "Migration version: unknown (error: %v)\n", err)
		} else {
			fmt.Fprintf(out, "Migration version: %d\n", version)
		}

		st := store.New(database)
		printStoreStats(ctx, out, st)
		return nil
	},
}

var dbPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print database file location",
	Long:  `Print the path to the repstudy database file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := db.ResolvePath(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("getting database path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dbPath)
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset database (destructive)",
	Long: `Delete the database file and recreate it with fresh migrations.
This is a destructive operation that will delete all stored data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		dbPath, err := db.ResolvePath(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("getting database path: %w", err)
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			fmt.Fprintln(out, "Database does not exist, creating fresh database...")
		} else {
			if !forceReset {
				fmt.Fprintf(out, "WARNING: This will delete all data in %s\n", dbPath)
				fmt.Fprint(out, "Type 'yes' to confirm: ")

				reader := bufio.NewReader(cmd.InOrStdin())
				confirmation, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading confirmation: %w", err)
				}

				if strings.TrimSpace(strings.ToLower(confirmation)) != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("deleting database: %w", err)
			}
			fmt.Fprintf(out, "Deleted: %s\n", dbPath)
		}

		database, err := db.OpenAndMigrate(dbPath)
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		defer db.Close(database)

		version, err := db.GetMigrationVersion(database)
		if err != nil {
			return fmt.Errorf("getting migration version: %w", err)
		}

		fmt.Fprintf(out, "Created fresh database at version %d\n", version)
		return nil
	},
}

func init() {
	dbResetCmd.Flags().BoolVar(&forceReset, "force", false, "Skip confirmation prompt")

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbPathCmd)
	dbCmd.AddCommand(dbResetCmd)
}

// printStoreStats writes repository and run statistics. Query errors are
// reported inline so a partially migrated database still prints something.
func printStoreStats(ctx context.Context, out io.Writer, st *store.Store) {
	count, err := st.CountRepositories(ctx)
	if err != nil {
		fmt.Fprintf(out, "Repository count: unknown (error: %v)\n", err)
	} else {
		fmt.Fprintf(out, "Repository count: %d\n", count)
	}

	lastCollected, err := st.GetLastCollectedAt(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "Last collected: unknown (error: %v)\n", err)
	case lastCollected.IsZero():
		fmt.Fprintln(out, "Last collected: never")
	default:
		fmt.Fprintf(out, "Last collected: %s\n", lastCollected.Format("2006-01-02 15:04:05"))
	}

	run, err := st.GetLatestRun(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(out, "Latest run: none")
	case err != nil:
		fmt.Fprintf(out, "Latest run: unknown (error: %v)\n", err)
	default:
		fmt.Fprintf(out, "Latest run: #%d %s\n", run.ID, describeRun(*run))
	}
}
