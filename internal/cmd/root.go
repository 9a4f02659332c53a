// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package cmd implements the repstudy command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/config"
	"github.com/llbbl/repstudy/internal/db"
	"github.com/llbbl/repstudy/internal/logging"
	"github.com/llbbl/repstudy/internal/store"
)

// Version is set at build time with -ldflags
var Version = "dev"

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

// Flag variables
var (
	dbPathFlag    string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "repstudy",
	Short: "Repository quality study - collect GitHub repositories and correlate CK metrics",
	Long: `repstudy walks the GitHub repository search API page by page, records every
repository it sees, optionally clones each one and measures it with the CK
metrics tool, and correlates the results with popularity, maturity, activity
and size.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyRootFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "repstudy version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (default ~/.repstudy/repstudy.db)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: text, json")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reposCmd)
}

// applyRootFlags overrides environment configuration with explicitly set flags.
func applyRootFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPathFlag
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevelFlag
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormatFlag
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore resolves the configured database path, applies migrations and
// returns a store plus a close function.
func openStore() (*store.Store, string, func(), error) {
	path, err := db.ResolvePath(cfg.DBPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("getting database path: %w", err)
	}

	database, err := db.OpenAndMigrate(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening database: %w", err)
	}

	return store.New(database), path, func() { db.Close(database) }, nil
}
