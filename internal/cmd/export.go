// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/export"
	"github.com/llbbl/repstudy/internal/store"
)

var exportOutDir string

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run and its outcome log as JSON",
	Long:  `Write a run record and its outcome log to a JSON file. Defaults to the latest run.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, _, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		var run *store.RunRecord
		if len(args) == 1 {
			var runID int64
			runID, err = parseRunID(args[0])
			if err != nil {
				return err
			}
			run, err = st.GetRun(ctx, runID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run %d not found", runID)
			}
		} else {
			run, err = st.GetLatestRun(ctx)
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("no runs recorded yet")
			}
		}
		if err != nil {
			return err
		}

		outcomes, err := st.GetRunOutcomes(ctx, run.ID)
		if err != nil {
			return err
		}

		path, err := export.ExportRun(exportOutDir, *run, outcomes)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported run #%d (%d outcomes) to %s\n", run.ID, len(outcomes), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutDir, "out", ".", "Directory to write the export into")
}
