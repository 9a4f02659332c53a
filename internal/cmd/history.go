// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past collection runs",
	Long: `Without arguments, list the most recent collection runs.
With a run ID, print that run's outcome log in dispatch order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		st, _, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if len(args) == 1 {
			runID, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			run, err := st.GetRun(ctx, runID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("run %d not found", runID)
				}
				return err
			}
			outcomes, err := st.GetRunOutcomes(ctx, runID)
			if err != nil {
				return err
			}
			printRunDetail(out, *run, outcomes)
			return nil
		}

		if historyLimit < 1 {
			return fmt.Errorf("--limit must be at least 1")
		}
		runs, err := st.GetRunHistory(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "#%-4d %s  %s\n", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04"), describeRun(run))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid run ID %q", s)
	}
	return id, nil
}

// describeRun renders a one-line run summary.
func describeRun(run store.RunRecord) string {
	if run.Running() {
		return fmt.Sprintf("running (target %d, query %q)", run.TargetCount, run.SearchQuery)
	}
	line := fmt.Sprintf("%s: %d items (%d ok, %d failed) in %d pages, %s",
		run.TerminationReason, run.ItemsProcessed, run.Succeeded, run.Failed, run.PagesFetched,
		(time.Duration(run.DurationMs) * time.Millisecond).Round(time.Millisecond))
	if run.ErrorMessage != "" {
		line += " - " + run.ErrorMessage
	}
	return line
}

func printRunDetail(out io.Writer, run store.RunRecord, outcomes []store.OutcomeRecord) {
	fmt.Fprintf(out, "Run #%d\n", run.ID)
	fmt.Fprintf(out, "Query:   %s\n", run.SearchQuery)
	fmt.Fprintf(out, "Target:  %d (page size %d)\n", run.TargetCount, run.PageSize)
	fmt.Fprintf(out, "Result:  %s\n", describeRun(run))
	if len(outcomes) == 0 {
		fmt.Fprintln(out, "No outcomes recorded.")
		return
	}
	fmt.Fprintln(out)
	for _, o := range outcomes {
		line := fmt.Sprintf("%4d  %-7s  %s", o.Position, o.Status, o.FullName)
		if o.Reason != "" {
			line += "  " + o.Reason
		}
		fmt.Fprintln(out, line)
	}
}
