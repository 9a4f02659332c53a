// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/export"
	"github.com/llbbl/repstudy/internal/study"
)

var (
	analyzeJSON   bool
	analyzeOutDir string
	analyzeStudy  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate CK metrics or pull request reviews with their drivers",
	Long: `With --study quality (the default), answer the four research questions over
every repository with CK metrics: popularity (stars), maturity (age), activity
and size, each correlated with the quality metrics.

With --study reviews, answer the eight code review questions over every sampled
pull request: size, time open, description length and interaction, each
correlated with the merge outcome and with the number of reviews.

Correlations use Spearman's rank correlation.

The Markdown report is written to stdout. --json writes the raw report instead;
--out writes JSON, Markdown and an HTML chart page into a directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		st, _, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		now := time.Now()
		var report *study.Report
		var hint string
		switch study.Kind(analyzeStudy) {
		case study.Quality:
			rows, loadErr := st.GetStudyDataset(ctx)
			if loadErr != nil {
				return loadErr
			}
			report, err = study.Analyze(study.FromRows(rows, now), now)
			hint = "repstudy collect --ck-jar <path>"
		case study.Reviews:
			rows, loadErr := st.GetPullRequestDataset(ctx)
			if loadErr != nil {
				return loadErr
			}
			report, err = study.AnalyzeReviews(study.PullRequestsFromRows(rows), now)
			hint = "repstudy collect --pull-requests"
		default:
			return fmt.Errorf("invalid --study %q: must be one of [quality reviews]", analyzeStudy)
		}
		if err != nil {
			if errors.Is(err, study.ErrInsufficientData) {
				return fmt.Errorf("%w; run '%s' first", err, hint)
			}
			return err
		}

		if analyzeOutDir != "" {
			paths, err := export.ExportStudy(analyzeOutDir, report)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(out, "Wrote %s\n", p)
			}
			return nil
		}

		if analyzeJSON {
			return export.WriteStudyJSON(out, report)
		}
		return export.WriteReport(out, report)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Write the report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out", "", "Write JSON, Markdown and HTML reports into this directory")
	analyzeCmd.Flags().StringVar(&analyzeStudy, "study", string(study.Quality), "Study to run: quality or reviews")
}
