// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/llbbl/repstudy/internal/study"
)

// WriteReport renders the study as a Markdown document: one section per
// research question with a correlation table and an interpretation line for
// each pair.
func WriteReport(w io.Writer, report *study.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n", report.Kind.Title())
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Generated %s from %d %s.\n",
		report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), report.N, report.Kind.Subject())

	for _, f := range report.Findings {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "## %s: %s\n\n", f.Question.ID, f.Question.Title)
		fmt.Fprintln(bw, "| Metric | Spearman rho | p-value | Strength |")
		fmt.Fprintln(bw, "|---|---:|---:|---|")
		for _, c := range f.Correlations {
			strength := study.Strength(c.Rho)
			if !c.Significant() {
				strength = "not significant"
			}
			fmt.Fprintf(bw, "| %s | %.3f | %.3f | %s |\n", pairLabel(f.Question, c.Factor, c.Metric), c.Rho, c.PValue, strength)
		}
		for _, p := range f.Skipped {
			fmt.Fprintf(bw, "| %s | n/a | n/a | constant input |\n", pairLabel(f.Question, p.Factor, p.Metric))
		}

		if len(f.Correlations) > 0 {
			fmt.Fprintln(bw)
			for _, c := range f.Correlations {
				fmt.Fprintf(bw, "- %s\n", c.Interpret())
			}
		}
	}

	if len(report.Observations) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "## Dataset")
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "| Repository | Stars | Age (years) | Activity | Classes | LOC | CBO | WMC | DIT | RFC | LCOM |")
		fmt.Fprintln(bw, "|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|")
		for _, o := range report.Observations {
			m := o.Metrics
			fmt.Fprintf(bw, "| %s | %.0f | %.1f | %.1f | %d | %d | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
				escapeCell(o.FullName), o.Stars, o.AgeYears, o.ActivityScore,
				m.ClassCount, m.TotalLOC, m.CBO, m.WMC, m.DIT, m.RFC, m.LCOM)
		}
	}

	if len(report.PullRequests) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "## Dataset")
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "| Repository | PR | Merged | Files | Lines | Hours open | Description | Participants | Comments | Reviews |")
		fmt.Fprintln(bw, "|---|---:|---|---:|---:|---:|---:|---:|---:|---:|")
		for _, o := range report.PullRequests {
			merged := "no"
			if o.Merged {
				merged = "yes"
			}
			fmt.Fprintf(bw, "| %s | #%d | %s | %d | %d | %.1f | %d | %d | %d | %d |\n",
				escapeCell(o.FullName), o.Number, merged, o.ChangedFiles, o.LinesChanged,
				o.OpenHours, o.DescriptionLength, o.Participants, o.Comments, o.Reviews)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// pairLabel names a table row or bar. Questions with several factors prefix
// the factor so rows stay distinguishable.
func pairLabel(q study.Question, f study.Factor, m study.Metric) string {
	if len(q.Factors) > 1 {
		return f.Label() + " / " + m.Label()
	}
	return m.Label()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
