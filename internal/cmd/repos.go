// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/store"
)

var reposLimit int

var reposCmd = &cobra.Command{
	Use:   "repos [owner/name]",
	Short: "List collected repositories",
	Long: `Without arguments, list collected repositories by stars, marking those with
CK metrics and the number of sampled pull requests.
With owner/name, print that repository's fields and stored measurements.`,
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
			owner, name, ok := strings.Cut(args[0], "/")
			if !ok || owner == "" || name == "" {
				return fmt.Errorf("invalid repository %q: want owner/name", args[0])
			}
			repo, err := st.GetRepository(ctx, owner, name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("repository %s not collected", args[0])
				}
				return err
			}
			return printRepoDetail(ctx, out, st, *repo)
		}

		if reposLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		repos, err := st.GetRepositories(ctx)
		if err != nil {
			return err
		}
		if len(repos) == 0 {
			fmt.Fprintln(out, "No repositories collected yet.")
			return nil
		}
		if reposLimit > 0 && len(repos) > reposLimit {
			repos = repos[:reposLimit]
		}
		for _, repo := range repos {
			line, err := describeRepo(ctx, st, repo)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	reposCmd.Flags().IntVar(&reposLimit, "limit", 20, "Number of repositories to list, 0 for all")
}

// describeRepo renders one list line.
func describeRepo(ctx context.Context, st *store.Store, repo github.Repository) (string, error) {
	measured := "-"
	if _, err := st.GetMetrics(ctx, repo.FullName()); err == nil {
		measured = "ck"
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	prs, err := st.CountPullRequests(ctx, repo.FullName())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%-40s %8d stars  %-2s  %3d PRs", repo.FullName(), repo.Stargazers, measured, prs), nil
}

func printRepoDetail(ctx context.Context, out io.Writer, st *store.Store, repo github.Repository) error {
	fmt.Fprintf(out, "%s\n", repo.FullName())
	fmt.Fprintf(out, "URL:           %s\n", repo.URL)
	fmt.Fprintf(out, "Language:      %s\n", valueOr(repo.PrimaryLanguage, "unknown"))
	fmt.Fprintf(out, "Stars:         %d\n", repo.Stargazers)
	fmt.Fprintf(out, "Merged PRs:    %d\n", repo.MergedPullRequests)
	fmt.Fprintf(out, "Issues:        %d (%d closed)\n", repo.AllIssues, repo.ClosedIssues)
	fmt.Fprintf(out, "Releases:      %d\n", repo.Releases)
	if !repo.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:       %s\n", repo.CreatedAt.Format("2006-01-02"))
	}

	m, err := st.GetMetrics(ctx, repo.FullName())
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(out, "CK metrics:    not analyzed")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "CK metrics:    %d classes, %d LOC\n", m.ClassCount, m.TotalLOC)
		fmt.Fprintf(out, "               CBO %.2f  WMC %.2f  DIT %.2f  RFC %.2f  LCOM %.2f\n", m.CBO, m.WMC, m.DIT, m.RFC, m.LCOM)
	}

	prs, err := st.CountPullRequests(ctx, repo.FullName())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sampled PRs:   %d\n", prs)
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
