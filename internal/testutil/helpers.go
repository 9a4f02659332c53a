// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package testutil provides testing utilities and helpers for the repstudy project.
package testutil

import (
	"fmt"
	"time"

	"github.com/llbbl/repstudy/internal/github"
)

// RepoOption is a functional option for configuring test repositories.
type RepoOption func(*github.Repository)

// NewTestRepo creates a Repository with sensible defaults for testing.
// Use the With* option functions to customize specific fields.
func NewTestRepo(opts ...RepoOption) github.Repository {
	repo := github.Repository{
		Owner:              "testowner",
		Name:               "testrepo",
		Stargazers:         1500,
		MergedPullRequests: 40,
		AllIssues:          120,
		ClosedIssues:       100,
		Releases:           6,
		PrimaryLanguage:    "Java",
		CreatedAt:          time.Now().AddDate(-5, 0, 0).UTC().Truncate(time.Second),
		UpdatedAt:          time.Now().AddDate(0, 0, -3).UTC().Truncate(time.Second),
	}

	for _, opt := range opts {
		opt(&repo)
	}

	if repo.URL == "" {
		repo.URL = "https://github.com/" + repo.FullName()
	}
	return repo
}

// NewTestRepos returns n repositories named repo-1..repo-n with descending stars.
func NewTestRepos(n int, opts ...RepoOption) []github.Repository {
	repos := make([]github.Repository, n)
	for i := range repos {
		base := []RepoOption{WithName(fmt.Sprintf("repo-%d", i+1)), WithStars(10000 - i*100)}
		repos[i] = NewTestRepo(append(base, opts...)...)
	}
	return repos
}

// WithOwner sets the repository owner.
func WithOwner(owner string) RepoOption {
	return func(r *github.Repository) {
		r.Owner = owner
	}
}

// WithName sets the repository name.
func WithName(name string) RepoOption {
	return func(r *github.Repository) {
		r.Name = name
	}
}

// WithStars sets the stargazer count.
func WithStars(n int) RepoOption {
	return func(r *github.Repository) {
		r.Stargazers = n
	}
}

// WithReleases sets the release count.
func WithReleases(n int) RepoOption {
	return func(r *github.Repository) {
		r.Releases = n
	}
}

// WithIssues sets the total and closed issue counts.
func WithIssues(all, closed int) RepoOption {
	return func(r *github.Repository) {
		r.AllIssues = all
		r.ClosedIssues = closed
	}
}

// WithMergedPullRequests sets the merged pull request count.
func WithMergedPullRequests(n int) RepoOption {
	return func(r *github.Repository) {
		r.MergedPullRequests = n
	}
}

// WithLanguage sets the primary language.
func WithLanguage(lang string) RepoOption {
	return func(r *github.Repository) {
		r.PrimaryLanguage = lang
	}
}

// WithCreatedAt sets the creation time.
func WithCreatedAt(t time.Time) RepoOption {
	return func(r *github.Repository) {
		r.CreatedAt = t
	}
}

// WithAgeYears sets the creation time to n years ago.
func WithAgeYears(n int) RepoOption {
	return func(r *github.Repository) {
		r.CreatedAt = time.Now().AddDate(-n, 0, 0).UTC().Truncate(time.Second)
	}
}

// PullRequestOption is a functional option for configuring test pull requests.
type PullRequestOption func(*github.PullRequest)

// NewTestPullRequest creates a merged pull request with one review that stayed
// open for a day.
func NewTestPullRequest(number int, opts ...PullRequestOption) github.PullRequest {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(number) * time.Hour)
	pr := github.PullRequest{
		Number:            number,
		State:             github.Merged,
		CreatedAt:         created,
		MergedAt:          created.Add(24 * time.Hour),
		ClosedAt:          created.Add(24 * time.Hour),
		DescriptionLength: 200,
		ChangedFiles:      4,
		Additions:         80,
		Deletions:         20,
		Reviews:           1,
		Comments:          3,
		Participants:      2,
	}

	for _, opt := range opts {
		opt(&pr)
	}
	return pr
}

// NewTestPullRequests returns n pull requests numbered n..1, newest first.
func NewTestPullRequests(n int, opts ...PullRequestOption) []github.PullRequest {
	prs := make([]github.PullRequest, n)
	for i := range prs {
		prs[i] = NewTestPullRequest(n-i, opts...)
	}
	return prs
}

// WithReviews sets the review count.
func WithReviews(n int) PullRequestOption {
	return func(pr *github.PullRequest) {
		pr.Reviews = n
	}
}

// WithOpenFor sets how long the pull request stayed open.
func WithOpenFor(d time.Duration) PullRequestOption {
	return func(pr *github.PullRequest) {
		end := pr.CreatedAt.Add(d)
		pr.ClosedAt = end
		if pr.State == github.Merged {
			pr.MergedAt = end
		}
	}
}

// WithClosedUnmerged marks the pull request closed without merging.
func WithClosedUnmerged() PullRequestOption {
	return func(pr *github.PullRequest) {
		pr.State = github.Closed
		pr.MergedAt = time.Time{}
	}
}
