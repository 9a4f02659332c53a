// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/pipeline"
)

func TestNewTestRepo_DefaultValues(t *testing.T) {
	repo := NewTestRepo()

	assert.Equal(t, "testowner", repo.Owner)
	assert.Equal(t, "testrepo", repo.Name)
	assert.Equal(t, "https://github.com/testowner/testrepo", repo.URL)
	assert.Equal(t, 1500, repo.Stargazers)
	assert.Equal(t, "Java", repo.PrimaryLanguage)
	assert.InDelta(t, 5, repo.AgeYears(time.Now()), 0.05)
}

func TestNewTestRepo_WithOptions(t *testing.T) {
	repo := NewTestRepo(
		WithOwner("customowner"),
		WithName("customrepo"),
		WithStars(100),
		WithReleases(3),
		WithIssues(10, 4),
		WithMergedPullRequests(7),
		WithLanguage("Kotlin"),
		WithAgeYears(2),
	)

	assert.Equal(t, "customowner/customrepo", repo.FullName())
	assert.Equal(t, 100, repo.Stargazers)
	assert.Equal(t, 3, repo.Releases)
	assert.Equal(t, 10, repo.AllIssues)
	assert.Equal(t, 4, repo.ClosedIssues)
	assert.Equal(t, 7, repo.MergedPullRequests)
	assert.Equal(t, "Kotlin", repo.PrimaryLanguage)
	assert.InDelta(t, 2, repo.AgeYears(time.Now()), 0.05)
}

func TestNewTestRepos(t *testing.T) {
	repos := NewTestRepos(3, WithOwner("o"))

	require.Len(t, repos, 3)
	assert.Equal(t, "o/repo-1", repos[0].FullName())
	assert.Equal(t, "o/repo-3", repos[2].FullName())
	assert.Greater(t, repos[0].Stargazers, repos[2].Stargazers)
}

func TestCannedFetcher(t *testing.T) {
	f := NewCannedFetcher(NewTestRepos(5), 2)
	require.Len(t, f.Pages, 3)
	assert.True(t, f.Pages[0].HasNextPage)
	assert.False(t, f.Pages[2].HasNextPage)
	assert.Len(t, f.Pages[2].Items, 1)

	ctx := context.Background()
	page, err := f.Fetch(ctx, 2, pipeline.Cursor{})
	require.NoError(t, err)
	assert.Equal(t, "repo-1", page.Items[0].Name)

	boom := errors.New("boom")
	f.FailOn(2, boom)
	_, err = f.Fetch(ctx, 2, page.NextCursor)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, f.CallCount())
	assert.Equal(t, "cursor-1", f.Cursors[1].String())
}

func TestNewTestPullRequests(t *testing.T) {
	prs := NewTestPullRequests(3, WithReviews(2))
	require.Len(t, prs, 3)
	assert.Equal(t, 3, prs[0].Number)
	assert.Equal(t, 1, prs[2].Number)
	assert.Equal(t, 2, prs[1].Reviews)
	assert.Equal(t, 24*time.Hour, prs[0].Duration())

	closed := NewTestPullRequest(7, WithClosedUnmerged(), WithOpenFor(time.Minute))
	assert.False(t, closed.IsMerged())
	assert.True(t, closed.MergedAt.IsZero())
	assert.Equal(t, time.Minute, closed.Duration())
}

func TestMockExecutor(t *testing.T) {
	m := NewMockExecutor()
	m.ExecuteFunc = func(name string, args ...string) ([]byte, error) {
		return []byte("ok"), nil
	}

	out, err := m.Execute(context.Background(), "java", "-version")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, []string{"java", "-version"}, m.GetCall(0))
	assert.Nil(t, m.GetCall(5))

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestCKExecutor_WritesReport(t *testing.T) {
	out := t.TempDir() + string(filepath.Separator)
	m := NewCKExecutor("file,class\n")

	_, err := m.Execute(context.Background(), "java", "-version")
	require.NoError(t, err)

	_, err = m.Execute(context.Background(), "java", "-jar", "ck.jar", "/src", "false", "0", "false", out)
	require.NoError(t, err)
	assert.Equal(t, 2, m.CallCount())

	data, err := os.ReadFile(filepath.Join(out, "class.csv"))
	require.NoError(t, err)
	assert.Equal(t, "file,class\n", string(data))
}

func TestCKOutputDir(t *testing.T) {
	assert.Equal(t, "", CKOutputDir(nil))
	assert.Equal(t, "/out/", CKOutputDir([]string{"-jar", "ck.jar", "/out/"}))
}
