// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/ck"
	"github.com/llbbl/repstudy/internal/db"
	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
	"github.com/llbbl/repstudy/internal/testutil"
)

// setupTestStore creates an in-memory database and returns a Store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.OpenAndMigrate(db.MemoryPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close(database)
	})

	return New(database)
}

// fixedClock pins Store.now for deterministic timestamps.
func fixedClock(s *Store, times ...time.Time) {
	i := 0
	s.now = func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

// upsert stores repo the way RecordOutcome and SaveMetrics do.
func upsert(t *testing.T, s *Store, repo github.Repository) {
	t.Helper()
	require.NoError(t, s.upsertRepository(context.Background(), s.db, repo))
}

func TestUpsertRepository_InsertsAndUpdates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	repo := testutil.NewTestRepo(testutil.WithOwner("apache"), testutil.WithName("kafka"), testutil.WithStars(100))
	upsert(t, s, repo)

	repo.Stargazers = 200
	repo.Releases = 99
	upsert(t, s, repo)

	got, err := s.GetRepository(ctx, "apache", "kafka")
	require.NoError(t, err)
	assert.Equal(t, 200, got.Stargazers)
	assert.Equal(t, 99, got.Releases)
	assert.Equal(t, repo.URL, got.URL)
	assert.Equal(t, "Java", got.PrimaryLanguage)
	assert.True(t, repo.CreatedAt.Equal(got.CreatedAt), "created_at round-trips")

	count, err := s.CountRepositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetRepositories_OrderedByStars(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, repo := range testutil.NewTestRepos(4) {
		upsert(t, s, repo)
	}

	repos, err := s.GetRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 4)
	assert.Equal(t, "repo-1", repos[0].Name, "ordered by stars descending")
}

func TestUpsertRepository_NullableFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	repo := github.Repository{Owner: "o", Name: "bare"}
	upsert(t, s, repo)

	got, err := s.GetRepository(ctx, "o", "bare")
	require.NoError(t, err)
	assert.Empty(t, got.URL)
	assert.Empty(t, got.PrimaryLanguage)
	assert.True(t, got.CreatedAt.IsZero())
}

func TestGetRepository_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetRepository(context.Background(), "nobody", "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLastCollectedAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	last, err := s.GetLastCollectedAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, at)
	upsert(t, s, testutil.NewTestRepo())

	last, err = s.GetLastCollectedAt(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(last))
}

func TestRunLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fixedClock(s, start, start, start, start.Add(90*time.Second))

	runID, err := s.RecordRunStart(ctx, RunParams{SearchQuery: "stars:>1000", TargetCount: 3, PageSize: 2})
	require.NoError(t, err)

	running, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.True(t, running.Running())
	assert.Empty(t, running.TerminationReason)

	repos := testutil.NewTestRepos(2)
	outcomes := []pipeline.Outcome[github.Repository]{
		{Item: repos[0], Status: pipeline.Success, Duration: 1500 * time.Millisecond},
		{Item: repos[1], Status: pipeline.Failure, Reason: "clone failed", Duration: 200 * time.Millisecond},
	}
	for i, o := range outcomes {
		require.NoError(t, s.RecordOutcome(ctx, runID, i+1, o))
	}

	summary := pipeline.RunSummary[github.Repository]{
		ItemsProcessed: 2,
		PagesFetched:   1,
		Outcomes:       outcomes,
		Reason:         pipeline.Exhausted,
	}
	require.NoError(t, s.RecordRunComplete(ctx, runID, summary))

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.False(t, run.Running())
	assert.Equal(t, "stars:>1000", run.SearchQuery)
	assert.Equal(t, 3, run.TargetCount)
	assert.Equal(t, 2, run.PageSize)
	assert.Equal(t, 2, run.ItemsProcessed)
	assert.Equal(t, 1, run.PagesFetched)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, "exhausted", run.TerminationReason)
	assert.Empty(t, run.ErrorMessage)
	assert.Equal(t, int64(90000), run.DurationMs)

	logged, err := s.GetRunOutcomes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, OutcomeRecord{Position: 1, FullName: "testowner/repo-1", Status: "success", DurationMs: 1500}, logged[0])
	assert.Equal(t, OutcomeRecord{Position: 2, FullName: "testowner/repo-2", Status: "failure", Reason: "clone failed", DurationMs: 200}, logged[1])

	count, err := s.CountRepositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "outcomes upsert their repositories")
}

func TestRecordRunComplete_FetchFailed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRunStart(ctx, RunParams{SearchQuery: "q", TargetCount: 10, PageSize: 1})
	require.NoError(t, err)

	summary := pipeline.RunSummary[github.Repository]{
		ItemsProcessed: 1,
		PagesFetched:   1,
		Reason:         pipeline.FetchFailed,
		Err:            errors.New("fetching page: status 403"),
	}
	require.NoError(t, s.RecordRunComplete(ctx, runID, summary))

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "fetch_failed", run.TerminationReason)
	assert.Equal(t, "fetching page: status 403", run.ErrorMessage)
}

func TestRecordRunComplete_NotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.RecordRunComplete(context.Background(), 42, pipeline.RunSummary[github.Repository]{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordOutcome_DuplicatePositionRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRunStart(ctx, RunParams{SearchQuery: "q", TargetCount: 1, PageSize: 1})
	require.NoError(t, err)

	o := pipeline.Outcome[github.Repository]{Item: testutil.NewTestRepo(), Status: pipeline.Success}
	require.NoError(t, s.RecordOutcome(ctx, runID, 1, o))
	assert.Error(t, s.RecordOutcome(ctx, runID, 1, o))
}

func TestGetRunHistory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		fixedClock(s, base.Add(time.Duration(i)*time.Hour))
		_, err := s.RecordRunStart(ctx, RunParams{SearchQuery: "q", TargetCount: i + 1, PageSize: 1})
		require.NoError(t, err)
	}

	history, err := s.GetRunHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].TargetCount, "newest first")
	assert.Equal(t, 2, history[1].TargetCount)

	latest, err := s.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, history[0].ID, latest.ID)
}

func TestGetLatestRun_Empty(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetLatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMetrics_AndStudyDataset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	analyzed := testutil.NewTestRepo(testutil.WithName("analyzed"), testutil.WithStars(5000))
	skipped := testutil.NewTestRepo(testutil.WithName("skipped"))
	upsert(t, s, skipped)

	m := ck.Metrics{ClassCount: 12, TotalLOC: 3400, CBO: 4.5, WMC: 12.25, DIT: 1.75, RFC: 20, LCOM: 30.5}
	require.NoError(t, s.SaveMetrics(ctx, analyzed, m), "metrics insert upserts the repository first")

	got, err := s.GetMetrics(ctx, analyzed.FullName())
	require.NoError(t, err)
	assert.Equal(t, m, *got)

	// Re-collecting the repository must not drop its metrics.
	upsert(t, s, analyzed)
	m.CBO = 5
	require.NoError(t, s.SaveMetrics(ctx, analyzed, m))

	dataset, err := s.GetStudyDataset(ctx)
	require.NoError(t, err)
	require.Len(t, dataset, 1, "only analyzed repositories are part of the dataset")
	assert.Equal(t, "testowner/analyzed", dataset[0].Repository.FullName())
	assert.Equal(t, 5000, dataset[0].Repository.Stargazers)
	assert.Equal(t, 5.0, dataset[0].Metrics.CBO)
	assert.False(t, dataset[0].AnalyzedAt.IsZero())
}

func TestGetMetrics_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetMetrics(context.Background(), "x/y")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseTimeFromSQLite(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, s := range []string{"2026-01-02 03:04:05", "2026-01-02T03:04:05Z"} {
		got, err := parseTimeFromSQLite(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	zero, err := parseTimeFromSQLite("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseTimeFromSQLite("yesterday")
	assert.Error(t, err)
}
