// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/logging"
	"github.com/llbbl/repstudy/internal/pipeline"
	"github.com/llbbl/repstudy/internal/testutil"
)

// cannedSource serves one canned listing per repository.
type cannedSource map[string]*testutil.CannedFetcher[github.PullRequest]

func (s cannedSource) PullRequests(owner, name string) pipeline.Fetcher[github.PullRequest] {
	return s[owner+"/"+name]
}

// recordingSink captures saved samples.
type recordingSink struct {
	saved map[string][]github.PullRequest
	err   error
}

func (s *recordingSink) SavePullRequests(_ context.Context, repo github.Repository, prs []github.PullRequest) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string][]github.PullRequest{}
	}
	s.saved[repo.FullName()] = prs
	return nil
}

func newTestProcessor(source Source, sink Sink, criteria Criteria) *Processor {
	return NewProcessor(source, sink,
		WithCriteria(criteria),
		WithSleeper(testutil.NoSleep),
		WithLogger(logging.Discard()),
	)
}

func smallCriteria() Criteria {
	c := DefaultCriteria()
	c.MinPullRequests = 10
	c.MaxPullRequests = 3
	c.MaxScanned = 20
	c.PageSize = 2
	return c
}

func popularRepo() github.Repository {
	return testutil.NewTestRepo(testutil.WithOwner("spring-projects"), testutil.WithName("spring-boot"), testutil.WithMergedPullRequests(500))
}

func TestCriteria_Eligible(t *testing.T) {
	c := DefaultCriteria()

	tests := []struct {
		name string
		pr   github.PullRequest
		want bool
	}{
		{"reviewed and slow", testutil.NewTestPullRequest(1), true},
		{"closed unmerged still counts", testutil.NewTestPullRequest(1, testutil.WithClosedUnmerged(), testutil.WithOpenFor(2*time.Hour)), true},
		{"no reviews", testutil.NewTestPullRequest(1, testutil.WithReviews(0)), false},
		{"closed within an hour", testutil.NewTestPullRequest(1, testutil.WithOpenFor(30*time.Minute)), false},
		{"exactly one hour", testutil.NewTestPullRequest(1, testutil.WithOpenFor(time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Eligible(tt.pr))
		})
	}
}

func TestProcessor_TooFewPullRequests(t *testing.T) {
	fetcher := testutil.NewCannedFetcher(testutil.NewTestPullRequests(4), 2)
	repo := testutil.NewTestRepo(testutil.WithMergedPullRequests(9))
	source := cannedSource{repo.FullName(): fetcher}
	sink := &recordingSink{}

	err := newTestProcessor(source, sink, smallCriteria()).Process(context.Background(), repo)

	assert.ErrorIs(t, err, ErrTooFewPullRequests)
	assert.Zero(t, fetcher.CallCount(), "no listing for small repositories")
	assert.Empty(t, sink.saved)
}

func TestProcessor_KeepsEligibleUpToLimit(t *testing.T) {
	prs := []github.PullRequest{
		testutil.NewTestPullRequest(10),
		testutil.NewTestPullRequest(9, testutil.WithReviews(0)),
		testutil.NewTestPullRequest(8, testutil.WithOpenFor(time.Minute)),
		testutil.NewTestPullRequest(7),
		testutil.NewTestPullRequest(6),
		testutil.NewTestPullRequest(5),
		testutil.NewTestPullRequest(4),
		testutil.NewTestPullRequest(3),
	}
	repo := popularRepo()
	fetcher := testutil.NewCannedFetcher(prs, 2)
	sink := &recordingSink{}

	err := newTestProcessor(cannedSource{repo.FullName(): fetcher}, sink, smallCriteria()).Process(context.Background(), repo)
	require.NoError(t, err)

	saved := sink.saved[repo.FullName()]
	require.Len(t, saved, 3)
	assert.Equal(t, []int{10, 7, 6}, []int{saved[0].Number, saved[1].Number, saved[2].Number})
	assert.Equal(t, 3, fetcher.CallCount(), "listing stops once the sample is full")
}

func TestProcessor_ScanLimit(t *testing.T) {
	criteria := smallCriteria()
	criteria.MaxScanned = 4
	repo := popularRepo()
	fetcher := testutil.NewCannedFetcher(testutil.NewTestPullRequests(10, testutil.WithReviews(0)), 2)

	err := newTestProcessor(cannedSource{repo.FullName(): fetcher}, &recordingSink{}, criteria).Process(context.Background(), repo)

	assert.ErrorIs(t, err, ErrNoEligiblePullRequests)
	assert.ErrorContains(t, err, "scanned 4")
	assert.Equal(t, 2, fetcher.CallCount())
}

func TestProcessor_ListingExhausted(t *testing.T) {
	repo := popularRepo()
	fetcher := testutil.NewCannedFetcher(testutil.NewTestPullRequests(2), 2)
	sink := &recordingSink{}

	err := newTestProcessor(cannedSource{repo.FullName(): fetcher}, sink, smallCriteria()).Process(context.Background(), repo)
	require.NoError(t, err)

	assert.Len(t, sink.saved[repo.FullName()], 2)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestProcessor_FetchFailureFailsRepository(t *testing.T) {
	repo := popularRepo()
	forbidden := &github.FetchError{StatusCode: 403}
	fetcher := testutil.NewCannedFetcher(testutil.NewTestPullRequests(6), 2).FailOn(2, forbidden)
	sink := &recordingSink{}

	err := newTestProcessor(cannedSource{repo.FullName(): fetcher}, sink, smallCriteria()).Process(context.Background(), repo)

	var fe *github.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 403, fe.StatusCode)
	assert.Empty(t, sink.saved, "partial samples are not stored")
}

func TestProcessor_SinkError(t *testing.T) {
	repo := popularRepo()
	fetcher := testutil.NewCannedFetcher(testutil.NewTestPullRequests(2), 2)
	sinkErr := errors.New("database is locked")

	err := newTestProcessor(cannedSource{repo.FullName(): fetcher}, &recordingSink{err: sinkErr}, smallCriteria()).Process(context.Background(), repo)

	assert.ErrorIs(t, err, sinkErr)
	assert.ErrorContains(t, err, "saving pull requests")
}

func TestProcessor_AsPipelineProcessor(t *testing.T) {
	big := popularRepo()
	small := testutil.NewTestRepo(testutil.WithName("tiny"), testutil.WithMergedPullRequests(1))
	source := cannedSource{
		big.FullName(): testutil.NewCannedFetcher(testutil.NewTestPullRequests(3), 2),
	}
	sink := &recordingSink{}
	repos := testutil.NewCannedFetcher([]github.Repository{big, small}, 2)

	driver := pipeline.NewDriver[github.Repository](repos, pipeline.WithSleeper[github.Repository](testutil.NoSleep))
	summary, err := driver.Run(context.Background(), pipeline.RunConfig{TargetCount: 2, PageSize: 2}, newTestProcessor(source, sink, smallCriteria()))
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, pipeline.Success, summary.Outcomes[0].Status)
	assert.Equal(t, pipeline.Failure, summary.Outcomes[1].Status)
	assert.ErrorIs(t, summary.Outcomes[1].Err, ErrTooFewPullRequests)
	assert.Len(t, sink.saved[big.FullName()], 3)
}
