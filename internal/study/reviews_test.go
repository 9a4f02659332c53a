// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package study

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/store"
	"github.com/llbbl/repstudy/internal/testutil"
)

func TestNewPullRequestObservation(t *testing.T) {
	pr := testutil.NewTestPullRequest(12, testutil.WithOpenFor(90*time.Minute), testutil.WithReviews(3))

	obs := NewPullRequestObservation("google/guava", pr)

	assert.Equal(t, "google/guava", obs.FullName)
	assert.Equal(t, 12, obs.Number)
	assert.True(t, obs.Merged)
	assert.Equal(t, 1.5, obs.Factor(OpenHours))
	assert.Equal(t, 100.0, obs.Factor(LinesChanged))
	assert.Equal(t, 1.0, obs.Metric(MergedOutcome))
	assert.Equal(t, 3.0, obs.Metric(ReviewCount))
	assert.True(t, math.IsNaN(obs.Factor(Stars)))
	assert.True(t, math.IsNaN(obs.Metric(CBO)))

	closed := NewPullRequestObservation("google/guava", testutil.NewTestPullRequest(13, testutil.WithClosedUnmerged()))
	assert.Equal(t, 0.0, closed.Metric(MergedOutcome))
}

func TestPullRequestsFromRows(t *testing.T) {
	rows := []store.PullRequestRow{
		{FullName: "a/b", PullRequest: testutil.NewTestPullRequest(1)},
		{FullName: "c/d", PullRequest: testutil.NewTestPullRequest(2)},
	}

	obs := PullRequestsFromRows(rows)
	require.Len(t, obs, 2)
	assert.Equal(t, "c/d", obs[1].FullName)
	assert.Equal(t, 2, obs[1].Number)
}

// reviewDataset has larger pull requests merged less often and reviewed more.
func reviewDataset() []PullRequestObservation {
	var obs []PullRequestObservation
	for i := range 8 {
		obs = append(obs, PullRequestObservation{
			FullName:          "o/r",
			Number:            i + 1,
			Merged:            i < 4,
			ChangedFiles:      i + 1,
			LinesChanged:      10 * (i + 1),
			OpenHours:         float64(2 + i),
			DescriptionLength: 100,
			Participants:      2 + i%2,
			Comments:          i,
			Reviews:           i + 1,
		})
	}
	return obs
}

func TestAnalyzeReviews(t *testing.T) {
	report, err := AnalyzeReviews(reviewDataset(), now)
	require.NoError(t, err)

	assert.Equal(t, Reviews, report.Kind)
	assert.Equal(t, 8, report.N)
	assert.Len(t, report.PullRequests, 8)
	assert.Empty(t, report.Observations)
	require.Len(t, report.Findings, 8)

	rq1 := report.Findings[0]
	assert.Equal(t, "RQ01", rq1.Question.ID)
	require.Len(t, rq1.Correlations, 2, "one correlation per factor")
	assert.Equal(t, ChangedFiles, rq1.Correlations[0].Factor)
	assert.Equal(t, LinesChanged, rq1.Correlations[1].Factor)
	for _, c := range rq1.Correlations {
		assert.Equal(t, MergedOutcome, c.Metric)
		assert.Less(t, c.Rho, 0.0, "larger pull requests are merged less often")
	}

	rq3 := report.Findings[2]
	assert.Empty(t, rq3.Correlations)
	assert.Equal(t, []Pair{{Factor: DescriptionLength, Metric: MergedOutcome}}, rq3.Skipped)

	rq5 := report.Findings[4]
	require.Len(t, rq5.Correlations, 2)
	assert.Equal(t, ReviewCount, rq5.Correlations[0].Metric)
	assert.Equal(t, 1.0, rq5.Correlations[0].Rho)
	assert.True(t, rq5.Correlations[0].Significant())
}

func TestAnalyzeReviews_InsufficientData(t *testing.T) {
	_, err := AnalyzeReviews(reviewDataset()[:2], now)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "Quality Analysis Report", Quality.Title())
	assert.Equal(t, "Code Review Analysis Report", Reviews.Title())
	assert.Equal(t, "analyzed repositories", Quality.Subject())
	assert.Equal(t, "sampled pull requests", Reviews.Subject())
}

func TestQuestion_FactorLabel(t *testing.T) {
	assert.Equal(t, "Participants and Comments", ReviewQuestions[3].FactorLabel())
	assert.Equal(t, "Stars", Questions[0].FactorLabel())
}

func TestMetric_Label(t *testing.T) {
	assert.Equal(t, "CBO", CBO.Label())
	assert.Equal(t, "Merged", MergedOutcome.Label())
	assert.Equal(t, "Reviews", ReviewCount.Label())
}
