// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package study

import (
	"math"
	"time"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/store"
)

// Pull request factors.
const (
	ChangedFiles      Factor = "changed_files"
	LinesChanged      Factor = "lines_changed"
	OpenHours         Factor = "open_hours"
	DescriptionLength Factor = "description_length"
	Participants      Factor = "participants"
	Comments          Factor = "comments"
)

// Pull request outcomes. MergedOutcome is 1 for merged and 0 for closed.
const (
	MergedOutcome Metric = "merged"
	ReviewCount   Metric = "reviews"
)

// ReviewQuestions are the research questions answered by AnalyzeReviews.
// RQ01 to RQ04 relate a pull request to its final state, RQ05 to RQ08 to the
// number of reviews it received.
var ReviewQuestions = []Question{
	{ID: "RQ01", Title: "Pull request size vs merge outcome", Factors: []Factor{ChangedFiles, LinesChanged}, Metrics: []Metric{MergedOutcome}},
	{ID: "RQ02", Title: "Time under review vs merge outcome", Factors: []Factor{OpenHours}, Metrics: []Metric{MergedOutcome}},
	{ID: "RQ03", Title: "Description length vs merge outcome", Factors: []Factor{DescriptionLength}, Metrics: []Metric{MergedOutcome}},
	{ID: "RQ04", Title: "Interaction vs merge outcome", Factors: []Factor{Participants, Comments}, Metrics: []Metric{MergedOutcome}},
	{ID: "RQ05", Title: "Pull request size vs number of reviews", Factors: []Factor{ChangedFiles, LinesChanged}, Metrics: []Metric{ReviewCount}},
	{ID: "RQ06", Title: "Time under review vs number of reviews", Factors: []Factor{OpenHours}, Metrics: []Metric{ReviewCount}},
	{ID: "RQ07", Title: "Description length vs number of reviews", Factors: []Factor{DescriptionLength}, Metrics: []Metric{ReviewCount}},
	{ID: "RQ08", Title: "Interaction vs number of reviews", Factors: []Factor{Participants, Comments}, Metrics: []Metric{ReviewCount}},
}

// PullRequestObservation is one sampled pull request reduced to the numbers
// the review questions need.
type PullRequestObservation struct {
	FullName          string  `json:"fullName"`
	Number            int     `json:"number"`
	Merged            bool    `json:"merged"`
	ChangedFiles      int     `json:"changedFiles"`
	LinesChanged      int     `json:"linesChanged"`
	OpenHours         float64 `json:"openHours"`
	DescriptionLength int     `json:"descriptionLength"`
	Participants      int     `json:"participants"`
	Comments          int     `json:"comments"`
	Reviews           int     `json:"reviews"`
}

// NewPullRequestObservation derives the factors of pr in repository fullName.
func NewPullRequestObservation(fullName string, pr github.PullRequest) PullRequestObservation {
	return PullRequestObservation{
		FullName:          fullName,
		Number:            pr.Number,
		Merged:            pr.IsMerged(),
		ChangedFiles:      pr.ChangedFiles,
		LinesChanged:      pr.LinesChanged(),
		OpenHours:         pr.Duration().Hours(),
		DescriptionLength: pr.DescriptionLength,
		Participants:      pr.Participants,
		Comments:          pr.Comments,
		Reviews:           pr.Reviews,
	}
}

// PullRequestsFromRows converts a stored pull request sample into observations.
func PullRequestsFromRows(rows []store.PullRequestRow) []PullRequestObservation {
	obs := make([]PullRequestObservation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, NewPullRequestObservation(r.FullName, r.PullRequest))
	}
	return obs
}

// Factor returns the value of f for this pull request.
func (o PullRequestObservation) Factor(f Factor) float64 {
	switch f {
	case ChangedFiles:
		return float64(o.ChangedFiles)
	case LinesChanged:
		return float64(o.LinesChanged)
	case OpenHours:
		return o.OpenHours
	case DescriptionLength:
		return float64(o.DescriptionLength)
	case Participants:
		return float64(o.Participants)
	case Comments:
		return float64(o.Comments)
	default:
		return math.NaN()
	}
}

// Metric returns the value of m for this pull request.
func (o PullRequestObservation) Metric(m Metric) float64 {
	switch m {
	case MergedOutcome:
		if o.Merged {
			return 1
		}
		return 0
	case ReviewCount:
		return float64(o.Reviews)
	default:
		return math.NaN()
	}
}

// AnalyzeReviews answers every question in ReviewQuestions over obs.
func AnalyzeReviews(obs []PullRequestObservation, now time.Time) (*Report, error) {
	findings, err := answer(ReviewQuestions, obs)
	if err != nil {
		return nil, err
	}
	return &Report{Kind: Reviews, GeneratedAt: now, N: len(obs), Findings: findings, PullRequests: obs}, nil
}
