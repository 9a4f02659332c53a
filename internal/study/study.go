// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package study correlates repository characteristics with CK quality
// metrics, and pull request characteristics with their review outcome.
package study

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/llbbl/repstudy/internal/ck"
	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/store"
)

// SignificanceLevel is the p-value at or below which a correlation counts as
// statistically significant.
const SignificanceLevel = 0.05

// Factor is a repository characteristic on the x axis of a question.
type Factor string

const (
	Stars         Factor = "stars"
	AgeYears      Factor = "age_years"
	ActivityScore Factor = "activity_score"
	Size          Factor = "loc"
)

// Label returns a human-readable factor name.
func (f Factor) Label() string {
	switch f {
	case Stars:
		return "Stars"
	case AgeYears:
		return "Age (years)"
	case ActivityScore:
		return "Activity score"
	case Size:
		return "Lines of code"
	case ChangedFiles:
		return "Changed files"
	case LinesChanged:
		return "Lines changed"
	case OpenHours:
		return "Time open (hours)"
	case DescriptionLength:
		return "Description length"
	case Participants:
		return "Participants"
	case Comments:
		return "Comments"
	default:
		return string(f)
	}
}

// Metric is a quality metric on the y axis of a question.
type Metric string

const (
	CBO  Metric = "cbo"
	WMC  Metric = "wmc"
	RFC  Metric = "rfc"
	LCOM Metric = "lcom"
	LOC  Metric = "loc"
)

// Question is one research question: every factor is correlated with every metric.
type Question struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Factors []Factor `json:"factors"`
	Metrics []Metric `json:"metrics"`
}

// FactorLabel joins the labels of the question's factors.
func (q Question) FactorLabel() string {
	labels := make([]string, len(q.Factors))
	for i, f := range q.Factors {
		labels[i] = f.Label()
	}
	return strings.Join(labels, " and ")
}

var qualityMetrics = []Metric{CBO, WMC, RFC, LCOM, LOC}

// Questions are the research questions answered by Analyze.
var Questions = []Question{
	{ID: "RQ01", Title: "Repository popularity vs quality metrics", Factors: []Factor{Stars}, Metrics: qualityMetrics},
	{ID: "RQ02", Title: "Repository maturity vs quality metrics", Factors: []Factor{AgeYears}, Metrics: qualityMetrics},
	{ID: "RQ03", Title: "Repository activity vs quality metrics", Factors: []Factor{ActivityScore}, Metrics: qualityMetrics},
	{ID: "RQ04", Title: "Repository size vs quality metrics", Factors: []Factor{Size}, Metrics: []Metric{CBO, WMC, RFC, LCOM}},
}

// Observation is one analyzed repository reduced to the numbers the
// questions need.
type Observation struct {
	FullName      string     `json:"fullName"`
	Stars         float64    `json:"stars"`
	AgeYears      float64    `json:"ageYears"`
	ActivityScore float64    `json:"activityScore"`
	Metrics       ck.Metrics `json:"metrics"`
}

// NewObservation derives the factors of repo at time now. The activity score
// is merged pull requests plus issues plus releases per year of age; a
// repository with no measurable age scores zero.
func NewObservation(repo github.Repository, m ck.Metrics, now time.Time) Observation {
	age := repo.AgeYears(now)
	var activity float64
	if age > 0 {
		activity = float64(repo.MergedPullRequests+repo.AllIssues+repo.Releases) / age
	}
	return Observation{
		FullName:      repo.FullName(),
		Stars:         float64(repo.Stargazers),
		AgeYears:      age,
		ActivityScore: activity,
		Metrics:       m,
	}
}

// FromRows converts a stored dataset into observations.
func FromRows(rows []store.StudyRow, now time.Time) []Observation {
	obs := make([]Observation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, NewObservation(r.Repository, r.Metrics, now))
	}
	return obs
}

// Factor returns the value of f for this observation.
func (o Observation) Factor(f Factor) float64 {
	switch f {
	case Stars:
		return o.Stars
	case AgeYears:
		return o.AgeYears
	case ActivityScore:
		return o.ActivityScore
	case Size:
		return float64(o.Metrics.TotalLOC)
	default:
		return math.NaN()
	}
}

// Metric returns the value of m for this observation.
func (o Observation) Metric(m Metric) float64 {
	switch m {
	case CBO:
		return o.Metrics.CBO
	case WMC:
		return o.Metrics.WMC
	case RFC:
		return o.Metrics.RFC
	case LCOM:
		return o.Metrics.LCOM
	case LOC:
		return float64(o.Metrics.TotalLOC)
	default:
		return math.NaN()
	}
}

// Correlation is the Spearman result for one factor and metric pair.
type Correlation struct {
	Factor Factor  `json:"factor"`
	Metric Metric  `json:"metric"`
	Rho    float64 `json:"rho"`
	PValue float64 `json:"pValue"`
	N      int     `json:"n"`
}

// Significant reports whether the p-value is at or below SignificanceLevel.
func (c Correlation) Significant() bool {
	return c.PValue <= SignificanceLevel
}

// Interpret describes the correlation in a sentence.
func (c Correlation) Interpret() string {
	x, y := c.Factor.Label(), c.Metric.Label()
	if !c.Significant() {
		return fmt.Sprintf("There is no statistically significant correlation between %s and %s (p > %.2f).", x, y, SignificanceLevel)
	}
	direction := "positive"
	if c.Rho < 0 {
		direction = "negative"
	}
	return fmt.Sprintf("There is a %s %s correlation between %s and %s (rho = %.3f, p <= %.2f).",
		Strength(c.Rho), direction, x, y, c.Rho, SignificanceLevel)
}

// Label returns a human-readable metric name. CK metrics are upper-cased.
func (m Metric) Label() string {
	switch m {
	case MergedOutcome:
		return "Merged"
	case ReviewCount:
		return "Reviews"
	default:
		return strings.ToUpper(string(m))
	}
}

// Strength buckets |rho| into the conventional bands.
func Strength(rho float64) string {
	switch r := math.Abs(rho); {
	case r < 0.1:
		return "negligible"
	case r < 0.3:
		return "weak"
	case r < 0.5:
		return "moderate"
	case r < 0.7:
		return "strong"
	default:
		return "very strong"
	}
}

// Pair names one factor and metric combination.
type Pair struct {
	Factor Factor `json:"factor"`
	Metric Metric `json:"metric"`
}

// Finding holds the correlations computed for one question.
type Finding struct {
	Question     Question      `json:"question"`
	Correlations []Correlation `json:"correlations"`
	// Skipped lists pairs whose correlation was undefined (constant input).
	Skipped []Pair `json:"skipped,omitempty"`
}

// Kind identifies which study a report answers.
type Kind string

const (
	Quality Kind = "quality"
	Reviews Kind = "reviews"
)

// Title is the report heading for the study.
func (k Kind) Title() string {
	switch k {
	case Reviews:
		return "Code Review Analysis Report"
	default:
		return "Quality Analysis Report"
	}
}

// Subject names the unit of observation in prose.
func (k Kind) Subject() string {
	switch k {
	case Reviews:
		return "sampled pull requests"
	default:
		return "analyzed repositories"
	}
}

// Report is the result of an analysis over a dataset. Exactly one of
// Observations and PullRequests is populated, matching Kind.
type Report struct {
	Kind         Kind                     `json:"kind"`
	GeneratedAt  time.Time                `json:"generatedAt"`
	N            int                      `json:"n"`
	Findings     []Finding                `json:"findings"`
	Observations []Observation            `json:"observations,omitempty"`
	PullRequests []PullRequestObservation `json:"pullRequests,omitempty"`
}

// MinObservations is the smallest dataset either study accepts.
const MinObservations = 3

// ErrInsufficientData is returned when the dataset is too small to correlate.
var ErrInsufficientData = errors.New("need at least 3 observations")

// Analyze answers every question in Questions over obs.
func Analyze(obs []Observation, now time.Time) (*Report, error) {
	findings, err := answer(Questions, obs)
	if err != nil {
		return nil, err
	}
	return &Report{Kind: Quality, GeneratedAt: now, N: len(obs), Findings: findings, Observations: obs}, nil
}

// sample is one row of a dataset.
type sample interface {
	Factor(Factor) float64
	Metric(Metric) float64
}

// answer correlates every factor and metric pair of every question.
func answer[S sample](questions []Question, obs []S) ([]Finding, error) {
	if len(obs) < MinObservations {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientData, len(obs))
	}

	findings := make([]Finding, 0, len(questions))
	for _, q := range questions {
		finding := Finding{Question: q}

		for _, f := range q.Factors {
			x := make([]float64, len(obs))
			for i, o := range obs {
				x[i] = o.Factor(f)
			}

			for _, m := range q.Metrics {
				y := make([]float64, len(obs))
				for i, o := range obs {
					y[i] = o.Metric(m)
				}

				rho, p, err := Spearman(x, y)
				if errors.Is(err, ErrConstantInput) {
					finding.Skipped = append(finding.Skipped, Pair{Factor: f, Metric: m})
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("%s %s vs %s: %w", q.ID, f, m, err)
				}
				finding.Correlations = append(finding.Correlations, Correlation{
					Factor: f,
					Metric: m,
					Rho:    rho,
					PValue: p,
					N:      len(obs),
				})
			}
		}
		findings = append(findings, finding)
	}
	return findings, nil
}
