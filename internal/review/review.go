// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package review samples the closed and merged pull requests of collected
// repositories for the code review study.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// Errors that fail a repository's outcome.
var (
	// ErrTooFewPullRequests indicates the repository has fewer merged pull
	// requests than Criteria.MinPullRequests.
	ErrTooFewPullRequests = errors.New("too few merged pull requests")

	// ErrNoEligiblePullRequests indicates no scanned pull request passed the filters.
	ErrNoEligiblePullRequests = errors.New("no eligible pull requests")
)

// Source lists the pull requests of one repository. *github.Client implements it.
type Source interface {
	PullRequests(owner, name string) pipeline.Fetcher[github.PullRequest]
}

// Sink receives the sample of every repository that produced one.
type Sink interface {
	SavePullRequests(ctx context.Context, repo github.Repository, prs []github.PullRequest) error
}

// Criteria selects repositories and pull requests for the sample.
type Criteria struct {
	MinPullRequests int           // merged PRs a repository needs
	MaxPullRequests int           // eligible PRs kept per repository
	MaxScanned      int           // PRs inspected per repository before giving up
	PageSize        int           // PRs per request
	MinDuration     time.Duration // PRs closed faster than this are skipped
	MinReviews      int           // PRs with fewer reviews are skipped
	Delay           time.Duration // pause between PR pages
}

// DefaultCriteria keeps up to 50 reviewed pull requests that stayed open
// longer than an hour, from repositories with at least 100 merged ones.
func DefaultCriteria() Criteria {
	return Criteria{
		MinPullRequests: 100,
		MaxPullRequests: 50,
		MaxScanned:      500,
		PageSize:        10,
		MinDuration:     time.Hour,
		MinReviews:      1,
		Delay:           time.Second,
	}
}

// Eligible reports whether pr belongs in the sample.
func (c Criteria) Eligible(pr github.PullRequest) bool {
	return pr.Reviews >= c.MinReviews && pr.Duration() > c.MinDuration
}

// Processor implements pipeline.Processor[github.Repository]. For every
// repository it walks the pull request listing with a nested pipeline run and
// stores the eligible ones.
type Processor struct {
	source   Source
	sink     Sink
	criteria Criteria
	sleep    pipeline.Sleeper
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithCriteria replaces DefaultCriteria.
func WithCriteria(c Criteria) Option {
	return func(p *Processor) {
		p.criteria = c
	}
}

// WithSleeper replaces the inter-page sleeper.
func WithSleeper(s pipeline.Sleeper) Option {
	return func(p *Processor) {
		p.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// NewProcessor creates a processor reading from source and writing to sink.
func NewProcessor(source Source, sink Sink, opts ...Option) *Processor {
	p := &Processor{
		source:   source,
		sink:     sink,
		criteria: DefaultCriteria(),
		sleep:    pipeline.SleepContext,
		logger:   slog.Default().With("component", "review"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process samples one repository. Pages are requested until MaxPullRequests
// eligible pull requests are kept, MaxScanned were inspected, or the listing
// ends. A failed page fails the repository.
func (p *Processor) Process(ctx context.Context, repo github.Repository) error {
	c := p.criteria
	if repo.MergedPullRequests < c.MinPullRequests {
		return fmt.Errorf("%w: %d merged, need %d", ErrTooFewPullRequests, repo.MergedPullRequests, c.MinPullRequests)
	}

	var kept []github.PullRequest
	listing := p.source.PullRequests(repo.Owner, repo.Name)

	// An empty page ends the nested run cleanly once the sample is full.
	fetcher := pipeline.FetcherFunc[github.PullRequest](func(ctx context.Context, pageSize int, cursor pipeline.Cursor) (pipeline.Page[github.PullRequest], error) {
		if len(kept) >= c.MaxPullRequests {
			return pipeline.Page[github.PullRequest]{}, nil
		}
		return listing.Fetch(ctx, pageSize, cursor)
	})
	filter := pipeline.ProcessorFunc[github.PullRequest](func(_ context.Context, pr github.PullRequest) error {
		if c.Eligible(pr) {
			kept = append(kept, pr)
		}
		return nil
	})

	driver := pipeline.NewDriver(fetcher,
		pipeline.WithSleeper[github.PullRequest](p.sleep),
		pipeline.WithLogger[github.PullRequest](p.logger.With("repo", repo.FullName())),
	)
	summary, err := driver.Run(ctx, pipeline.RunConfig{
		TargetCount: c.MaxScanned,
		PageSize:    c.PageSize,
		Delay:       c.Delay,
	}, filter)
	if err != nil {
		return fmt.Errorf("listing pull requests: %w", err)
	}

	if len(kept) == 0 {
		return fmt.Errorf("%w: scanned %d", ErrNoEligiblePullRequests, summary.ItemsProcessed)
	}
	if len(kept) > c.MaxPullRequests {
		kept = kept[:c.MaxPullRequests]
	}

	if p.sink != nil {
		if err := p.sink.SavePullRequests(ctx, repo, kept); err != nil {
			return fmt.Errorf("saving pull requests: %w", err)
		}
	}

	p.logger.Info("sampled pull requests",
		"repo", repo.FullName(),
		"kept", len(kept),
		"scanned", summary.ItemsProcessed,
		"pages", summary.PagesFetched,
	)
	return nil
}
