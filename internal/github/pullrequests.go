// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/llbbl/repstudy/internal/pipeline"
)

// PullRequestState is the final state of a pull request.
type PullRequestState string

// States the review study collects.
const (
	Merged PullRequestState = "MERGED"
	Closed PullRequestState = "CLOSED"
)

// ErrMissingNumber is returned for a pull request node without a number.
var ErrMissingNumber = errors.New("pull request node has no number")

// PullRequest is one closed or merged pull request with its review counters.
type PullRequest struct {
	Number            int              `json:"number"`
	State             PullRequestState `json:"state"`
	CreatedAt         time.Time        `json:"createdAt"`
	MergedAt          time.Time        `json:"mergedAt"`
	ClosedAt          time.Time        `json:"closedAt"`
	DescriptionLength int              `json:"descriptionLength"`
	ChangedFiles      int              `json:"changedFiles"`
	Additions         int              `json:"additions"`
	Deletions         int              `json:"deletions"`
	Reviews           int              `json:"reviews"`
	Comments          int              `json:"comments"`
	Participants      int              `json:"participants"`
}

// IsMerged reports whether the pull request was merged.
func (p *PullRequest) IsMerged() bool {
	return p.State == Merged
}

// EndedAt is the merge time for merged pull requests and the close time otherwise.
func (p *PullRequest) EndedAt() time.Time {
	if p.IsMerged() && !p.MergedAt.IsZero() {
		return p.MergedAt
	}
	return p.ClosedAt
}

// Duration is how long the pull request stayed open. It is zero when the end
// time is unknown.
func (p *PullRequest) Duration() time.Duration {
	end := p.EndedAt()
	if end.IsZero() || p.CreatedAt.IsZero() {
		return 0
	}
	return end.Sub(p.CreatedAt)
}

// LinesChanged is additions plus deletions.
func (p *PullRequest) LinesChanged() int {
	return p.Additions + p.Deletions
}

type pullRequestNode struct {
	Number       *int       `json:"number"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"createdAt"`
	MergedAt     *time.Time `json:"mergedAt"`
	ClosedAt     *time.Time `json:"closedAt"`
	BodyText     string     `json:"bodyText"`
	ChangedFiles int        `json:"changedFiles"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	Reviews      totalCount `json:"reviews"`
	Comments     totalCount `json:"comments"`
	Participants totalCount `json:"participants"`
}

// UnmarshalPullRequest decodes a pull request node. The body text is reduced
// to its length in characters; the text itself is not kept.
func UnmarshalPullRequest(data []byte) (PullRequest, error) {
	var raw pullRequestNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return PullRequest{}, err
	}
	if raw.Number == nil {
		return PullRequest{}, ErrMissingNumber
	}

	pr := PullRequest{
		Number:            *raw.Number,
		State:             PullRequestState(raw.State),
		CreatedAt:         raw.CreatedAt,
		DescriptionLength: utf8.RuneCountInString(raw.BodyText),
		ChangedFiles:      raw.ChangedFiles,
		Additions:         raw.Additions,
		Deletions:         raw.Deletions,
		Reviews:           raw.Reviews.TotalCount,
		Comments:          raw.Comments.TotalCount,
		Participants:      raw.Participants.TotalCount,
	}
	if raw.MergedAt != nil {
		pr.MergedAt = *raw.MergedAt
	}
	if raw.ClosedAt != nil {
		pr.ClosedAt = *raw.ClosedAt
	}
	return pr, nil
}

type pullRequestEnvelope struct {
	Data *struct {
		Repository *struct {
			PullRequests *connection `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchPullRequests requests one page of closed and merged pull requests for
// owner/name. Like Fetch it issues exactly one request and wraps every failure
// in a *FetchError.
func (c *Client) FetchPullRequests(ctx context.Context, owner, name string, pageSize int, cursor pipeline.Cursor) (pipeline.Page[PullRequest], error) {
	if pageSize < 1 {
		return pipeline.Page[PullRequest]{}, fmt.Errorf("%w: got %d", pipeline.ErrInvalidPageSize, pageSize)
	}

	body, err := c.post(ctx, requestBody{
		Query: pullRequestsQuery,
		Variables: map[string]any{
			"owner":  owner,
			"name":   name,
			"first":  pageSize,
			"cursor": cursor,
		},
	})
	if err != nil {
		return pipeline.Page[PullRequest]{}, err
	}

	page, err := parsePullRequestPage(body)
	if err != nil {
		return pipeline.Page[PullRequest]{}, &FetchError{StatusCode: http.StatusOK, Body: string(body), Err: err}
	}

	c.logger.Debug("fetched pull requests", "repo", owner+"/"+name, "items", len(page.Items), "has_next_page", page.HasNextPage)
	return page, nil
}

// PullRequests returns a fetcher over the pull requests of one repository.
func (c *Client) PullRequests(owner, name string) pipeline.Fetcher[PullRequest] {
	return pipeline.FetcherFunc[PullRequest](func(ctx context.Context, pageSize int, cursor pipeline.Cursor) (pipeline.Page[PullRequest], error) {
		return c.FetchPullRequests(ctx, owner, name, pageSize, cursor)
	})
}

func parsePullRequestPage(body []byte) (pipeline.Page[PullRequest], error) {
	var env pullRequestEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return pipeline.Page[PullRequest]{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(env.Errors) > 0 && (env.Data == nil || env.Data.Repository == nil) {
		return pipeline.Page[PullRequest]{}, graphQLErrorsToErr(env.Errors)
	}
	if env.Data == nil {
		return pipeline.Page[PullRequest]{}, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if env.Data.Repository == nil {
		return pipeline.Page[PullRequest]{}, fmt.Errorf("%w: repository", ErrNotFound)
	}
	if env.Data.Repository.PullRequests == nil {
		return pipeline.Page[PullRequest]{}, fmt.Errorf("%w: missing data.repository.pullRequests", ErrMalformedResponse)
	}
	return decodeConnection(env.Data.Repository.PullRequests, "data.repository.pullRequests", UnmarshalPullRequest)
}
