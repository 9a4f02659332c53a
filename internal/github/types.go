// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package github

import (
	"encoding/json"
	"errors"
	"time"
)

// Repository is one search result node with the fields the study collects.
type Repository struct {
	Owner              string    `json:"owner"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	Stargazers         int       `json:"stargazers"`
	MergedPullRequests int       `json:"mergedPullRequests"`
	AllIssues          int       `json:"allIssues"`
	ClosedIssues       int       `json:"closedIssues"`
	Releases           int       `json:"releases"`
	PrimaryLanguage    string    `json:"primaryLanguage"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Errors for result nodes that are missing identifying fields.
var (
	ErrMissingName  = errors.New("repository node has no name")
	ErrMissingOwner = errors.New("repository node has no owner login")
)

// totalCount is the GraphQL connection shape used for counters.
type totalCount struct {
	TotalCount int `json:"totalCount"`
}

type ownerJSON struct {
	Login string `json:"login"`
}

type primaryLanguageJSON struct {
	Name string `json:"name"`
}

// repositoryNode is the raw search node as returned by the GraphQL API.
type repositoryNode struct {
	Name            *string              `json:"name"`
	URL             string               `json:"url"`
	Owner           *ownerJSON           `json:"owner"`
	Stargazers      totalCount           `json:"stargazers"`
	PullRequests    totalCount           `json:"pullRequests"`
	AllIssues       totalCount           `json:"allIssues"`
	ClosedIssues    totalCount           `json:"closedIssues"`
	PrimaryLanguage *primaryLanguageJSON `json:"primaryLanguage"`
	CreatedAt       time.Time            `json:"createdAt"`
	Releases        totalCount           `json:"releases"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// UnmarshalNode decodes a GraphQL search node. A node without a name or
// owner login is rejected instead of being silently dropped.
func UnmarshalNode(data []byte) (Repository, error) {
	var raw repositoryNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return Repository{}, err
	}

	if raw.Name == nil || *raw.Name == "" {
		return Repository{}, ErrMissingName
	}
	if raw.Owner == nil || raw.Owner.Login == "" {
		return Repository{}, ErrMissingOwner
	}

	r := Repository{
		Owner:              raw.Owner.Login,
		Name:               *raw.Name,
		URL:                raw.URL,
		Stargazers:         raw.Stargazers.TotalCount,
		MergedPullRequests: raw.PullRequests.TotalCount,
		AllIssues:          raw.AllIssues.TotalCount,
		ClosedIssues:       raw.ClosedIssues.TotalCount,
		Releases:           raw.Releases.TotalCount,
		CreatedAt:          raw.CreatedAt,
		UpdatedAt:          raw.UpdatedAt,
	}
	if raw.PrimaryLanguage != nil {
		r.PrimaryLanguage = raw.PrimaryLanguage.Name
	}
	if r.URL == "" {
		r.URL = "https://github.com/" + r.FullName()
	}
	return r, nil
}

// FullName returns the repository's full name in "owner/name" format.
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// CloneURL returns the HTTPS clone URL.
func (r *Repository) CloneURL() string {
	return "https://github.com/" + r.FullName() + ".git"
}

// AgeYears returns the repository age in fractional years at the given instant.
func (r *Repository) AgeYears(now time.Time) float64 {
	if r.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(r.CreatedAt).Hours() / 24 / 365.25
}
