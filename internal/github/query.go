// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package github

import (
	"fmt"
	"strconv"
)

// DefaultSearchQuery selects the most-starred public repositories.
const DefaultSearchQuery = "stars:>1000 sort:stars-desc"

// searchQueryTemplate is the repository search document. The search expression
// is fixed per client; only first and cursor vary between requests.
const searchQueryTemplate = `query($first: Int!, $cursor: String) {
  search(query: %s, type: REPOSITORY, first: $first, after: $cursor) {
    nodes {
      ... on Repository {
        name
        url
        owner { login }
        stargazers { totalCount }
        pullRequests(states: [MERGED]) { totalCount }
        allIssues: issues(states: [OPEN, CLOSED]) { totalCount }
        closedIssues: issues(states: [CLOSED]) { totalCount }
        primaryLanguage { name }
        createdAt
        releases { totalCount }
        updatedAt
      }
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
}`

// viewerQuery checks the token and reports the remaining GraphQL budget.
const viewerQuery = `query {
  viewer { login }
  rateLimit { limit remaining resetAt }
}`

// BuildSearchQuery renders the search document for the given search expression.
// An empty expression falls back to DefaultSearchQuery.
func BuildSearchQuery(search string) string {
	if search == "" {
		search = DefaultSearchQuery
	}
	return fmt.Sprintf(searchQueryTemplate, strconv.Quote(search))
}

// pullRequestsQuery lists closed and merged pull requests of one repository,
// newest first, with the counters the review study needs.
const pullRequestsQuery = `query($owner: String!, $name: String!, $first: Int!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: [MERGED, CLOSED], first: $first, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        number
        state
        createdAt
        mergedAt
        closedAt
        bodyText
        changedFiles
        additions
        deletions
        reviews { totalCount }
        comments { totalCount }
        participants { totalCount }
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}`
