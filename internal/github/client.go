// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package github implements a cursor-paginated client for the GitHub GraphQL
// repository search and per-repository pull request listings.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/llbbl/repstudy/internal/pipeline"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Custom error types for common GitHub API failures.
var (
	// ErrNotAuthenticated indicates the token is missing or rejected.
	ErrNotAuthenticated = errors.New("not authenticated with GitHub")

	// ErrNotFound indicates the endpoint was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimit indicates the GitHub API rate limit has been exceeded.
	ErrRateLimit = errors.New("GitHub API rate limit exceeded")

	// ErrMalformedResponse indicates a 200 response whose body does not have
	// the expected envelope.
	ErrMalformedResponse = errors.New("malformed GraphQL response")

	// ErrQueryFailed indicates the GraphQL layer reported errors.
	ErrQueryFailed = errors.New("GraphQL query failed")
)

// FetchError describes a failed page fetch. StatusCode is 0 when no HTTP
// response was received.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetching page")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (body: %s)", truncate(e.Body, 200))
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Observer receives per-request telemetry. Implementations must be safe to
// call from the fetch path.
type Observer interface {
	FetchCompleted(status int)
	RateLimitRemaining(remaining int)
}

// Client issues GraphQL search requests against GitHub.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	query      string
	observer   Observer
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoint sets the GraphQL endpoint URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithSearchQuery sets the search expression used for every page.
func WithSearchQuery(search string) ClientOption {
	return func(c *Client) {
		c.query = BuildSearchQuery(search)
	}
}

// WithTimeout sets the per-request timeout. The client is copied first, so
// an *http.Client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithObserver installs a telemetry observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a new GitHub client authenticating with the given token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		endpoint:   DefaultEndpoint,
		token:      token,
		query:      BuildSearchQuery(""),
		logger:     slog.Default().With("component", "github"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// connection is a GraphQL node list with its continuation state.
type connection struct {
	Nodes    []json.RawMessage `json:"nodes"`
	PageInfo *struct {
		EndCursor   pipeline.Cursor `json:"endCursor"`
		HasNextPage bool            `json:"hasNextPage"`
	} `json:"pageInfo"`
}

type searchEnvelope struct {
	Data *struct {
		Search *connection `json:"search"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Fetch requests one page of search results. It performs exactly one HTTP
// request and never retries; every failure is returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, pageSize int, cursor pipeline.Cursor) (pipeline.Page[Repository], error) {
	if pageSize < 1 {
		return pipeline.Page[Repository]{}, fmt.Errorf("%w: got %d", pipeline.ErrInvalidPageSize, pageSize)
	}

	body, err := c.post(ctx, requestBody{
		Query: c.query,
		Variables: map[string]any{
			"first":  pageSize,
			"cursor": cursor,
		},
	})
	if err != nil {
		return pipeline.Page[Repository]{}, err
	}

	page, err := parseSearchPage(body)
	if err != nil {
		return pipeline.Page[Repository]{}, &FetchError{StatusCode: http.StatusOK, Body: string(body), Err: err}
	}

	c.logger.Debug("fetched page", "items", len(page.Items), "has_next_page", page.HasNextPage)
	return page, nil
}

// Viewer is the authenticated account and its GraphQL budget.
type Viewer struct {
	Login              string
	RateLimitLimit     int
	RateLimitRemaining int
	RateLimitResetAt   time.Time
}

// GetViewer returns the login of the token owner and the current rate limit.
// It is used as a preflight check before a run.
func (c *Client) GetViewer(ctx context.Context) (Viewer, error) {
	body, err := c.post(ctx, requestBody{Query: viewerQuery})
	if err != nil {
		return Viewer{}, err
	}

	var resp struct {
		Data *struct {
			Viewer struct {
				Login string `json:"login"`
			} `json:"viewer"`
			RateLimit struct {
				Limit     int       `json:"limit"`
				Remaining int       `json:"remaining"`
				ResetAt   time.Time `json:"resetAt"`
			} `json:"rateLimit"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Viewer{}, &FetchError{StatusCode: http.StatusOK, Body: string(body), Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if len(resp.Errors) > 0 {
		return Viewer{}, &FetchError{StatusCode: http.StatusOK, Body: string(body), Err: graphQLErrorsToErr(resp.Errors)}
	}
	if resp.Data == nil || resp.Data.Viewer.Login == "" {
		return Viewer{}, &FetchError{StatusCode: http.StatusOK, Body: string(body), Err: ErrNotAuthenticated}
	}

	return Viewer{
		Login:              resp.Data.Viewer.Login,
		RateLimitLimit:     resp.Data.RateLimit.Limit,
		RateLimitRemaining: resp.Data.RateLimit.Remaining,
		RateLimitResetAt:   resp.Data.RateLimit.ResetAt,
	}, nil
}

// post sends one GraphQL request and returns the body of a 200 response.
func (c *Client) post(ctx context.Context, payload requestBody) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0)
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	c.observe(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	remaining, hasRemaining := rateLimitRemaining(resp.Header)
	if hasRemaining && c.observer != nil {
		c.observer.RateLimitRemaining(remaining)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.wrapStatus(resp.StatusCode, body, hasRemaining && remaining == 0)
	}
	return body, nil
}

// observe forwards request telemetry to the observer if one is installed.
func (c *Client) observe(status int) {
	if c.observer != nil {
		c.observer.FetchCompleted(status)
	}
}

// wrapStatus maps a non-200 response to a FetchError, classifying common failures.
func (c *Client) wrapStatus(status int, body []byte, budgetExhausted bool) error {
	fe := &FetchError{StatusCode: status, Body: string(body)}
	lower := strings.ToLower(string(body))

	switch {
	case status == http.StatusUnauthorized:
		fe.Err = ErrNotAuthenticated
	case (status == http.StatusForbidden || status == http.StatusTooManyRequests) &&
		(budgetExhausted || strings.Contains(lower, "rate limit")):
		fe.Err = ErrRateLimit
	case status == http.StatusNotFound:
		fe.Err = ErrNotFound
	}

	c.logger.Warn("page request rejected", "status", status, "error", fe.Err)
	return fe
}

// parseSearchPage decodes the search envelope into a page of repositories.
func parseSearchPage(body []byte) (pipeline.Page[Repository], error) {
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return pipeline.Page[Repository]{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(env.Errors) > 0 && env.Data == nil {
		return pipeline.Page[Repository]{}, graphQLErrorsToErr(env.Errors)
	}
	if env.Data == nil || env.Data.Search == nil {
		return pipeline.Page[Repository]{}, fmt.Errorf("%w: missing data.search", ErrMalformedResponse)
	}
	return decodeConnection(env.Data.Search, "data.search", UnmarshalNode)
}

// decodeConnection validates a connection and decodes each node. A page that
// claims more results must carry the cursor to fetch them.
func decodeConnection[T any](conn *connection, path string, decode func([]byte) (T, error)) (pipeline.Page[T], error) {
	if conn.Nodes == nil {
		return pipeline.Page[T]{}, fmt.Errorf("%w: missing %s.nodes", ErrMalformedResponse, path)
	}
	if conn.PageInfo == nil {
		return pipeline.Page[T]{}, fmt.Errorf("%w: missing %s.pageInfo", ErrMalformedResponse, path)
	}
	if conn.PageInfo.HasNextPage && conn.PageInfo.EndCursor.IsZero() {
		return pipeline.Page[T]{}, fmt.Errorf("%w: hasNextPage without endCursor", ErrMalformedResponse)
	}

	items := make([]T, 0, len(conn.Nodes))
	for i, node := range conn.Nodes {
		item, err := decode(node)
		if err != nil {
			return pipeline.Page[T]{}, fmt.Errorf("%w: node %d: %w", ErrMalformedResponse, i, err)
		}
		items = append(items, item)
	}

	page := pipeline.Page[T]{
		Items:       items,
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	if page.HasNextPage {
		page.NextCursor = conn.PageInfo.EndCursor
	}
	return page, nil
}

// graphQLErrorsToErr classifies a GraphQL error list.
func graphQLErrorsToErr(errs []graphQLError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Type {
		case "RATE_LIMITED":
			return fmt.Errorf("%w: %s", ErrRateLimit, e.Message)
		case "NOT_FOUND":
			return fmt.Errorf("%w: %s", ErrNotFound, e.Message)
		}
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%w: %s", ErrQueryFailed, strings.Join(msgs, "; "))
}

// rateLimitRemaining parses the X-RateLimit-Remaining header.
func rateLimitRemaining(h http.Header) (int, bool) {
	v := h.Get("X-RateLimit-Remaining")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
