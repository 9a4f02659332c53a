// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package config provides environment-based configuration for repstudy.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultGraphQLURL is the GitHub GraphQL endpoint.
const DefaultGraphQLURL = "https://api.github.com/graphql"

// DefaultSearchQuery selects the most-starred repositories.
const DefaultSearchQuery = "stars:>1000 sort:stars-desc"

// ErrMissingToken is returned by RequireToken when no GitHub token is configured.
var ErrMissingToken = errors.New("no GitHub token: set GITHUB_TOKEN or GITHUB_ACCESS_TOKEN")

// Config holds application configuration loaded from environment variables.
type Config struct {
	LogLevel  string // debug, info, warn, error (default: info)
	LogFormat string // text, json (default: text)
	DBPath    string // default: ~/.repstudy/repstudy.db (empty means use default)

	GitHubToken string // GITHUB_TOKEN, falling back to GITHUB_ACCESS_TOKEN
	GraphQLURL  string // default: https://api.github.com/graphql
	SearchQuery string // default: stars:>1000 sort:stars-desc

	PageSize       int           // default: 1
	TargetCount    int           // default: 1000
	RequestDelay   time.Duration // default: 1s
	RequestTimeout time.Duration // default: 30s
	ItemTimeout    time.Duration // default: 0 (none)

	CKJar   string // path to the CK jar (empty disables metric collection)
	WorkDir string // parent directory for clones (empty means os.TempDir)

	PullRequests    bool // collect pull requests for the review study (default: false)
	MinPullRequests int  // merged PRs a repository needs to be sampled (default: 100)
	MaxPullRequests int  // eligible PRs kept per repository (default: 50)
}

// validLogLevels contains the allowed log level values.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// validLogFormats contains the allowed log format values.
var validLogFormats = []string{"text", "json"}

// Load reads configuration from environment variables, with .env file as optional override.
// The .env file is loaded if present but errors are ignored if it doesn't exist.
func Load() (*Config, error) {
	// Try to load .env file (ignore if not found)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("REPSTUDY_LOG_LEVEL", "info"),
		LogFormat: getEnv("REPSTUDY_LOG_FORMAT", "text"),
		DBPath:    getEnv("REPSTUDY_DB_PATH", ""),

		GitHubToken: getEnv("GITHUB_TOKEN", os.Getenv("GITHUB_ACCESS_TOKEN")),
		GraphQLURL:  getEnv("GITHUB_API_URL", DefaultGraphQLURL),
		SearchQuery: getEnv("REPSTUDY_SEARCH_QUERY", DefaultSearchQuery),

		PageSize:       getIntEnv("REPSTUDY_PAGE_SIZE", 1),
		TargetCount:    getIntEnv("REPSTUDY_TARGET_COUNT", 1000),
		RequestDelay:   getDurationEnv("REPSTUDY_REQUEST_DELAY", time.Second),
		RequestTimeout: getDurationEnv("REPSTUDY_REQUEST_TIMEOUT", 30*time.Second),
		ItemTimeout:    getDurationEnv("REPSTUDY_ITEM_TIMEOUT", 0),

		CKJar:   getEnv("REPSTUDY_CK_JAR", ""),
		WorkDir: getEnv("REPSTUDY_WORK_DIR", ""),

		PullRequests:    getBoolEnv("REPSTUDY_PULL_REQUESTS", false),
		MinPullRequests: getIntEnv("REPSTUDY_MIN_PULL_REQUESTS", 100),
		MaxPullRequests: getIntEnv("REPSTUDY_MAX_PULL_REQUESTS", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. It is called by Load and again by commands
// after flag overrides are applied.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid REPSTUDY_LOG_LEVEL %q: must be one of %v", c.LogLevel, validLogLevels)
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid REPSTUDY_LOG_FORMAT %q: must be one of %v", c.LogFormat, validLogFormats)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("invalid REPSTUDY_PAGE_SIZE %d: must be between 1 and 100", c.PageSize)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("invalid REPSTUDY_REQUEST_DELAY %s: must not be negative", c.RequestDelay)
	}
	if c.ItemTimeout < 0 {
		return fmt.Errorf("invalid REPSTUDY_ITEM_TIMEOUT %s: must not be negative", c.ItemTimeout)
	}
	if c.MinPullRequests < 0 {
		return fmt.Errorf("invalid REPSTUDY_MIN_PULL_REQUESTS %d: must not be negative", c.MinPullRequests)
	}
	if c.MaxPullRequests < 1 {
		return fmt.Errorf("invalid REPSTUDY_MAX_PULL_REQUESTS %d: must be at least 1", c.MaxPullRequests)
	}
	return nil
}

// RequireToken returns ErrMissingToken when no token is configured.
func (c *Config) RequireToken() error {
	if c.GitHubToken == "" {
		return ErrMissingToken
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable or returns a default value.
// If the value cannot be parsed as a duration, the default is returned.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getIntEnv retrieves an integer environment variable or returns a default value.
// If the value cannot be parsed as an integer, the default is returned.
func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getBoolEnv retrieves a boolean environment variable or returns a default value.
// If the value cannot be parsed as a boolean, the default is returned.
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
