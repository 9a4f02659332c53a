// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package pipeline

import (
	"fmt"
	"time"
)

// TerminationReason records why a run stopped. Exactly one is set per run.
type TerminationReason int

const (
	// TargetReached means itemsProcessed reached the target count.
	TargetReached TerminationReason = iota
	// Exhausted means the API ran out of pages or returned an empty page.
	Exhausted
	// FetchFailed means a page fetch failed; RunSummary.Err holds the cause.
	FetchFailed
)

// String returns the lowercase name stored in the database and reports.
func (r TerminationReason) String() string {
	switch r {
	case TargetReached:
		return "target_reached"
	case Exhausted:
		return "exhausted"
	case FetchFailed:
		return "fetch_failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// OutcomeStatus is the result of processing one item.
type OutcomeStatus int

const (
	// Success means the processor returned nil.
	Success OutcomeStatus = iota
	// Failure means the processor returned an error or panicked.
	Failure
)

// String returns "success" or "failure".
func (s OutcomeStatus) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

// Outcome is one entry of the run's ordered outcome log.
type Outcome[T any] struct {
	Item     T
	Status   OutcomeStatus
	Reason   string // empty on success
	Duration time.Duration
	// Err is an *ItemProcessingError on failure and nil on success.
	Err error
}

// RunSummary is the aggregate record of one run.
type RunSummary[T any] struct {
	ItemsProcessed int
	PagesFetched   int
	Outcomes       []Outcome[T]
	Reason         TerminationReason
	Err            error // set only when Reason is FetchFailed
}

// Succeeded returns the number of successful outcomes.
func (s RunSummary[T]) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (s RunSummary[T]) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// ItemProcessingError wraps a processor failure. Failed outcomes carry one in Outcome.Err.
type ItemProcessingError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ItemProcessingError) Error() string {
	return "processing item: " + e.Reason
}

// Unwrap returns the underlying processor error.
func (e *ItemProcessingError) Unwrap() error {
	return e.Err
}
