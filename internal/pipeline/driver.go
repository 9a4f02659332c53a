// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrInvalidPageSize is returned when a run is configured with pageSize < 1.
	ErrInvalidPageSize = errors.New("page size must be at least 1")
	// ErrInvalidDuration is returned for a negative delay or item timeout.
	ErrInvalidDuration = errors.New("duration must not be negative")
	// ErrProcessorPanic marks an outcome whose processor panicked.
	ErrProcessorPanic = errors.New("item processor panicked")
)

// Sleeper pauses between page fetches. It returns early with ctx.Err()
// when the context is cancelled.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper backed by a timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunConfig holds the parameters of a single run.
type RunConfig struct {
	TargetCount int
	PageSize    int
	// Delay is the pause between the end of one page's dispatch and the next fetch.
	Delay time.Duration
	// ItemTimeout bounds each processor call. Zero means no timeout.
	ItemTimeout time.Duration
}

// Validate reports a configuration that Run would reject. A non-positive
// TargetCount is valid and ends the run immediately.
func (c RunConfig) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, c.PageSize)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: delay %s", ErrInvalidDuration, c.Delay)
	}
	if c.ItemTimeout < 0 {
		return fmt.Errorf("%w: item timeout %s", ErrInvalidDuration, c.ItemTimeout)
	}
	return nil
}

// Hooks receive progress notifications. All fields are optional and are
// called synchronously from the run loop.
type Hooks[T any] struct {
	PageFetched func(pageNumber int, page Page[T])
	ItemDone    func(index int, outcome Outcome[T])
}

// Driver orchestrates repeated fetches and per-item dispatch.
// A Driver holds no run state and may be reused; each Run owns its own cursor
// and counters.
type Driver[T any] struct {
	fetcher Fetcher[T]
	sleep   Sleeper
	hooks   Hooks[T]
	logger  *slog.Logger
}

// Option configures a Driver.
type Option[T any] func(*Driver[T])

// WithSleeper replaces the default timer-based sleeper (useful in tests).
func WithSleeper[T any](s Sleeper) Option[T] {
	return func(d *Driver[T]) {
		d.sleep = s
	}
}

// WithHooks installs progress hooks.
func WithHooks[T any](h Hooks[T]) Option[T] {
	return func(d *Driver[T]) {
		d.hooks = h
	}
}

// WithLogger sets the logger used by the driver.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(d *Driver[T]) {
		d.logger = l
	}
}

// NewDriver creates a Driver over the given fetcher.
func NewDriver[T any](fetcher Fetcher[T], opts ...Option[T]) *Driver[T] {
	d := &Driver[T]{
		fetcher: fetcher,
		sleep:   SleepContext,
		logger:  slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run walks the paginated source until TargetCount items have been dispatched,
// the source is exhausted, or a fetch fails.
//
// A run that started returns a populated summary, and its error is non-nil
// only when the run ended with FetchFailed, in which case it equals
// summary.Err. A configuration rejected by RunConfig.Validate never starts:
// the summary is the zero value and the error wraps ErrInvalidPageSize or
// ErrInvalidDuration. Callers that persist summaries should validate first.
func (d *Driver[T]) Run(ctx context.Context, cfg RunConfig, process Processor[T]) (RunSummary[T], error) {
	var summary RunSummary[T]

	if cfg.TargetCount <= 0 {
		summary.Reason = TargetReached
		return summary, nil
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary[T]{}, err
	}

	var cursor Cursor
	for summary.ItemsProcessed < cfg.TargetCount {
		if err := ctx.Err(); err != nil {
			return d.fail(summary, fmt.Errorf("run cancelled before fetch: %w", err))
		}

		d.logger.Debug("fetching page", "page", summary.PagesFetched+1, "page_size", cfg.PageSize, "cursor", cursor.String())
		page, err := d.fetcher.Fetch(ctx, cfg.PageSize, cursor)
		if err != nil {
			return d.fail(summary, err)
		}
		summary.PagesFetched++
		if d.hooks.PageFetched != nil {
			d.hooks.PageFetched(summary.PagesFetched, page)
		}

		if len(page.Items) == 0 {
			d.logger.Info("empty page, no more items", "page", summary.PagesFetched)
			summary.Reason = Exhausted
			return summary, nil
		}

		for _, item := range page.Items {
			outcome := d.dispatch(ctx, cfg.ItemTimeout, process, item)
			summary.Outcomes = append(summary.Outcomes, outcome)
			summary.ItemsProcessed++
			if d.hooks.ItemDone != nil {
				d.hooks.ItemDone(summary.ItemsProcessed, outcome)
			}
		}

		// Target takes priority when the same page also reports no next page.
		if summary.ItemsProcessed >= cfg.TargetCount {
			summary.Reason = TargetReached
			return summary, nil
		}
		if !page.HasNextPage {
			summary.Reason = Exhausted
			return summary, nil
		}

		cursor = page.NextCursor
		if err := d.sleep(ctx, cfg.Delay); err != nil {
			return d.fail(summary, fmt.Errorf("run cancelled during delay: %w", err))
		}
	}

	summary.Reason = TargetReached
	return summary, nil
}

// fail terminates the run with FetchFailed.
func (d *Driver[T]) fail(summary RunSummary[T], err error) (RunSummary[T], error) {
	d.logger.Error("run aborted", "items_processed", summary.ItemsProcessed, "pages", summary.PagesFetched, "error", err)
	summary.Reason = FetchFailed
	summary.Err = err
	return summary, err
}

// dispatch runs the processor for one item and converts any failure,
// including a panic, into a Failure outcome.
func (d *Driver[T]) dispatch(ctx context.Context, timeout time.Duration, process Processor[T], item T) (outcome Outcome[T]) {
	outcome.Item = item
	start := time.Now()

	itemCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		outcome.Duration = time.Since(start)
		if r := recover(); r != nil {
			outcome.Status = Failure
			outcome.Reason = fmt.Sprintf("panic: %v", r)
			outcome.Err = &ItemProcessingError{Reason: outcome.Reason, Err: ErrProcessorPanic}
			d.logger.Warn("item processor panicked", "panic", r)
		}
	}()

	if err := process.Process(itemCtx, item); err != nil {
		outcome.Status = Failure
		outcome.Reason = err.Error()
		outcome.Err = &ItemProcessingError{Reason: outcome.Reason, Err: err}
		d.logger.Warn("item processing failed", "error", err)
		return outcome
	}

	outcome.Status = Success
	return outcome
}
