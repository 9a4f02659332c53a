// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package collect runs the repository collection pipeline against the store.
package collect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/metrics"
	"github.com/llbbl/repstudy/internal/pipeline"
	"github.com/llbbl/repstudy/internal/store"
)

// MsgType represents the type of progress message.
type MsgType int

const (
	// Started indicates a run record was created and fetching has begun.
	Started MsgType = iota
	// PageFetched indicates a page was returned by the source.
	PageFetched
	// ItemDone indicates one repository finished processing.
	ItemDone
	// Completed indicates the run ended with TargetReached or Exhausted.
	Completed
	// Failed indicates the run ended with FetchFailed or could not start.
	Failed
)

func (t MsgType) String() string {
	switch t {
	case Started:
		return "started"
	case PageFetched:
		return "page_fetched"
	case ItemDone:
		return "item_done"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Msg represents a progress message sent from the collector to the TUI.
type Msg struct {
	Type      MsgType
	RunID     int64
	Target    int                                 // only populated for Started
	Page      int                                 // only populated for PageFetched
	PageItems int                                 // only populated for PageFetched
	Index     int                                 // only populated for ItemDone (1-based)
	Outcome   pipeline.Outcome[github.Repository] // only populated for ItemDone
	Summary   pipeline.RunSummary[github.Repository]
	Error     error // populated for Failed
}

// Params describes a single collection run.
type Params struct {
	SearchQuery string
	Run         pipeline.RunConfig
}

// Result is what a finished run produced.
type Result struct {
	RunID   int64
	Summary pipeline.RunSummary[github.Repository]
}

// Collector wires a fetcher and processor to the pipeline driver and records
// every outcome in the store as it happens.
type Collector struct {
	store     *store.Store
	fetcher   pipeline.Fetcher[github.Repository]
	processor pipeline.Processor[github.Repository]
	recorder  *metrics.Recorder
	sleep     pipeline.Sleeper
	logger    *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithRecorder feeds Prometheus collectors from the run.
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Collector) {
		c.recorder = r
	}
}

// WithSleeper replaces the inter-page sleeper.
func WithSleeper(s pipeline.Sleeper) Option {
	return func(c *Collector) {
		c.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// New creates a Collector. A nil processor records repositories without
// further analysis.
func New(st *store.Store, fetcher pipeline.Fetcher[github.Repository], processor pipeline.Processor[github.Repository], opts ...Option) *Collector {
	if processor == nil {
		processor = CatalogOnly
	}
	c := &Collector{
		store:     st,
		fetcher:   fetcher,
		processor: processor,
		sleep:     pipeline.SleepContext,
		logger:    slog.Default().With("component", "collect"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CatalogOnly accepts every repository. The outcome log persists it, so no
// extra work is needed when metric extraction is disabled.
var CatalogOnly = pipeline.ProcessorFunc[github.Repository](func(ctx context.Context, _ github.Repository) error {
	return ctx.Err()
})

// Run executes one collection run in the foreground.
// The error is non-nil when the run could not be recorded or ended with
// FetchFailed; in the latter case the result is still populated.
func (c *Collector) Run(ctx context.Context, params Params) (Result, error) {
	return c.run(ctx, params, func(Msg) {})
}

// Start runs a collection in the background. The returned channel receives
// progress messages and is closed after the final Completed or Failed
// message. Callers must drain it until it is closed.
func (c *Collector) Start(ctx context.Context, params Params) <-chan Msg {
	msgCh := make(chan Msg, 32)

	go func() {
		defer close(msgCh)

		emit := func(m Msg) {
			select {
			case msgCh <- m:
			case <-ctx.Done():
			}
		}

		result, err := c.run(ctx, params, emit)
		final := Msg{Type: Completed, RunID: result.RunID, Summary: result.Summary}
		if err != nil {
			final.Type = Failed
			final.Error = err
		}
		// Always delivered, even after cancellation.
		msgCh <- final
	}()

	return msgCh
}

func (c *Collector) run(ctx context.Context, params Params, emit func(Msg)) (Result, error) {
	if err := params.Run.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid run config: %w", err)
	}

	// Bookkeeping must land even when the run itself is cancelled.
	persistCtx := context.WithoutCancel(ctx)

	runID, err := c.store.RecordRunStart(persistCtx, store.RunParams{
		SearchQuery: params.SearchQuery,
		TargetCount: params.Run.TargetCount,
		PageSize:    params.Run.PageSize,
	})
	if err != nil {
		return Result{}, fmt.Errorf("recording run start: %w", err)
	}

	logger := c.logger.With("run_id", runID)
	logger.Info("collection started",
		"target", params.Run.TargetCount,
		"page_size", params.Run.PageSize,
		"query", params.SearchQuery,
	)
	emit(Msg{Type: Started, RunID: runID, Target: params.Run.TargetCount})

	var observed pipeline.Hooks[github.Repository]
	if c.recorder != nil {
		observed = c.recorder.Hooks()
	}

	hooks := pipeline.Hooks[github.Repository]{
		PageFetched: func(n int, page pipeline.Page[github.Repository]) {
			if observed.PageFetched != nil {
				observed.PageFetched(n, page)
			}
			emit(Msg{Type: PageFetched, RunID: runID, Page: n, PageItems: len(page.Items)})
		},
		ItemDone: func(index int, o pipeline.Outcome[github.Repository]) {
			if err := c.store.RecordOutcome(persistCtx, runID, index, o); err != nil {
				logger.Warn("failed to record outcome", "repo", o.Item.FullName(), "error", err)
			}
			if observed.ItemDone != nil {
				observed.ItemDone(index, o)
			}
			emit(Msg{Type: ItemDone, RunID: runID, Index: index, Outcome: o})
		},
	}

	driver := pipeline.NewDriver(c.fetcher,
		pipeline.WithHooks(hooks),
		pipeline.WithSleeper[github.Repository](c.sleep),
		pipeline.WithLogger[github.Repository](logger),
	)

	summary, runErr := driver.Run(ctx, params.Run, c.processor)
	result := Result{RunID: runID, Summary: summary}

	if err := c.store.RecordRunComplete(persistCtx, runID, summary); err != nil {
		logger.Error("failed to record run completion", "error", err)
		if runErr == nil {
			return result, fmt.Errorf("recording run completion: %w", err)
		}
	}
	if c.recorder != nil {
		c.recorder.ObserveRun(summary.Reason)
	}

	logger.Info("collection finished",
		"reason", summary.Reason.String(),
		"items", summary.ItemsProcessed,
		"pages", summary.PagesFetched,
		"succeeded", summary.Succeeded(),
		"failed", summary.Failed(),
	)
	return result, runErr
}
