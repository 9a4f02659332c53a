// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/llbbl/repstudy/internal/ck"
	"github.com/llbbl/repstudy/internal/collect"
	"github.com/llbbl/repstudy/internal/db"
	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/logging"
	"github.com/llbbl/repstudy/internal/metrics"
	"github.com/llbbl/repstudy/internal/pipeline"
	"github.com/llbbl/repstudy/internal/review"
	"github.com/llbbl/repstudy/internal/store"
	"github.com/llbbl/repstudy/internal/tui"
)

// Flag variables
var (
	targetFlag      int
	pageSizeFlag    int
	delayFlag       time.Duration
	itemTimeoutFlag time.Duration
	queryFlag       string
	ckJarFlag       string
	workDirFlag     string
	tuiFlag         bool
	metricsAddrFlag string
	pullsFlag       bool
	minPullsFlag    int
	maxPullsFlag    int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect repositories from the GitHub search API",
	Long: `Walk the GitHub repository search page by page until the target number of
repositories has been dispatched or the results run out. Every repository is
recorded; with --ck-jar each one is also cloned and measured with CK, and with
--pull-requests a sample of its closed and merged pull requests is stored for
the code review study.

Flags override the REPSTUDY_* environment variables.`,
	RunE: runCollect,
}

func init() {
	flags := collectCmd.Flags()
	flags.IntVar(&targetFlag, "target", 0, "Number of repositories to dispatch (default from REPSTUDY_TARGET_COUNT)")
	flags.IntVar(&pageSizeFlag, "page-size", 0, "Repositories per search page, 1-100 (default from REPSTUDY_PAGE_SIZE)")
	flags.DurationVar(&delayFlag, "delay", 0, "Pause between pages (default from REPSTUDY_REQUEST_DELAY)")
	flags.DurationVar(&itemTimeoutFlag, "item-timeout", 0, "Per-repository processing timeout, 0 for none")
	flags.StringVar(&queryFlag, "query", "", "GitHub search query (default from REPSTUDY_SEARCH_QUERY)")
	flags.StringVar(&ckJarFlag, "ck-jar", "", "Path to the CK jar; enables clone and measure")
	flags.StringVar(&workDirFlag, "work-dir", "", "Parent directory for temporary clones")
	flags.BoolVar(&tuiFlag, "tui", false, "Show live progress in a terminal UI")
	flags.StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	flags.BoolVar(&pullsFlag, "pull-requests", false, "Sample closed and merged pull requests of every repository")
	flags.IntVar(&minPullsFlag, "min-pull-requests", 0, "Merged pull requests a repository needs to be sampled (default from REPSTUDY_MIN_PULL_REQUESTS)")
	flags.IntVar(&maxPullsFlag, "max-pull-requests", 0, "Eligible pull requests kept per repository (default from REPSTUDY_MAX_PULL_REQUESTS)")
}

// applyCollectFlags overrides configuration with explicitly set collect flags.
func applyCollectFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.TargetCount = targetFlag
	}
	if flags.Changed("page-size") {
		cfg.PageSize = pageSizeFlag
	}
	if flags.Changed("delay") {
		cfg.RequestDelay = delayFlag
	}
	if flags.Changed("item-timeout") {
		cfg.ItemTimeout = itemTimeoutFlag
	}
	if flags.Changed("query") {
		cfg.SearchQuery = queryFlag
	}
	if flags.Changed("ck-jar") {
		cfg.CKJar = ckJarFlag
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = workDirFlag
	}
	if flags.Changed("pull-requests") {
		cfg.PullRequests = pullsFlag
	}
	if flags.Changed("min-pull-requests") {
		cfg.MinPullRequests = minPullsFlag
	}
	if flags.Changed("max-pull-requests") {
		cfg.MaxPullRequests = maxPullsFlag
	}
	return cfg.Validate()
}

func runCollect(cmd *cobra.Command, args []string) error {
	if err := applyCollectFlags(cmd); err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	logger := logging.WithComponent("cmd")

	st, dbPath, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := metrics.NewRecorder()
	if metricsAddrFlag != "" {
		shutdown, err := serveMetrics(metricsAddrFlag, recorder, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	client := github.NewClient(cfg.GitHubToken,
		github.WithEndpoint(cfg.GraphQLURL),
		github.WithSearchQuery(cfg.SearchQuery),
		github.WithTimeout(cfg.RequestTimeout),
		github.WithObserver(recorder),
	)

	viewer, err := client.GetViewer(ctx)
	if err != nil {
		return fmt.Errorf("checking GitHub credentials: %w", err)
	}
	recorder.RateLimitRemaining(viewer.RateLimitRemaining)
	fmt.Fprintf(out, "Authenticated as %s (rate limit %d/%d)\n", viewer.Login, viewer.RateLimitRemaining, viewer.RateLimitLimit)

	processor, err := buildProcessor(ctx, st, client)
	if err != nil {
		return err
	}

	if tuiFlag {
		logFile, err := redirectLogs(dbPath)
		if err != nil {
			return err
		}
		defer logFile.Close()
		fmt.Fprintf(out, "Logging to %s\n", logFile.Name())
	}
	collector := collect.New(st, client, processor,
		collect.WithRecorder(recorder),
		collect.WithLogger(logging.WithComponent("collect")),
	)

	params := collect.Params{
		SearchQuery: cfg.SearchQuery,
		Run: pipeline.RunConfig{
			TargetCount: cfg.TargetCount,
			PageSize:    cfg.PageSize,
			Delay:       cfg.RequestDelay,
			ItemTimeout: cfg.ItemTimeout,
		},
	}

	var result collect.Result
	var runErr error
	if tuiFlag {
		result, runErr = runWithTUI(ctx, collector, params)
	} else {
		result, runErr = collector.Run(ctx, params)
	}

	if result.RunID == 0 {
		return runErr
	}
	printSummary(out, result)
	if runErr != nil {
		return fmt.Errorf("run %d stopped: %w", result.RunID, runErr)
	}
	return nil
}

// buildProcessor chains the CK processor (when a jar is configured) and the
// pull request sampler (when enabled). It returns nil, meaning catalog only,
// when neither is on.
func buildProcessor(ctx context.Context, st *store.Store, source review.Source) (pipeline.Processor[github.Repository], error) {
	var processors []pipeline.Processor[github.Repository]

	if cfg.CKJar != "" {
		executor := &ck.RealExecutor{}
		if err := ck.CheckJavaAvailable(ctx, executor, cfg.CKJar); err != nil {
			return nil, err
		}
		processors = append(processors, ck.NewProcessor(cfg.CKJar, st,
			ck.WithExecutor(executor),
			ck.WithWorkDir(cfg.WorkDir),
		))
	}

	if cfg.PullRequests {
		criteria := review.DefaultCriteria()
		criteria.MinPullRequests = cfg.MinPullRequests
		criteria.MaxPullRequests = cfg.MaxPullRequests
		criteria.Delay = cfg.RequestDelay
		processors = append(processors, review.NewProcessor(source, st,
			review.WithCriteria(criteria),
			review.WithLogger(logging.WithComponent("review")),
		))
	}

	switch len(processors) {
	case 0:
		return nil, nil
	case 1:
		return processors[0], nil
	default:
		return pipeline.Chain(processors...), nil
	}
}

// redirectLogs moves log output into a file beside the database so it does
// not draw over the TUI.
func redirectLogs(dbPath string) (*os.File, error) {
	dir := filepath.Dir(dbPath)
	if dbPath == "" || dbPath == db.MemoryPath {
		dir = os.TempDir()
	}
	f, err := os.OpenFile(filepath.Join(dir, "repstudy.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	logging.SetupLoggerTo(f, cfg.LogLevel, cfg.LogFormat)
	return f, nil
}

// runWithTUI runs the collection in the background and blocks on the TUI.
// Quitting the TUI cancels the run; the final message is still drained so
// the result reflects what was recorded.
func runWithTUI(ctx context.Context, collector *collect.Collector, params collect.Params) (collect.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgCh := collector.Start(ctx, params)
	model := tui.NewModel(msgCh, cancel, params.SearchQuery)

	final, tuiErr := tea.NewProgram(model, tea.WithAltScreen()).Run()
	cancel()

	if m, ok := final.(tui.Model); ok && m.Done() {
		// The model consumed the final message; drain anything left.
		for range msgCh {
		}
		return collect.Result{RunID: m.RunID(), Summary: m.Summary()}, m.Err()
	}

	var result collect.Result
	var runErr error
	for msg := range msgCh {
		switch msg.Type {
		case collect.Started:
			result.RunID = msg.RunID
		case collect.Completed:
			result = collect.Result{RunID: msg.RunID, Summary: msg.Summary}
			runErr = nil
		case collect.Failed:
			result = collect.Result{RunID: msg.RunID, Summary: msg.Summary}
			runErr = msg.Error
		}
	}
	if tuiErr != nil && runErr == nil {
		runErr = fmt.Errorf("running TUI: %w", tuiErr)
	}
	return result, runErr
}

// serveMetrics starts a /metrics endpoint and returns its shutdown function.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printSummary(out io.Writer, result collect.Result) {
	s := result.Summary
	fmt.Fprintf(out, "Run #%d: %s\n", result.RunID, s.Reason)
	fmt.Fprintf(out, "  Items processed: %d (%d succeeded, %d failed)\n", s.ItemsProcessed, s.Succeeded(), s.Failed())
	fmt.Fprintf(out, "  Pages fetched:   %d\n", s.PagesFetched)
	if s.Err != nil {
		fmt.Fprintf(out, "  Error:           %v\n", s.Err)
	}
}
