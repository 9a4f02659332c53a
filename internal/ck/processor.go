// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package ck runs the CK static-analysis tool against shallow clones of
// collected repositories.
package ck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/llbbl/repstudy/internal/github"
)

// Errors returned by the processor.
var (
	// ErrJavaNotFound indicates the java binary is not runnable.
	ErrJavaNotFound = errors.New("java not found in PATH")

	// ErrJarNotFound indicates the configured CK jar does not exist.
	ErrJarNotFound = errors.New("CK jar not found")

	// ErrNoClasses indicates CK found no Java classes in the repository.
	ErrNoClasses = errors.New("no Java classes found")
)

// MetricsSink receives the metrics of every successfully analyzed repository.
type MetricsSink interface {
	SaveMetrics(ctx context.Context, repo github.Repository, m Metrics) error
}

// Processor clones a repository, runs CK on it, stores the aggregated
// metrics and removes the clone.
type Processor struct {
	jarPath  string
	workDir  string
	cloner   Cloner
	executor CommandExecutor
	sink     MetricsSink
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithCloner replaces the go-git cloner.
func WithCloner(c Cloner) Option {
	return func(p *Processor) {
		p.cloner = c
	}
}

// WithExecutor replaces the os/exec executor.
func WithExecutor(e CommandExecutor) Option {
	return func(p *Processor) {
		p.executor = e
	}
}

// WithWorkDir sets the parent directory for temporary clones.
func WithWorkDir(dir string) Option {
	return func(p *Processor) {
		p.workDir = dir
	}
}

// NewProcessor creates a processor that runs the CK jar at jarPath and hands
// results to sink.
func NewProcessor(jarPath string, sink MetricsSink, opts ...Option) *Processor {
	p := &Processor{
		jarPath:  jarPath,
		cloner:   GitCloner{Depth: 1},
		executor: &RealExecutor{},
		sink:     sink,
		logger:   slog.Default().With("component", "ck"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process analyzes one repository. The temporary directory is removed on
// every path, including failures.
func (p *Processor) Process(ctx context.Context, repo github.Repository) error {
	dir, err := os.MkdirTemp(p.workDir, "repstudy-"+sanitize(repo.Owner)+"-"+sanitize(repo.Name)+"-*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("failed to remove work directory", "path", dir, "error", err)
		}
	}()

	cloneDir := filepath.Join(dir, "repo")
	p.logger.Debug("cloning repository", "repo", repo.FullName(), "path", cloneDir)
	if err := p.cloner.Clone(ctx, repo.CloneURL(), cloneDir); err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}

	outDir := filepath.Join(dir, "ck")
	if err := os.Mkdir(outDir, 0750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// CK treats the last argument as a path prefix, so it needs the trailing separator.
	output, err := p.executor.Execute(ctx, "java", "-jar", p.jarPath,
		cloneDir, "false", "0", "false", outDir+string(filepath.Separator))
	if err != nil {
		return fmt.Errorf("ck failed: %w%s", err, outputSuffix(output))
	}

	f, err := os.Open(filepath.Join(outDir, "class.csv"))
	if err != nil {
		return fmt.Errorf("reading ck report: %w", err)
	}
	defer f.Close()

	metrics, err := ParseClassCSV(f)
	if err != nil {
		return fmt.Errorf("parsing ck report: %w", err)
	}
	if metrics.ClassCount == 0 {
		return ErrNoClasses
	}

	if p.sink != nil {
		if err := p.sink.SaveMetrics(ctx, repo, metrics); err != nil {
			return fmt.Errorf("saving metrics: %w", err)
		}
	}

	p.logger.Info("analyzed repository", "repo", repo.FullName(), "classes", metrics.ClassCount, "loc", metrics.TotalLOC)
	return nil
}

// CheckJavaAvailable verifies that java runs and that the CK jar exists.
func CheckJavaAvailable(ctx context.Context, executor CommandExecutor, jarPath string) error {
	if _, err := executor.Execute(ctx, "java", "-version"); err != nil {
		return fmt.Errorf("%w: %v", ErrJavaNotFound, err)
	}
	if jarPath == "" {
		return fmt.Errorf("%w: no path configured", ErrJarNotFound)
	}
	if _, err := os.Stat(jarPath); err != nil {
		return fmt.Errorf("%w: %s", ErrJarNotFound, jarPath)
	}
	return nil
}

// sanitize keeps a name safe for use in a temp directory pattern.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '*' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, s)
}

// outputSuffix formats the tail of command output for an error message.
func outputSuffix(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return ""
	}
	if len(text) > 500 {
		text = "..." + text[len(text)-500:]
	}
	return " (output: " + text + ")"
}
