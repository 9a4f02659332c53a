// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package export writes run logs and study results to disk.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/llbbl/repstudy/internal/store"
	"github.com/llbbl/repstudy/internal/study"
)

// timestampFormat is used in generated filenames.
const timestampFormat = "2006-01-02-150405"

// RunExport represents the complete export of one run.
type RunExport struct {
	ExportedAt time.Time             `json:"exported_at"`
	Run        store.RunRecord       `json:"run"`
	Outcomes   []store.OutcomeRecord `json:"outcomes"`
}

// WriteRunJSON encodes a run and its outcome log as indented JSON.
func WriteRunJSON(w io.Writer, run store.RunRecord, outcomes []store.OutcomeRecord, exportedAt time.Time) error {
	if outcomes == nil {
		outcomes = []store.OutcomeRecord{}
	}
	return writeJSON(w, RunExport{
		ExportedAt: exportedAt,
		Run:        run,
		Outcomes:   outcomes,
	})
}

// ExportRun writes a run as JSON to a timestamped file in dir.
// Returns the path on success or an empty string with an error on failure.
func ExportRun(dir string, run store.RunRecord, outcomes []store.OutcomeRecord) (string, error) {
	now := time.Now()
	name := fmt.Sprintf("run-%d-%s.json", run.ID, now.Format(timestampFormat))
	return writeFile(dir, name, func(w io.Writer) error {
		return WriteRunJSON(w, run, outcomes, now)
	})
}

// WriteStudyJSON encodes a study report as indented JSON.
func WriteStudyJSON(w io.Writer, report *study.Report) error {
	return writeJSON(w, report)
}

// ExportStudy writes the study report as JSON, Markdown and an HTML chart
// page into dir. Files are named after the report kind, for example
// quality-<stamp>.json. Returns the paths written, in that order.
func ExportStudy(dir string, report *study.Report) ([]string, error) {
	base := fmt.Sprintf("%s-%s", report.Kind, report.GeneratedAt.Format(timestampFormat))
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{base + ".json", func(w io.Writer) error { return WriteStudyJSON(w, report) }},
		{base + ".md", func(w io.Writer) error { return WriteReport(w, report) }},
		{base + ".html", func(w io.Writer) error { return WriteCharts(w, report) }},
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path, err := writeFile(dir, o.name, o.write)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// writeFile creates dir/name and hands it to write. A partially written file
// is removed on error.
func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}
