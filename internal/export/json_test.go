// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/ck"
	"github.com/llbbl/repstudy/internal/store"
	"github.com/llbbl/repstudy/internal/study"
)

func testRun() (store.RunRecord, []store.OutcomeRecord) {
	started := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)
	run := store.RunRecord{
		ID:                7,
		StartedAt:         started,
		CompletedAt:       &completed,
		SearchQuery:       "stars:>1000",
		TargetCount:       2,
		PageSize:          1,
		ItemsProcessed:    2,
		PagesFetched:      2,
		Succeeded:         1,
		Failed:            1,
		TerminationReason: "target_reached",
		DurationMs:        60000,
	}
	outcomes := []store.OutcomeRecord{
		{Position: 1, FullName: "a/one", Status: "success", DurationMs: 10},
		{Position: 2, FullName: "b/two", Status: "failure", Reason: "no Java classes found", DurationMs: 20},
	}
	return run, outcomes
}

func testReport() *study.Report {
	var obs []study.Observation
	for i := range 4 {
		f := float64(i + 1)
		obs = append(obs, study.Observation{
			FullName:      "org/repo" + string(rune('a'+i)),
			Stars:         1000 * f,
			AgeYears:      f,
			ActivityScore: 10 * f,
			Metrics:       ck.Metrics{ClassCount: 5, TotalLOC: int(100 * f), CBO: f, WMC: 5 - f, RFC: f * f, LCOM: 2},
		})
	}
	report, err := study.Analyze(obs, time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return report
}

func testReviewReport() *study.Report {
	var obs []study.PullRequestObservation
	for i := range 5 {
		obs = append(obs, study.PullRequestObservation{
			FullName:          "org|fork/repo",
			Number:            100 + i,
			Merged:            i%2 == 0,
			ChangedFiles:      i + 1,
			LinesChanged:      20 * (i + 1),
			OpenHours:         1.5 * float64(i+1),
			DescriptionLength: 40 * (5 - i),
			Participants:      2,
			Comments:          i,
			Reviews:           i + 1,
		})
	}
	report, err := study.AnalyzeReviews(obs, time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return report
}

func TestWriteRunJSON(t *testing.T) {
	run, outcomes := testRun()
	exportedAt := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteRunJSON(&buf, run, outcomes, exportedAt))

	var data RunExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))

	assert.True(t, exportedAt.Equal(data.ExportedAt))
	assert.Equal(t, int64(7), data.Run.ID)
	assert.Equal(t, "target_reached", data.Run.TerminationReason)
	require.Len(t, data.Outcomes, 2)
	assert.Equal(t, "no Java classes found", data.Outcomes[1].Reason)
}

func TestWriteRunJSON_NilOutcomesEncodeAsEmptyArray(t *testing.T) {
	run, _ := testRun()

	var buf bytes.Buffer
	require.NoError(t, WriteRunJSON(&buf, run, nil, time.Now()))
	assert.Contains(t, buf.String(), `"outcomes": []`)
}

func TestExportRun(t *testing.T) {
	dir := t.TempDir()
	run, outcomes := testRun()

	path, err := ExportRun(dir, run, outcomes)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^run-7-\d{4}-\d{2}-\d{2}-\d{6}\.json$`), filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var data RunExport
	require.NoError(t, json.Unmarshal(content, &data))
	assert.Len(t, data.Outcomes, 2)
}

func TestExportRun_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	run, outcomes := testRun()

	path, err := ExportRun(dir, run, outcomes)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExportStudy(t *testing.T) {
	dir := t.TempDir()

	paths, err := ExportStudy(dir, testReport())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	assert.Equal(t, "quality-2026-04-02-083000.json", filepath.Base(paths[0]))
	assert.Equal(t, "quality-2026-04-02-083000.md", filepath.Base(paths[1]))
	assert.Equal(t, "quality-2026-04-02-083000.html", filepath.Base(paths[2]))

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	var decoded study.Report
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, study.Quality, decoded.Kind)
	assert.Equal(t, 4, decoded.N)
	assert.Len(t, decoded.Findings, 4)
}

func TestExportStudy_Reviews(t *testing.T) {
	dir := t.TempDir()

	paths, err := ExportStudy(dir, testReviewReport())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "reviews-2026-04-02-083000.md", filepath.Base(paths[1]))

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	var decoded study.Report
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, study.Reviews, decoded.Kind)
	assert.Len(t, decoded.PullRequests, 5)
	assert.Empty(t, decoded.Observations)
}

func TestWriteFile_RemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()

	_, err := writeFile(dir, "broken.json", func(w io.Writer) error {
		_, _ = w.Write([]byte("{"))
		return errors.New("encode failed")
	})
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "broken.json"))
}
