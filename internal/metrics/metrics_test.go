// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

func TestRecorder_Observer(t *testing.T) {
	r := NewRecorder()

	r.FetchCompleted(200)
	r.FetchCompleted(200)
	r.FetchCompleted(403)
	r.FetchCompleted(0)
	r.RateLimitRemaining(4999)

	assert.Equal(t, 2.0, promtest.ToFloat64(r.FetchRequests.WithLabelValues("200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.FetchRequests.WithLabelValues("403")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.FetchRequests.WithLabelValues("transport_error")))
	assert.Equal(t, 4999.0, promtest.ToFloat64(r.RateLimitRemain))
}

func TestRecorder_Hooks(t *testing.T) {
	r := NewRecorder()
	hooks := r.Hooks()

	hooks.PageFetched(1, pipeline.Page[github.Repository]{})
	hooks.PageFetched(2, pipeline.Page[github.Repository]{})
	hooks.ItemDone(1, pipeline.Outcome[github.Repository]{Status: pipeline.Success, Duration: time.Second})
	hooks.ItemDone(2, pipeline.Outcome[github.Repository]{Status: pipeline.Failure, Duration: 2 * time.Second})
	hooks.ItemDone(3, pipeline.Outcome[github.Repository]{Status: pipeline.Success})

	assert.Equal(t, 2.0, promtest.ToFloat64(r.PagesFetched))
	assert.Equal(t, 2.0, promtest.ToFloat64(r.ItemsProcessed.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.ItemsProcessed.WithLabelValues("failure")))
	assert.Equal(t, 1, promtest.CollectAndCount(r.ItemDuration))
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()

	r.ObserveRun(pipeline.TargetReached)
	r.ObserveRun(pipeline.FetchFailed)
	r.ObserveRun(pipeline.FetchFailed)

	assert.Equal(t, 1.0, promtest.ToFloat64(r.Runs.WithLabelValues("target_reached")))
	assert.Equal(t, 2.0, promtest.ToFloat64(r.Runs.WithLabelValues("fetch_failed")))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	a.PagesFetched.Inc()

	assert.Equal(t, 1.0, promtest.ToFloat64(a.PagesFetched))
	assert.Equal(t, 0.0, promtest.ToFloat64(b.PagesFetched))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.PagesFetched.Add(3)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "repstudy_pages_fetched_total 3"))
	assert.Contains(t, string(body), "# HELP repstudy_rate_limit_remaining")
}
