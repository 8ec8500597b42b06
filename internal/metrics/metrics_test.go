package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/internal/metrics"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderExposesEngineEvents(t *testing.T) {
	var _ service.Metrics = (*metrics.Recorder)(nil)

	r := metrics.NewRecorder()
	r.TaskSubmitted("high")
	r.TaskSubmitted("high")
	r.TaskSubmitted("low")
	r.TaskFinished("completed", 120*time.Millisecond)
	r.TaskFinished("failed", 10*time.Millisecond)
	r.TaskRetried()
	r.QueueDepth(3, 2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `taskqueue_tasks_submitted_total{priority="high"} 2`)
	assert.Contains(t, body, `taskqueue_tasks_submitted_total{priority="low"} 1`)
	assert.Contains(t, body, `taskqueue_tasks_finished_total{status="completed"} 1`)
	assert.Contains(t, body, `taskqueue_tasks_finished_total{status="failed"} 1`)
	assert.Contains(t, body, "taskqueue_task_retries_total 1")
	assert.Contains(t, body, "taskqueue_tasks_pending 3")
	assert.Contains(t, body, "taskqueue_tasks_running 2")
	assert.Contains(t, body, "taskqueue_task_duration_seconds_count 2")
}

func TestRecordersAreIndependent(t *testing.T) {
	a := metrics.NewRecorder()
	b := metrics.NewRecorder()
	a.TaskRetried()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	b.Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "taskqueue_task_retries_total 0")
}
