package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus(t *testing.T) {

	t.Run("ParseAcceptsKnownStatuses", func(t *testing.T) {
		for _, s := range []string{"pending", "running", "completed", "failed", "cancelled", "retrying"} {
			parsed, err := models.ParseTaskStatus(s)
			require.NoError(t, err)
			assert.Equal(t, s, string(parsed))
		}
	})

	t.Run("ParseRejectsUnknownAndUppercase", func(t *testing.T) {
		for _, s := range []string{"", "paused", "PENDING", "Completed"} {
			_, err := models.ParseTaskStatus(s)
			assert.Error(t, err, "status %q", s)
		}
	})

	t.Run("TerminalStatuses", func(t *testing.T) {
		assert.True(t, models.CompletedTaskStatus.Terminal())
		assert.True(t, models.FailedTaskStatus.Terminal())
		assert.True(t, models.CancelledTaskStatus.Terminal())
		assert.False(t, models.PendingTaskStatus.Terminal())
		assert.False(t, models.RunningTaskStatus.Terminal())
		assert.False(t, models.RetryingTaskStatus.Terminal())
	})
}

func TestTaskPriority(t *testing.T) {

	t.Run("OrderAndNames", func(t *testing.T) {
		assert.True(t, models.LowTaskPriority < models.NormalTaskPriority)
		assert.True(t, models.NormalTaskPriority < models.HighTaskPriority)
		assert.True(t, models.HighTaskPriority < models.UrgentTaskPriority)
		assert.Equal(t, "low", models.LowTaskPriority.String())
		assert.Equal(t, "urgent", models.UrgentTaskPriority.String())
	})

	t.Run("ParseRoundTrip", func(t *testing.T) {
		for _, name := range []string{"low", "normal", "high", "urgent"} {
			p, err := models.ParseTaskPriority(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.String())
			assert.True(t, p.Valid())
		}
	})

	t.Run("ParseRejectsUnknown", func(t *testing.T) {
		_, err := models.ParseTaskPriority("critical")
		assert.Error(t, err)
	})

	t.Run("ValidRange", func(t *testing.T) {
		assert.False(t, models.TaskPriority(-1).Valid())
		assert.False(t, models.TaskPriority(4).Valid())
	})
}

func TestTaskRecordWireFormat(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	rec := models.TaskRecord{
		ID:        "task-1",
		Name:      "nightly-report",
		Status:    models.RunningTaskStatus,
		Priority:  models.HighTaskPriority,
		CreatedAt: created,
		Progress:  40,
		Metadata: models.TaskMetadata{
			Params: models.Params{"rows": 100},
		},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "task-1", wire["task_id"], "the id serializes as task_id")
	assert.NotContains(t, wire, "id")
	assert.Equal(t, "running", wire["status"], "status serializes lowercase")
	assert.Equal(t, float64(2), wire["priority"], "priority serializes as its rank")
	assert.Equal(t, float64(40), wire["progress"])
	assert.NotContains(t, wire, "started_at", "unset timestamps are omitted")
	assert.NotContains(t, wire, "completed_at")
	assert.NotContains(t, wire, "result")
	assert.NotContains(t, wire, "error")

	var back models.TaskRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, models.RunningTaskStatus, back.Status)
	assert.Equal(t, models.HighTaskPriority, back.Priority)
	assert.Equal(t, float64(100), back.Metadata.Params["rows"], "numbers come back as JSON numbers")
}

func TestTaskOptions(t *testing.T) {
	cfg := models.TaskConfig{Priority: models.NormalTaskPriority}
	for _, opt := range []models.TaskOption{
		models.WithPriority(models.UrgentTaskPriority),
		models.WithMaxRetries(3),
		models.WithTags("alpha"),
		models.WithTags("beta", "gamma"),
		models.WithParams(models.Params{"key": "value"}),
		models.WithTimeout(30 * time.Second),
	} {
		opt(&cfg)
	}

	assert.Equal(t, models.UrgentTaskPriority, cfg.Priority)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Tags, "tags accumulate across options")
	assert.Equal(t, "value", cfg.Params["key"])
	require.NotNil(t, cfg.Timeout)
	assert.Equal(t, 30*time.Second, *cfg.Timeout)
}
