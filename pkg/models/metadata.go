package models

import "time"

// Params carries the structured input parameters of a task. Values are kept
// as typed JSON-representable data; nothing is ever flattened to strings.
type Params map[string]interface{}

// ProgressEntry records one progress report from a running task body.
type ProgressEntry struct {
	Progress  float64   `json:"progress"`          // 0..100 at the time of the report
	Message   string    `json:"message,omitempty"` // Details (e.g., "processed 40/100 rows")
	Timestamp time.Time `json:"timestamp"`         // Time of the report
}

// TaskMetadata holds auxiliary data kept alongside a task record: the
// submission parameters and the accumulated progress log.
type TaskMetadata struct {
	Params      Params          `json:"params,omitempty"`
	ProgressLog []ProgressEntry `json:"progress_log,omitempty"`
}
