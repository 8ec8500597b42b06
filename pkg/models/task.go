package models

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	PendingTaskStatus   TaskStatus = "pending"
	RunningTaskStatus   TaskStatus = "running"
	CompletedTaskStatus TaskStatus = "completed"
	FailedTaskStatus    TaskStatus = "failed"
	CancelledTaskStatus TaskStatus = "cancelled"
	RetryingTaskStatus  TaskStatus = "retrying"
)

// Terminal reports whether the status is final. Terminal records never
// transition again and always carry a completion timestamp.
func (s TaskStatus) Terminal() bool {
	switch s {
	case CompletedTaskStatus, FailedTaskStatus, CancelledTaskStatus:
		return true
	}
	return false
}

// ParseTaskStatus converts a lowercase status string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case PendingTaskStatus, RunningTaskStatus, CompletedTaskStatus,
		FailedTaskStatus, CancelledTaskStatus, RetryingTaskStatus:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// TaskPriority orders tasks in the queue. Higher values run first.
type TaskPriority int

const (
	LowTaskPriority    TaskPriority = 0
	NormalTaskPriority TaskPriority = 1
	HighTaskPriority   TaskPriority = 2
	UrgentTaskPriority TaskPriority = 3
)

func (p TaskPriority) Valid() bool {
	return p >= LowTaskPriority && p <= UrgentTaskPriority
}

func (p TaskPriority) String() string {
	switch p {
	case LowTaskPriority:
		return "low"
	case NormalTaskPriority:
		return "normal"
	case HighTaskPriority:
		return "high"
	case UrgentTaskPriority:
		return "urgent"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParseTaskPriority converts a priority name into a TaskPriority.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch s {
	case "low":
		return LowTaskPriority, nil
	case "normal":
		return NormalTaskPriority, nil
	case "high":
		return HighTaskPriority, nil
	case "urgent":
		return UrgentTaskPriority, nil
	}
	return 0, fmt.Errorf("unknown task priority %q", s)
}

// TaskRecord is the authoritative description of one submitted task.
type TaskRecord struct {
	ID          string       `json:"task_id"`                // Unique identifier (UUID assigned at submission)
	Name        string       `json:"name"`                   // Descriptive name (e.g., "nightly-report")
	Description string       `json:"description,omitempty"`  // Free-form details
	Status      TaskStatus   `json:"status"`                 // Lifecycle state, lowercase on the wire
	Priority    TaskPriority `json:"priority"`               // Serialized as its integer rank
	CreatedAt   time.Time    `json:"created_at"`             // Submission timestamp
	StartedAt   *time.Time   `json:"started_at,omitempty"`   // Nullable; stamped at each dispatch
	CompletedAt *time.Time   `json:"completed_at,omitempty"` // Nullable; stamped on any terminal status
	Progress    float64      `json:"progress"`               // 0..100, reported by the running body
	Result      interface{}  `json:"result,omitempty"`       // JSON-representable outcome of the body
	ErrorMsg    string       `json:"error,omitempty"`        // Last error message (optional)
	RetryCount  int          `json:"retry_count"`            // Retries consumed so far
	MaxRetries  int          `json:"max_retries"`            // Retry budget fixed at submission
	Tags        []string     `json:"tags,omitempty"`         // Free-form labels for search
	Metadata    TaskMetadata `json:"metadata"`               // Params and progress log
}
