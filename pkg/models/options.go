package models

import "time"

// TaskConfig carries the per-task settings fixed at submission time.
type TaskConfig struct {
	Priority   TaskPriority
	MaxRetries int
	Tags       []string
	Params     Params
	Timeout    *time.Duration // nil means no per-attempt deadline
}

type TaskOption func(*TaskConfig)

// WithPriority sets the scheduling priority. Out-of-range values are
// rejected at submission.
func WithPriority(p TaskPriority) TaskOption {
	return func(cfg *TaskConfig) {
		cfg.Priority = p
	}
}

// WithMaxRetries sets how many times a failing task is re-run before it is
// marked failed for good.
func WithMaxRetries(n int) TaskOption {
	return func(cfg *TaskConfig) {
		cfg.MaxRetries = n
	}
}

// WithTags attaches free-form labels used by search.
func WithTags(tags ...string) TaskOption {
	return func(cfg *TaskConfig) {
		cfg.Tags = append(cfg.Tags, tags...)
	}
}

// WithParams attaches the structured input parameters handed to the task
// body on every attempt.
func WithParams(params Params) TaskOption {
	return func(cfg *TaskConfig) {
		cfg.Params = params
	}
}

// WithTimeout bounds each attempt; an expired deadline counts as an ordinary
// execution failure and is retry-eligible.
func WithTimeout(timeout time.Duration) TaskOption {
	return func(cfg *TaskConfig) {
		cfg.Timeout = &timeout
	}
}
