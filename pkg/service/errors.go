package service

import "github.com/pkg/errors"

var (
	// ErrTaskNotFound is returned when no task with the given id exists.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinished rejects operations on tasks that already reached a
	// terminal status.
	ErrTaskFinished = errors.New("task already finished")

	// ErrTaskRunning rejects removal of a task whose body is still running.
	// Running tasks must be cancelled first.
	ErrTaskRunning = errors.New("task is running")

	// ErrQueueStopped rejects submissions once shutdown has begun.
	ErrQueueStopped = errors.New("queue is stopped")

	// ErrInvalidArgument flags rejected inputs: empty names, unknown status
	// filters, negative limits, malformed sweep windows.
	ErrInvalidArgument = errors.New("invalid argument")
)
