package service

import (
	"container/heap"
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/pkg/errors"
)

// dispatchLocked pops pending tasks off the heap and starts their bodies
// while worker slots are free. Heap entries whose record is no longer
// pending are stale (cancelled, removed or superseded) and are discarded.
// Callers must hold s.mu; every caller that can change admission state calls
// this: Submit, finishTask and requeueRetry.
func (s *QueueService) dispatchLocked() {
	for !s.stopped && s.running < s.cfg.MaxWorkers && s.queue.Len() > 0 {
		item := heap.Pop(&s.queue).(queueItem)
		e, ok := s.tasks[item.id]
		if !ok || e.rec.Status != models.PendingTaskStatus || e.fn == nil {
			continue
		}

		now := time.Now()
		e.rec.Status = models.RunningTaskStatus
		e.rec.StartedAt = &now
		e.rec.Progress = 0
		runCtx, cancelRun := context.WithCancel(s.ctx)
		e.cancelRun = cancelRun
		s.running++

		s.metrics.QueueDepth(s.countPendingLocked(), s.running)
		s.persistLocked()
		s.logger.Infof("Dispatching task %s (%s), attempt %d", e.rec.ID, e.rec.Name, e.rec.RetryCount+1)

		tc := TaskContext{
			ID:       e.rec.ID,
			Attempt:  e.rec.RetryCount,
			Params:   e.rec.Metadata.Params,
			Progress: &Progress{svc: s, taskID: e.rec.ID},
		}
		s.bodies.Add(1)
		go s.runTask(runCtx, e.fn, e.timeout, tc)
	}
}

// runTask executes one attempt of a task body outside the engine lock.
func (s *QueueService) runTask(ctx context.Context, fn TaskFunc, timeout *time.Duration, tc TaskContext) {
	defer s.bodies.Done()

	attemptCtx := ctx
	cancel := func() {}
	if timeout != nil {
		attemptCtx, cancel = context.WithTimeout(ctx, *timeout)
	}
	started := time.Now()
	result, err := invokeTask(attemptCtx, fn, tc)
	cancel()
	s.finishTask(tc.ID, result, err, time.Since(started))
}

// invokeTask calls the body and converts a panic into an ordinary execution
// failure carrying the stack trace.
func invokeTask(ctx context.Context, fn TaskFunc, tc TaskContext) (result TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, tc)
}

// finishTask applies the outcome of a finished body. If the record is no
// longer running the task was cancelled mid-flight and the outcome is
// dropped; either way the worker slot is freed and dispatch continues.
func (s *QueueService) finishTask(id string, result TaskResult, taskErr error, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--

	e, ok := s.tasks[id]
	if !ok || e.rec.Status != models.RunningTaskStatus {
		s.logger.Debugf("Discarding outcome of task %s, no longer running", id)
		s.metrics.QueueDepth(s.countPendingLocked(), s.running)
		s.dispatchLocked()
		return
	}
	e.cancelRun = nil

	now := time.Now()
	switch {
	case taskErr == nil:
		e.rec.Status = models.CompletedTaskStatus
		e.rec.CompletedAt = &now
		e.rec.Progress = 100
		e.rec.Result = jsonSafe(result)
		e.rec.ErrorMsg = ""
		s.metrics.TaskFinished(string(models.CompletedTaskStatus), dur)
		s.logger.Infof("Task %s completed in %s", id, dur)

	case !s.stopped && e.rec.RetryCount < e.rec.MaxRetries:
		e.rec.RetryCount++
		e.rec.Status = models.RetryingTaskStatus
		e.rec.ErrorMsg = fmt.Sprintf("attempt %d failed: %v", e.rec.RetryCount, taskErr)
		s.metrics.TaskRetried()
		e.retryTimer = time.AfterFunc(s.cfg.RetryDelay, func() { s.requeueRetry(id) })
		s.logger.Infof("Task %s failed on attempt %d, retrying in %s: %v",
			id, e.rec.RetryCount, s.cfg.RetryDelay, taskErr)

	default:
		e.rec.Status = models.FailedTaskStatus
		e.rec.CompletedAt = &now
		e.rec.ErrorMsg = taskErr.Error()
		e.rec.Result = fmt.Sprintf("%+v", taskErr)
		s.metrics.TaskFinished(string(models.FailedTaskStatus), dur)
		s.logger.Errorf("Task %s failed after %d attempts: %v", id, e.rec.RetryCount+1, taskErr)
	}

	s.metrics.QueueDepth(s.countPendingLocked(), s.running)
	s.persistLocked()
	s.dispatchLocked()
}

// requeueRetry moves a retrying task back into the queue once its delay has
// elapsed. The task re-enters with its original priority and a fresh
// sequence number; progress and start time reset at the next dispatch. A
// no-op when the task was cancelled or removed during the delay.
func (s *QueueService) requeueRetry(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	e, ok := s.tasks[id]
	if !ok || e.rec.Status != models.RetryingTaskStatus {
		return
	}
	e.retryTimer = nil
	e.rec.Status = models.PendingTaskStatus
	s.seq++
	heap.Push(&s.queue, queueItem{id: id, priority: e.rec.Priority, seq: s.seq})
	s.metrics.QueueDepth(s.countPendingLocked(), s.running)
	s.persistLocked()
	s.dispatchLocked()
}
