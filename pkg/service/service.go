package service

import (
	"container/heap"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for QueueService
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Metrics receives engine events. Implementations must be safe for
// concurrent use; the engine may call them while holding its internal lock.
type Metrics interface {
	TaskSubmitted(priority string)
	TaskFinished(status string, duration time.Duration)
	TaskRetried()
	QueueDepth(pending, running int)
}

type nopMetrics struct{}

func (nopMetrics) TaskSubmitted(string)               {}
func (nopMetrics) TaskFinished(string, time.Duration) {}
func (nopMetrics) TaskRetried()                       {}
func (nopMetrics) QueueDepth(int, int)                {}

// TaskResult represents the output of a task body
type TaskResult interface{}

// TaskContext is handed to a task body at each attempt.
type TaskContext struct {
	ID       string        // task id
	Attempt  int           // 0 on the first run, counts consumed retries after that
	Params   models.Params // submission parameters; treat as read-only
	Progress *Progress     // progress reporting handle
}

// TaskFunc is the body of a submitted task. It runs outside the engine lock,
// is expected to poll ctx for cancellation, and may report progress through
// tc.Progress at any rate.
type TaskFunc func(ctx context.Context, tc TaskContext) (TaskResult, error)

type taskEntry struct {
	rec        *models.TaskRecord
	fn         TaskFunc
	timeout    *time.Duration
	cancelRun  context.CancelFunc // set while the body is running
	retryTimer *time.Timer        // set while a retry delay is pending
}

// QueueService is the management surface of the task queue: submission,
// observation, cancellation, removal and retention. One mutex guards the
// task table, the scheduling heap and every status transition; task bodies
// run outside it. Every state change is synchronously persisted to the
// store, best-effort.
type QueueService struct {
	cfg     Config
	store   storage.Store
	logger  Logger
	metrics Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tasks   map[string]*taskEntry
	queue   taskHeap
	seq     uint64
	running int
	stopped bool

	bodies sync.WaitGroup // running task bodies
	loops  sync.WaitGroup // background loops (retention sweeper)
}

// NewQueueService restores the persisted task table from store and starts
// the background retention sweeper. Records that were running or retrying
// when the previous process died come back failed; pending records come back
// visible and cancellable, but are not re-queued: their bodies did not
// survive the restart. A snapshot that cannot be read is logged and skipped,
// and the engine starts with an empty table.
func NewQueueService(ctx context.Context, store storage.Store, cfg Config, logger Logger) *QueueService {
	records, err := store.Load()
	if err != nil {
		logger.Warnf("Could not load task snapshot from %s, starting empty: %v", store.Location(), err)
		records = nil
	}
	engineCtx, cancel := context.WithCancel(ctx)
	s := &QueueService{
		cfg:     cfg.withDefaults(),
		store:   store,
		logger:  logger,
		metrics: nopMetrics{},
		ctx:     engineCtx,
		cancel:  cancel,
		tasks:   make(map[string]*taskEntry, len(records)),
	}
	for i := range records {
		rec := records[i]
		s.tasks[rec.ID] = &taskEntry{rec: &rec}
	}
	if len(records) > 0 {
		s.mu.Lock()
		s.persistLocked()
		s.mu.Unlock()
		s.logger.Infof("Restored %d tasks from %s", len(records), store.Location())
	}
	s.startSweeper()
	return s
}

// SetMetrics replaces the engine's metrics sink (a no-op sink by default)
// and primes the queue gauges from current state.
func (s *QueueService) SetMetrics(m Metrics) {
	if m == nil {
		m = nopMetrics{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
	m.QueueDepth(s.countPendingLocked(), s.running)
}

// Submit registers fn for execution and returns the created record. The
// task starts immediately when a worker slot is free, otherwise it waits in
// the priority queue.
func (s *QueueService) Submit(name, description string, fn TaskFunc, opts ...models.TaskOption) (models.TaskRecord, error) {
	if name == "" {
		return models.TaskRecord{}, errors.Wrap(ErrInvalidArgument, "task name cannot be empty")
	}
	if len(name) > 200 {
		return models.TaskRecord{}, errors.Wrap(ErrInvalidArgument, "task name too long (max 200 characters)")
	}
	if fn == nil {
		return models.TaskRecord{}, errors.Wrap(ErrInvalidArgument, "task function cannot be nil")
	}

	cfg := models.TaskConfig{Priority: models.NormalTaskPriority}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.Priority.Valid() {
		return models.TaskRecord{}, errors.Wrapf(ErrInvalidArgument, "priority %d out of range", cfg.Priority)
	}
	if cfg.MaxRetries < 0 {
		return models.TaskRecord{}, errors.Wrap(ErrInvalidArgument, "max retries cannot be negative")
	}
	if cfg.Timeout != nil && *cfg.Timeout <= 0 {
		return models.TaskRecord{}, errors.Wrap(ErrInvalidArgument, "timeout must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return models.TaskRecord{}, ErrQueueStopped
	}

	rec := &models.TaskRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      models.PendingTaskStatus,
		Priority:    cfg.Priority,
		CreatedAt:   time.Now(),
		MaxRetries:  cfg.MaxRetries,
		Tags:        cfg.Tags,
		Metadata:    models.TaskMetadata{Params: sanitizeParams(cfg.Params)},
	}
	s.tasks[rec.ID] = &taskEntry{rec: rec, fn: fn, timeout: cfg.Timeout}
	s.seq++
	heap.Push(&s.queue, queueItem{id: rec.ID, priority: rec.Priority, seq: s.seq})

	s.metrics.TaskSubmitted(rec.Priority.String())
	s.metrics.QueueDepth(s.countPendingLocked(), s.running)
	s.logger.Infof("Submitted task %s (%s) with priority %s", rec.ID, rec.Name, rec.Priority)
	s.persistLocked()
	s.dispatchLocked()
	return *rec, nil
}

// GetStatus returns a copy of the task's current record.
func (s *QueueService) GetStatus(id string) (models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return models.TaskRecord{}, errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	return *e.rec, nil
}

// TaskListing is one page of records beside statistics over the whole
// table, both taken in the same locked pass.
type TaskListing struct {
	Tasks        []models.TaskRecord `json:"tasks"`
	Total        int                 `json:"total"`
	StatusCounts map[string]int      `json:"status_counts"`
}

// List returns up to limit records, newest first, plus per-status counts
// over the whole table regardless of the filter. An empty status matches
// everything; limit 0 falls back to DefaultListLimit.
func (s *QueueService) List(status string, limit int) (TaskListing, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return TaskListing{}, err
	}
	if limit < 0 {
		return TaskListing{}, errors.Wrap(ErrInvalidArgument, "limit cannot be negative")
	}
	if limit == 0 {
		limit = DefaultListLimit
	}

	s.mu.Lock()
	listing := TaskListing{
		Tasks:        make([]models.TaskRecord, 0, len(s.tasks)),
		Total:        len(s.tasks),
		StatusCounts: make(map[string]int),
	}
	for _, e := range s.tasks {
		listing.StatusCounts[string(e.rec.Status)]++
		if filter != "" && e.rec.Status != filter {
			continue
		}
		listing.Tasks = append(listing.Tasks, *e.rec)
	}
	s.mu.Unlock()

	sortNewestFirst(listing.Tasks)
	if len(listing.Tasks) > limit {
		listing.Tasks = listing.Tasks[:limit]
	}
	return listing, nil
}

// Search returns records matching a case-insensitive substring query on name
// or description, restricted to tasks sharing at least one of the given
// tags and, when status is set, to that status. At least one criterion is
// required.
func (s *QueueService) Search(query string, tags []string, status string) ([]models.TaskRecord, error) {
	if query == "" && len(tags) == 0 && status == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "search requires a query, a tag or a status")
	}
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	s.mu.Lock()
	var records []models.TaskRecord
	for _, e := range s.tasks {
		if filter != "" && e.rec.Status != filter {
			continue
		}
		if !matchesQuery(e.rec, q) || !matchesTags(e.rec, tags) {
			continue
		}
		records = append(records, *e.rec)
	}
	s.mu.Unlock()

	sortNewestFirst(records)
	return records, nil
}

// Cancel stops a task that has not finished yet. Pending and retrying tasks
// never run again; a running task gets its context cancelled and its
// eventual outcome is discarded. Returns the updated record.
func (s *QueueService) Cancel(id string) (models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.cancelLocked(id)
	if err != nil {
		return models.TaskRecord{}, err
	}
	s.persistLocked()
	return rec, nil
}

// CancelResult reports the outcome of one id in a batch cancellation.
type CancelResult struct {
	TaskID    string `json:"task_id"`
	Cancelled bool   `json:"cancelled"`
	Error     string `json:"error,omitempty"`
}

// CancelMany cancels a batch of tasks in one pass, reporting per-id
// outcomes. Ids that cannot be cancelled do not fail the batch.
func (s *QueueService) CancelMany(ids []string) []CancelResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]CancelResult, 0, len(ids))
	changed := false
	for _, id := range ids {
		if _, err := s.cancelLocked(id); err != nil {
			results = append(results, CancelResult{TaskID: id, Error: err.Error()})
			continue
		}
		changed = true
		results = append(results, CancelResult{TaskID: id, Cancelled: true})
	}
	if changed {
		s.persistLocked()
	}
	return results
}

func (s *QueueService) cancelLocked(id string) (models.TaskRecord, error) {
	e, ok := s.tasks[id]
	if !ok {
		return models.TaskRecord{}, errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	if e.rec.Status.Terminal() {
		return models.TaskRecord{}, errors.Wrapf(ErrTaskFinished, "task %s is %s", id, e.rec.Status)
	}

	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	wasRunning := e.rec.Status == models.RunningTaskStatus
	now := time.Now()
	e.rec.Status = models.CancelledTaskStatus
	e.rec.CompletedAt = &now
	e.rec.ErrorMsg = "cancelled by user"

	var dur time.Duration
	if e.rec.StartedAt != nil {
		dur = now.Sub(*e.rec.StartedAt)
	}
	s.metrics.TaskFinished(string(models.CancelledTaskStatus), dur)
	s.metrics.QueueDepth(s.countPendingLocked(), s.running)
	if wasRunning && e.cancelRun != nil {
		// the body keeps its worker slot until it returns; its outcome is discarded
		e.cancelRun()
		e.cancelRun = nil
		s.logger.Infof("Cancelled running task %s, signalled its body to stop", id)
	} else {
		s.logger.Infof("Cancelled task %s", id)
	}
	return *e.rec, nil
}

// Remove deletes a task record. Running tasks must be cancelled first;
// everything else, terminal or not, can be removed.
func (s *QueueService) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return errors.Wrapf(ErrTaskNotFound, "task %s", id)
	}
	if e.rec.Status == models.RunningTaskStatus {
		return errors.Wrapf(ErrTaskRunning, "cancel task %s before removing it", id)
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	delete(s.tasks, id)
	s.logger.Infof("Removed task %s", id)
	s.persistLocked()
	return nil
}

// QueueInfo is a point-in-time summary of the queue.
type QueueInfo struct {
	MaxWorkers   int            `json:"max_workers"`
	ActiveCount  int            `json:"active_count"`  // occupied worker slots
	PendingCount int            `json:"pending_count"` // tasks waiting for a slot
	TotalCount   int            `json:"total_count"`
	StatusCounts map[string]int `json:"status_counts"`
	StoragePath  string         `json:"storage_path"`
	OldestTask   *time.Time     `json:"oldest_task,omitempty"`
	NewestTask   *time.Time     `json:"newest_task,omitempty"`
}

// QueueInfo reports capacity, occupancy and per-status counts.
func (s *QueueService) QueueInfo() QueueInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := QueueInfo{
		MaxWorkers:   s.cfg.MaxWorkers,
		ActiveCount:  s.running,
		TotalCount:   len(s.tasks),
		StatusCounts: make(map[string]int),
		StoragePath:  s.store.Location(),
	}
	for _, e := range s.tasks {
		info.StatusCounts[string(e.rec.Status)]++
		if e.rec.Status == models.PendingTaskStatus {
			info.PendingCount++
		}
		created := e.rec.CreatedAt
		if info.OldestTask == nil || created.Before(*info.OldestTask) {
			t := created
			info.OldestTask = &t
		}
		if info.NewestTask == nil || created.After(*info.NewestTask) {
			t := created
			info.NewestTask = &t
		}
	}
	return info
}

// Stop begins shutdown: new submissions are rejected, queued tasks stay
// queued, pending retries are abandoned, and running bodies get until ctx
// expires to finish before their contexts are cancelled. The final state is
// persisted either way. Stop does not close the store.
func (s *QueueService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for _, e := range s.tasks {
		if e.retryTimer != nil {
			e.retryTimer.Stop()
			e.retryTimer = nil
		}
	}
	running := s.running
	s.mu.Unlock()
	s.logger.Infof("Queue stopping, waiting for %d running tasks", running)

	done := make(chan struct{})
	go func() {
		s.bodies.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		s.logger.Warnf("Shutdown deadline hit with tasks still running, cancelling them")
	}
	s.cancel()
	s.loops.Wait()

	s.mu.Lock()
	s.persistLocked()
	s.mu.Unlock()
	return err
}

func (s *QueueService) countPendingLocked() int {
	n := 0
	for _, e := range s.tasks {
		if e.rec.Status == models.PendingTaskStatus {
			n++
		}
	}
	return n
}

func sortNewestFirst(records []models.TaskRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// parseStatusFilter maps an optional status string onto a TaskStatus; empty
// means no filtering.
func parseStatusFilter(status string) (models.TaskStatus, error) {
	if status == "" {
		return "", nil
	}
	parsed, err := models.ParseTaskStatus(status)
	if err != nil {
		return "", errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return parsed, nil
}

// matchesQuery expects q already lowercased; an empty q matches everything.
func matchesQuery(rec *models.TaskRecord, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Name), q) ||
		strings.Contains(strings.ToLower(rec.Description), q)
}

// matchesTags is satisfied by any shared tag; no tags matches everything.
func matchesTags(rec *models.TaskRecord, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range rec.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
