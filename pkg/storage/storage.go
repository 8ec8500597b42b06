package storage

import (
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
)

// InterruptedTaskError is recorded on tasks that were in flight when the
// process died and got reclassified to failed during recovery.
const InterruptedTaskError = "interrupted by restart"

// Store defines the persistence operations for the task queue. A store holds
// one snapshot of the whole task table; Save rewrites it, Load reads it back.
type Store interface {
	// Load reads the persisted snapshot and returns its records with
	// interrupted statuses already reclassified. A store with no snapshot
	// yet returns an empty slice and no error.
	Load() ([]models.TaskRecord, error)

	// Save persists the given snapshot, replacing whatever was stored
	// before. Callers treat failures as non-fatal.
	Save(snap models.Snapshot) error

	// Location describes where the snapshot lives, for diagnostics.
	Location() string

	Close() error
}

// ReclassifyInterrupted marks every running or retrying record as failed.
// Records in those states belonged to a process that is gone; their bodies
// cannot be resumed. Returns the number of records touched.
func ReclassifyInterrupted(records []models.TaskRecord, now time.Time) int {
	n := 0
	for i := range records {
		switch records[i].Status {
		case models.RunningTaskStatus, models.RetryingTaskStatus:
			records[i].Status = models.FailedTaskStatus
			records[i].ErrorMsg = InterruptedTaskError
			completedAt := now
			records[i].CompletedAt = &completedAt
			n++
		}
	}
	return n
}
