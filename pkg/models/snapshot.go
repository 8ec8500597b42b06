package models

import "time"

// Snapshot is the persisted form of the whole task table. The engine rewrites
// it after every state change; on startup it is the sole source of recovery.
type Snapshot struct {
	SavedAt time.Time    `json:"saved_at"` // Time the snapshot was written
	Tasks   []TaskRecord `json:"tasks"`    // Every live record, any status
}
