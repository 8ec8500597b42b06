package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
)

// persistLocked writes the whole task table to the store. Persistence is
// best-effort: a failing store is logged and the engine keeps going on its
// in-memory state. Callers must hold s.mu.
func (s *QueueService) persistLocked() {
	snap := models.Snapshot{
		SavedAt: time.Now(),
		Tasks:   make([]models.TaskRecord, 0, len(s.tasks)),
	}
	for _, e := range s.tasks {
		snap.Tasks = append(snap.Tasks, *e.rec)
	}
	if err := s.store.Save(snap); err != nil {
		s.logger.Errorf("Failed to persist task snapshot to %s: %v", s.store.Location(), err)
	}
}

// jsonSafe returns v unchanged when it can be marshalled to JSON, and its
// string rendering otherwise. Task results and parameters go through this
// before they are stored on a record.
func jsonSafe(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}

// sanitizeParams applies jsonSafe to every parameter value.
func sanitizeParams(params models.Params) models.Params {
	if params == nil {
		return nil
	}
	out := make(models.Params, len(params))
	for k, v := range params {
		out[k] = jsonSafe(v)
	}
	return out
}
