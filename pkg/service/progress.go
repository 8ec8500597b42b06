package service

import (
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
)

// Progress lets a running task body report how far along it is. Reports
// update the live record and append to its progress log; they are never
// persisted on their own, so a hot loop can report freely.
type Progress struct {
	svc    *QueueService
	taskID string
}

// Update records the current progress (clamped to 0..100) with an optional
// message. Reports arriving after the task left the running state, for
// example after a cancellation, are dropped.
func (p *Progress) Update(progress float64, message string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s := p.svc
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[p.taskID]
	if !ok || e.rec.Status != models.RunningTaskStatus {
		return
	}
	e.rec.Progress = progress
	e.rec.Metadata.ProgressLog = append(e.rec.Metadata.ProgressLog, models.ProgressEntry{
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now(),
	})
}
