package service

import (
	"time"

	"github.com/pkg/errors"
)

// Sweep evicts terminal tasks whose completion is older than olderThan and
// returns how many were removed. Pending, running and retrying tasks are
// never touched.
func (s *QueueService) Sweep(olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, errors.Wrap(ErrInvalidArgument, "sweep window must be positive")
	}
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.tasks {
		if e.rec.Status.Terminal() && e.rec.CompletedAt != nil && e.rec.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Infof("Retention sweep evicted %d tasks older than %s", removed, olderThan)
		s.persistLocked()
	}
	return removed, nil
}

// startSweeper runs Sweep on a ticker for the configured retention window
// until the engine context ends.
func (s *QueueService) startSweeper() {
	if s.cfg.SweepInterval <= 0 {
		return
	}
	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(s.cfg.Retention); err != nil {
					s.logger.Errorf("Retention sweep failed: %v", err)
				}
			}
		}
	}()
}
