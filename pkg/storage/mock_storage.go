package storage

import (
	"sync"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements storage.Store with in-memory storage
type mockStore struct {
	mu      sync.Mutex
	snap    models.Snapshot
	hasSnap bool
	closed  bool
}

func (m *mockStore) Load() ([]models.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("store is closed")
	}
	if !m.hasSnap {
		return nil, nil
	}
	records := make([]models.TaskRecord, len(m.snap.Tasks))
	copy(records, m.snap.Tasks)
	ReclassifyInterrupted(records, time.Now())
	return records, nil
}

func (m *mockStore) Save(snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("store is closed")
	}
	stored := models.Snapshot{SavedAt: snap.SavedAt, Tasks: make([]models.TaskRecord, len(snap.Tasks))}
	copy(stored.Tasks, snap.Tasks)
	m.snap = stored
	m.hasSnap = true
	return nil
}

func (m *mockStore) Location() string {
	return "in-memory"
}

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// NewMockStore returns an in-memory Store for tests and examples. It honors
// the snapshot contract, including reclassification of interrupted records
// on Load.
func NewMockStore() Store {
	return &mockStore{}
}

// NewMockStoreWithRecords returns an in-memory Store pre-seeded with a
// snapshot, as if a previous process had saved it.
func NewMockStoreWithRecords(records []models.TaskRecord) Store {
	m := &mockStore{}
	_ = m.Save(models.Snapshot{SavedAt: time.Now(), Tasks: records})
	return m
}
