// internal/testutil/store.go
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	internal_storage "github.com/fabriziosalmi/nexus-taskqueue/internal/storage"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
)

// TestStore holds a file-backed snapshot store rooted in a temp directory
type TestStore struct {
	Store *internal_storage.FileStore
	Path  string
}

// SetupTestStore initializes a snapshot store under t.TempDir
func SetupTestStore(t *testing.T) *TestStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "task_storage.json")
	store, err := internal_storage.NewFileStore(path)
	if err != nil {
		t.Fatalf("Failed to initialize file store: %v", err)
	}
	return &TestStore{Store: store, Path: path}
}

// Seed writes a snapshot containing the given records
func (ts *TestStore) Seed(t *testing.T, records []models.TaskRecord) {
	t.Helper()

	snap := models.Snapshot{SavedAt: time.Now(), Tasks: records}
	if err := ts.Store.Save(snap); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}
}

// ReadBack parses the snapshot file as written, without the restart
// reclassification a Load applies
func (ts *TestStore) ReadBack(t *testing.T) models.Snapshot {
	t.Helper()

	snap, err := internal_storage.ReadSnapshot(ts.Path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	return snap
}

// Teardown closes the store
func (ts *TestStore) Teardown(t *testing.T) {
	if err := ts.Store.Close(); err != nil {
		t.Errorf("Failed to close store: %v", err)
	}
}
