package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/storage"
	"github.com/pkg/errors"
)

// FileStore persists the task table as a single JSON snapshot document on
// local disk. Writes go through a temp file and rename so a crash mid-write
// never leaves a torn snapshot behind.
type FileStore struct {
	path string
}

// NewFileStore binds a store to path, creating the parent directory if
// needed. The snapshot file itself is created on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("empty storage path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create storage directory %s", dir)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the snapshot and reclassifies records that were in flight when
// the writing process died. A missing file is a fresh start, not an error.
func (s *FileStore) Load() ([]models.TaskRecord, error) {
	snap, err := ReadSnapshot(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	storage.ReclassifyInterrupted(snap.Tasks, time.Now())
	return snap.Tasks, nil
}

// Save rewrites the whole snapshot document.
func (s *FileStore) Save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal snapshot")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write snapshot %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "failed to replace snapshot %s", s.path)
	}
	return nil
}

func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) Close() error {
	return nil
}

// ReadSnapshot reads a snapshot document exactly as written, without the
// status reclassification Load applies. Offline tools use it to inspect a
// snapshot that may belong to a live engine. A missing file surfaces as an
// os.IsNotExist error.
func ReadSnapshot(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, errors.Wrapf(err, "failed to parse snapshot %s", path)
	}
	return snap, nil
}
