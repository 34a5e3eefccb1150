// Package snapshot provides durable snapshot stores.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	coresnap "github.com/kilianp07/trackdispatch/core/snapshot"
)

// FileStore keeps the latest snapshot as a JSON document. Saves write a
// temporary file next to the target and rename it into place so a reader
// never observes a partial snapshot.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore prepares the directory holding path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file snapshot store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(ctx context.Context, snap coresnap.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (coresnap.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return coresnap.Snapshot{}, false, nil
	}
	if err != nil {
		return coresnap.Snapshot{}, false, err
	}
	var snap coresnap.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return coresnap.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return snap, true, nil
}

func (s *FileStore) Close() error { return nil }
