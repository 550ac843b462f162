// Package filestore persists league snapshots as a single JSON document,
// replaced atomically through a temporary file and rename.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Store writes snapshots to path.
type Store struct {
	mu     sync.Mutex
	path   string
	closed bool
}

var _ repository.Store = (*Store)(nil)

// New returns a store rooted at path. The parent directory is created on the
// first save.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("filestore: path required")
	}
	return &Store{path: filepath.Clean(path)}, nil
}

func (s *Store) Name() string { return "file" }

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (model.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Snapshot{}, false, repository.ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read %s: %w", s.path, err)
	}
	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("%w: %s: %w", repository.ErrCorrupt, s.path, err)
	}
	return snap, true, nil
}

func (s *Store) Save(_ context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return repository.ErrClosed
	}

	data, err := model.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if existing, err := os.ReadFile(s.path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return repository.ErrClosed
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
