package repository

import "github.com/okian/fantasyfamily/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithInitialSnapshot preloads the store as if the snapshot had been saved.
func WithInitialSnapshot(snap model.Snapshot) Option {
	return func(s *MemoryStore) {
		s.snap = snap.Clone()
		s.has = true
	}
}
