// Package repository defines the snapshot persistence contract shared by
// every storage back-end, plus an in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Store persists whole league snapshots.
type Store interface {
	// Name identifies the back-end in logs and metrics.
	Name() string

	// Load returns the last saved snapshot. ok is false when nothing has
	// been saved yet, which callers treat as "seed defaults".
	Load(ctx context.Context) (snap model.Snapshot, ok bool, err error)

	// Save replaces the stored snapshot as one unit.
	Save(ctx context.Context, snap model.Snapshot) error

	// Clear removes stored data so the next Load reports absent.
	Clear(ctx context.Context) error

	Close() error
}
