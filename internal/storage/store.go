// Package storage provides abstractions for persisting gradebook snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/gradebook/internal/models"
)

var (
	// ErrSnapshotNotFound is returned by Load when nothing has been saved yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot is returned by Load when stored data cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Store defines whole-snapshot persistence. There are no partial updates:
// every Save replaces the stored state atomically.
// This abstraction allows swapping storage backends (JSON file, SQLite, Redis)
// without changing the service layer.
type Store interface {
	// Load reads the last saved snapshot.
	// Returns ErrSnapshotNotFound when nothing has been saved yet.
	Load(ctx context.Context) (*models.Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *models.Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}
