// Package jsonfile stores the gradebook snapshot as a single JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/storage"
)

// Ensure FileStore implements storage.Store
var _ storage.Store = (*FileStore)(nil)

// FileStore implements storage.Store with one JSON file.
type FileStore struct {
	path string
}

// New creates a FileStore at path, creating parent directories.
func New(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the whole file.
func (s *FileStore) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	snap, err := storage.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}
	return snap, nil
}

// Save writes the snapshot to a temp file in the same directory and renames
// it over the target, so a failed write never leaves a half-written file.
func (s *FileStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".students-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per call.
func (s *FileStore) Close() error {
	return nil
}
