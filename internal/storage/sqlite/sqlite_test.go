package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Load before any Save reports not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("Save then Load round-trips", func(t *testing.T) {
		original := &models.Snapshot{
			Students: []models.StudentRecord{
				{ID: "S002", Name: "Budi", Class: "10B", Grades: map[string]float64{"Math": 70, "Science": 82.5}},
				{ID: "S001", Name: "Ana", Class: "10A", Grades: map[string]float64{}},
			},
			ClassNames:   []string{"10A", "10B"},
			SubjectNames: []string{"Math", "Science"},
		}

		if err := store.Save(ctx, original); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if len(loaded.Students) != 2 {
			t.Fatalf("Students count mismatch: got %d, want 2", len(loaded.Students))
		}
		if loaded.Students[0].ID != "S002" || loaded.Students[1].ID != "S001" {
			t.Errorf("student order not preserved: %s, %s", loaded.Students[0].ID, loaded.Students[1].ID)
		}
		if loaded.Students[0].Grades["Science"] != 82.5 {
			t.Errorf("Science grade mismatch: got %v, want 82.5", loaded.Students[0].Grades["Science"])
		}
		if len(loaded.Students[1].Grades) != 0 {
			t.Errorf("expected no grades for S001, got %v", loaded.Students[1].Grades)
		}
		if len(loaded.ClassNames) != 2 || len(loaded.SubjectNames) != 2 {
			t.Errorf("name lists mismatch: %v %v", loaded.ClassNames, loaded.SubjectNames)
		}
	})

	t.Run("Save replaces previous snapshot", func(t *testing.T) {
		before, err := store.Revision(ctx)
		if err != nil {
			t.Fatalf("Revision failed: %v", err)
		}

		if err := store.Save(ctx, models.EmptySnapshot()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded.Students) != 0 || len(loaded.ClassNames) != 0 || len(loaded.SubjectNames) != 0 {
			t.Errorf("expected empty snapshot, got %+v", loaded)
		}

		after, _ := store.Revision(ctx)
		if after == "" || after == before {
			t.Errorf("expected a new revision, before=%q after=%q", before, after)
		}
	})

	t.Run("failed Save keeps previous snapshot", func(t *testing.T) {
		good := &models.Snapshot{
			Students:     []models.StudentRecord{{ID: "S001", Name: "Ana", Class: "10A"}},
			ClassNames:   []string{"10A"},
			SubjectNames: []string{},
		}
		if err := store.Save(ctx, good); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		bad := &models.Snapshot{
			Students: []models.StudentRecord{
				{ID: "S009", Name: "Dup", Class: "10A"},
				{ID: "S009", Name: "Dup", Class: "10A"},
			},
		}
		if err := store.Save(ctx, bad); err == nil {
			t.Fatal("expected error for duplicate primary key")
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded.Students) != 1 || loaded.Students[0].ID != "S001" {
			t.Errorf("previous snapshot lost: %+v", loaded.Students)
		}
	})
}
