// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	metaRevision = "revision"
	metaSavedAt  = "saved_at"
)

// SQLiteStore implements storage.Store using SQLite.
// Each Save replaces every table inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Revision returns the id of the last saved snapshot, or "" if none.
func (s *SQLiteStore) Revision(ctx context.Context) (string, error) {
	var rev string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaRevision).Scan(&rev)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get revision: %w", err)
	}
	return rev, nil
}

// Save replaces the stored snapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"grades", "students", "class_names", "subject_names"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, rec := range snap.Students {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO students (id, name, class, position) VALUES (?, ?, ?, ?)",
			rec.ID, rec.Name, rec.Class, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert student %s: %w", rec.ID, err)
		}

		for subject, score := range rec.Grades {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO grades (student_id, subject, score) VALUES (?, ?, ?)",
				rec.ID, subject, score,
			)
			if err != nil {
				return fmt.Errorf("failed to insert grade: %w", err)
			}
		}
	}

	for _, name := range snap.ClassNames {
		if _, err := tx.ExecContext(ctx, "INSERT INTO class_names (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to insert class name: %w", err)
		}
	}
	for _, name := range snap.SubjectNames {
		if _, err := tx.ExecContext(ctx, "INSERT INTO subject_names (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to insert subject name: %w", err)
		}
	}

	meta := map[string]string{
		metaRevision: uuid.New().String(),
		metaSavedAt:  strconv.FormatInt(time.Now().Unix(), 10),
	}
	for key, value := range meta {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to update meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load reads the stored snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	rev, err := s.Revision(ctx)
	if err != nil {
		return nil, err
	}
	if rev == "" {
		return nil, storage.ErrSnapshotNotFound
	}

	snap := models.EmptySnapshot()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, class FROM students ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		rec := models.StudentRecord{Grades: map[string]float64{}}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Class); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		index[rec.ID] = len(snap.Students)
		snap.Students = append(snap.Students, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	gradeRows, err := s.db.QueryContext(ctx, "SELECT student_id, subject, score FROM grades")
	if err != nil {
		return nil, fmt.Errorf("failed to get grades: %w", err)
	}
	defer gradeRows.Close()

	for gradeRows.Next() {
		var (
			studentID, subject string
			score              float64
		)
		if err := gradeRows.Scan(&studentID, &subject, &score); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		i, ok := index[studentID]
		if !ok {
			return nil, fmt.Errorf("%w: grade for unknown student %s", storage.ErrCorruptSnapshot, studentID)
		}
		snap.Students[i].Grades[subject] = score
	}
	if err := gradeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grades: %w", err)
	}

	if snap.ClassNames, err = s.names(ctx, "class_names"); err != nil {
		return nil, err
	}
	if snap.SubjectNames, err = s.names(ctx, "subject_names"); err != nil {
		return nil, err
	}

	return snap, nil
}

// names reads a single-column name table, sorted.
func (s *SQLiteStore) names(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", table, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return names, nil
}
