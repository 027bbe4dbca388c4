// Package service wraps the registry with persistence, logging and metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmynk/gradebook/internal/calculator"
	"github.com/mmynk/gradebook/internal/export"
	"github.com/mmynk/gradebook/internal/metrics"
	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/registry"
	"github.com/mmynk/gradebook/internal/storage"
)

// GradebookService owns one registry and saves its snapshot after every
// successful mutation. If the save fails the mutation is rolled back, so
// memory and storage never disagree.
//
// All methods are safe for concurrent use.
type GradebookService struct {
	mu         sync.Mutex
	store      storage.Store
	reg        *registry.Registry
	thresholds models.Thresholds
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a GradebookService.
type Option func(*GradebookService)

// WithMetrics records operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GradebookService) { s.metrics = m }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *GradebookService) { s.logger = l }
}

// NewGradebookService creates a service with the given storage backend and
// an empty registry. Call Open to load saved state.
func NewGradebookService(store storage.Store, th models.Thresholds, opts ...Option) *GradebookService {
	s := &GradebookService{
		store:      store,
		reg:        registry.New(th),
		thresholds: th,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the saved snapshot. When nothing is saved yet it starts empty
// and writes an empty snapshot immediately. A corrupt snapshot is returned
// as an error and the registry is left empty.
func (s *GradebookService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		s.logger.Warn("No saved data found, creating empty snapshot")
		s.reg = registry.New(s.thresholds)
		return s.persist(ctx)
	}
	if err != nil {
		s.logger.Error("Load failed", "error", err)
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	reg, err := registry.FromSnapshot(snap, s.thresholds)
	if err != nil {
		s.logger.Error("Snapshot rejected", "error", err)
		return fmt.Errorf("%w: %v", storage.ErrCorruptSnapshot, err)
	}
	s.reg = reg
	s.updateGauges()

	s.logger.Info("Data loaded",
		"students", reg.StudentCount(),
		"classes", len(reg.ClassNames()),
		"subjects", len(reg.SubjectNames()),
	)
	return nil
}

// errUnchanged lets a mutation report that it left the registry as it was,
// so there is nothing to save.
var errUnchanged = errors.New("unchanged")

// mutate runs fn against the registry, then persists. On a failed save the
// registry is restored to its state before fn.
func (s *GradebookService) mutate(ctx context.Context, op string, fn func(r *registry.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.reg.Snapshot()
	if err := fn(s.reg); err != nil {
		if errors.Is(err, errUnchanged) {
			s.metrics.ObserveOperation(op, nil)
			return nil
		}
		s.metrics.ObserveOperation(op, err)
		s.logger.Warn(op+" failed", "error", err)
		return err
	}

	if err := s.persist(ctx); err != nil {
		restored, rerr := registry.FromSnapshot(before, s.thresholds)
		if rerr != nil {
			// before came from a valid registry, so this should not happen
			s.logger.Error("Rollback failed", "op", op, "error", rerr)
		} else {
			s.reg = restored
			s.updateGauges()
		}
		s.metrics.ObserveOperation(op, err)
		return err
	}

	s.metrics.ObserveOperation(op, nil)
	return nil
}

// persist saves the current snapshot. Callers hold s.mu.
func (s *GradebookService) persist(ctx context.Context) error {
	start := time.Now()
	err := s.store.Save(ctx, s.reg.Snapshot())
	s.metrics.ObserveSave(time.Since(start), err)
	if err != nil {
		s.logger.Error("Save failed", "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.updateGauges()
	s.logger.Debug("Snapshot saved", "students", s.reg.StudentCount(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *GradebookService) updateGauges() {
	s.metrics.SetRegistrySize(s.reg.StudentCount(), len(s.reg.ClassNames()), len(s.reg.SubjectNames()))
}

// read runs fn under the lock without persisting.
func (s *GradebookService) read(fn func(r *registry.Registry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.reg)
}

// --- Mutations ---

// AddStudent creates a student. An empty id is replaced by the next
// generated id. Returns the stored student.
func (s *GradebookService) AddStudent(ctx context.Context, id, name, className string) (*models.Student, error) {
	s.logger.Info("AddStudent request received", "student_id", id, "class", className)

	var added *models.Student
	err := s.mutate(ctx, "AddStudent", func(r *registry.Registry) error {
		if id == "" {
			id = r.NextID()
		}
		if err := r.AddStudent(models.NewStudent(id, name, className)); err != nil {
			return err
		}
		added = r.FindByID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student added", "student_id", added.ID(), "name", added.Name())
	return added, nil
}

// RemoveStudent deletes a student by id.
func (s *GradebookService) RemoveStudent(ctx context.Context, id string) error {
	s.logger.Info("RemoveStudent request received", "student_id", id)

	err := s.mutate(ctx, "RemoveStudent", func(r *registry.Registry) error {
		return r.RemoveStudent(id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Student removed", "student_id", id)
	return nil
}

// UpdateStudent changes a student's name and/or class and returns the result.
func (s *GradebookService) UpdateStudent(ctx context.Context, id string, u registry.StudentUpdate) (*models.Student, error) {
	s.logger.Info("UpdateStudent request received", "student_id", id)

	var updated *models.Student
	err := s.mutate(ctx, "UpdateStudent", func(r *registry.Registry) error {
		if err := r.UpdateStudent(id, u); err != nil {
			return err
		}
		updated = r.FindByID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student updated", "student_id", id)
	return updated, nil
}

// AddGrade records a grade and returns the student with the new grade.
func (s *GradebookService) AddGrade(ctx context.Context, id, subject string, score float64) (*models.Student, error) {
	s.logger.Info("AddGrade request received", "student_id", id, "subject", subject, "score", score)

	var graded *models.Student
	err := s.mutate(ctx, "AddGrade", func(r *registry.Registry) error {
		if err := r.AddGrade(id, subject, score); err != nil {
			return err
		}
		graded = r.FindByID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return graded, nil
}

// AddClassName registers a class. added is false when it already exists;
// nothing is saved in that case.
func (s *GradebookService) AddClassName(ctx context.Context, name string) (added bool, err error) {
	s.logger.Info("AddClassName request received", "class", name)

	err = s.mutate(ctx, "AddClassName", func(r *registry.Registry) error {
		if added = r.AddClassName(name); !added {
			return errUnchanged
		}
		return nil
	})
	return added, err
}

// RenameClassName renames a class and returns the number of students moved.
func (s *GradebookService) RenameClassName(ctx context.Context, oldName, newName string) (int, error) {
	s.logger.Info("RenameClassName request received", "old", oldName, "new", newName)

	var count int
	err := s.mutate(ctx, "RenameClassName", func(r *registry.Registry) error {
		var err error
		count, err = r.RenameClassName(oldName, newName)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Class renamed", "old", oldName, "new", newName, "count", count)
	return count, nil
}

// AddSubjectName registers a subject. added is false when it already exists.
func (s *GradebookService) AddSubjectName(ctx context.Context, name string) (added bool, err error) {
	s.logger.Info("AddSubjectName request received", "subject", name)

	err = s.mutate(ctx, "AddSubjectName", func(r *registry.Registry) error {
		if added = r.AddSubjectName(name); !added {
			return errUnchanged
		}
		return nil
	})
	return added, err
}

// RenameSubjectName renames a subject and returns the number of students
// whose grade was migrated.
func (s *GradebookService) RenameSubjectName(ctx context.Context, oldName, newName string) (int, error) {
	s.logger.Info("RenameSubjectName request received", "old", oldName, "new", newName)

	var count int
	err := s.mutate(ctx, "RenameSubjectName", func(r *registry.Registry) error {
		var err error
		count, err = r.RenameSubjectName(oldName, newName)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Subject renamed", "old", oldName, "new", newName, "count", count)
	return count, nil
}

// --- Queries ---

// Thresholds returns the scoring thresholds.
func (s *GradebookService) Thresholds() models.Thresholds {
	return s.thresholds
}

// FindByID returns a student or nil.
func (s *GradebookService) FindByID(id string) (found *models.Student) {
	s.read(func(r *registry.Registry) { found = r.FindByID(id) })
	return found
}

// Search finds students by exact id or partial id/name.
func (s *GradebookService) Search(query string) (matches []*models.Student) {
	s.read(func(r *registry.Registry) { matches = r.Search(query) })
	return matches
}

// ListStudents returns all students in insertion order.
func (s *GradebookService) ListStudents() (students []*models.Student) {
	s.read(func(r *registry.Registry) { students = r.Students() })
	return students
}

// ListStudentsByClass returns the students of one class.
func (s *GradebookService) ListStudentsByClass(className string) (students []*models.Student) {
	s.read(func(r *registry.Registry) { students = r.ListStudentsByClass(className) })
	return students
}

// ClassNames returns the class registry.
func (s *GradebookService) ClassNames() (names []string) {
	s.read(func(r *registry.Registry) { names = r.ClassNames() })
	return names
}

// SubjectNames returns the subject registry.
func (s *GradebookService) SubjectNames() (names []string) {
	s.read(func(r *registry.Registry) { names = r.SubjectNames() })
	return names
}

// NextID returns the id the next auto-numbered student would get.
func (s *GradebookService) NextID() (id string) {
	s.read(func(r *registry.Registry) { id = r.NextID() })
	return id
}

// TopStudents returns up to n passing students ranked by average.
func (s *GradebookService) TopStudents(n int) (top []*models.Student) {
	s.read(func(r *registry.Registry) { top = r.TopStudents(n) })
	return top
}

// SchoolStatistics computes school-wide aggregates.
func (s *GradebookService) SchoolStatistics() (stats calculator.SchoolStatistics) {
	s.read(func(r *registry.Registry) { stats = r.SchoolStatistics() })
	return stats
}

// ClassStatistics computes aggregates for one class; ok is false when the
// class has no students.
func (s *GradebookService) ClassStatistics(className string) (stats *calculator.ClassStatistics, ok bool) {
	s.read(func(r *registry.Registry) { stats, ok = r.ClassStatistics(className) })
	return stats, ok
}

// Report assembles everything an export shows.
func (s *GradebookService) Report() (rep export.Report) {
	s.read(func(r *registry.Registry) {
		rep = export.Report{
			Students:   r.Students(),
			Subjects:   r.SubjectNames(),
			Thresholds: r.Thresholds(),
			School:     r.SchoolStatistics(),
		}
		for _, className := range r.ClassNames() {
			if stats, ok := r.ClassStatistics(className); ok {
				rep.Classes = append(rep.Classes, stats)
			}
		}
	})
	return rep
}

// Export writes an XLSX report into dir and returns its path.
func (s *GradebookService) Export(ctx context.Context, dir string) (string, error) {
	rep := s.Report()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("gradebook-%s.xlsx", time.Now().Format("20060102-150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.WriteXLSX(f, rep); err != nil {
		f.Close()
		os.Remove(path)
		s.metrics.ObserveOperation("Export", err)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	s.metrics.ObserveOperation("Export", nil)
	s.logger.Info("Report exported", "path", path, "students", len(rep.Students))
	return path, nil
}
