// Package registry owns the in-memory gradebook: the student collection and
// the class and subject name registries.
//
// A Registry is not safe for concurrent use. Hosts that share one across
// goroutines must serialize access themselves (see internal/service).
package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmynk/gradebook/internal/calculator"
	"github.com/mmynk/gradebook/internal/models"
)

// Registry manages students, classes and subjects and enforces their invariants:
//   - student ids are unique
//   - every student's class is in the class registry
//   - every student's subject view equals the subject registry
//   - every grade lies in [0,100]
//
// Mutating methods either complete fully or fail without changing state.
// Students handed out by the registry are copies.
type Registry struct {
	students   []*models.Student // insertion order
	classes    nameSet
	subjects   nameSet
	thresholds models.Thresholds
}

// StudentUpdate holds the fields to change on a student. Nil fields are left alone.
type StudentUpdate struct {
	Name  *string
	Class *string
}

// New creates an empty registry scoring students with th.
func New(th models.Thresholds) *Registry {
	return &Registry{thresholds: th}
}

// Thresholds returns the scoring thresholds in use.
func (r *Registry) Thresholds() models.Thresholds {
	return r.thresholds
}

// --- Students ---

// AddStudent validates s and inserts a copy of it. The student's class is
// registered if new, and its subject view is set to the subject registry.
func (r *Registry) AddStudent(s *models.Student) error {
	const op = "AddStudent"

	if !models.IsValidStudentID(s.ID()) {
		return models.NewError(op, models.ErrValidation, "invalid student id %q: expected S followed by 3 digits", s.ID())
	}
	if r.find(s.ID()) != nil {
		return models.NewError(op, models.ErrDuplicateID, "id %s is already in use", s.ID())
	}
	if !models.IsValidName(s.Name()) {
		return models.NewError(op, models.ErrValidation, "student name cannot be empty")
	}
	if !models.IsValidName(s.Class()) {
		return models.NewError(op, models.ErrValidation, "class name cannot be empty")
	}
	for subject, score := range s.Grades() {
		if !models.IsValidGrade(score) {
			return models.NewError(op, models.ErrValidation, "grade for %s must be between 0 and 100, got %v", subject, score)
		}
	}

	student := s.Clone()
	student.SetSubjectView(r.subjects.names)
	r.classes.add(student.Class())
	r.students = append(r.students, student)
	return nil
}

// RemoveStudent deletes the student with id. Class and subject registries
// are left untouched.
func (r *Registry) RemoveStudent(id string) error {
	for i, s := range r.students {
		if s.ID() == id {
			r.students = append(r.students[:i], r.students[i+1:]...)
			return nil
		}
	}
	return models.NewError("RemoveStudent", models.ErrNotFound, "student with id %s not found", id)
}

func (r *Registry) find(id string) *models.Student {
	for _, s := range r.students {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// FindByID returns the student with exactly this id, or nil.
func (r *Registry) FindByID(id string) *models.Student {
	if s := r.find(id); s != nil {
		return s.Clone()
	}
	return nil
}

// Search returns the student whose id equals query when there is one.
// Otherwise it returns every student whose id or name contains query,
// ignoring case. A blank query matches nothing.
func (r *Registry) Search(query string) []*models.Student {
	if !models.IsValidName(query) {
		return []*models.Student{}
	}
	if s := r.find(query); s != nil {
		return []*models.Student{s.Clone()}
	}

	q := fold(query)
	matches := []*models.Student{}
	for _, s := range r.students {
		if strings.Contains(fold(s.Name()), q) || strings.Contains(fold(s.ID()), q) {
			matches = append(matches, s.Clone())
		}
	}
	return matches
}

// UpdateStudent changes a student's name and/or class. A new class name is
// registered if unseen.
func (r *Registry) UpdateStudent(id string, u StudentUpdate) error {
	const op = "UpdateStudent"

	s := r.find(id)
	if s == nil {
		return models.NewError(op, models.ErrNotFound, "student with id %s not found", id)
	}
	if u.Name != nil && !models.IsValidName(*u.Name) {
		return models.NewError(op, models.ErrValidation, "name cannot be empty")
	}
	if u.Class != nil && !models.IsValidName(*u.Class) {
		return models.NewError(op, models.ErrValidation, "class cannot be empty")
	}

	if u.Name != nil {
		s.SetName(*u.Name)
	}
	if u.Class != nil {
		s.SetClass(*u.Class)
		r.classes.add(*u.Class)
	}
	return nil
}

// AddGrade records score for subject on the student with id. A registered
// subject is stored under its registered spelling.
func (r *Registry) AddGrade(id, subject string, score float64) error {
	const op = "AddGrade"

	s := r.find(id)
	if s == nil {
		return models.NewError(op, models.ErrNotFound, "student with id %s not found", id)
	}
	if !models.IsValidName(subject) {
		return models.NewError(op, models.ErrValidation, "subject cannot be empty")
	}
	if canonical, ok := r.subjects.canonical(subject); ok {
		subject = canonical
	}
	return s.AddOrUpdateGrade(subject, score)
}

// Students returns all students in insertion order.
func (r *Registry) Students() []*models.Student {
	return cloneAll(r.students)
}

// StudentCount returns the number of students.
func (r *Registry) StudentCount() int {
	return len(r.students)
}

// ListStudentsByClass returns the students whose class equals className,
// ignoring case.
func (r *Registry) ListStudentsByClass(className string) []*models.Student {
	return cloneAll(r.inClass(className))
}

func (r *Registry) inClass(className string) []*models.Student {
	key := fold(className)
	members := []*models.Student{}
	for _, s := range r.students {
		if fold(s.Class()) == key {
			members = append(members, s)
		}
	}
	return members
}

// NextID returns S followed by one more than the highest numeric suffix among
// well-formed ids, zero-padded to 3 digits. Gaps left by deletions are not
// reused. Past S999 the result no longer passes validation.
func (r *Registry) NextID() string {
	highest := 0
	for _, s := range r.students {
		if !models.IsValidStudentID(s.ID()) {
			continue
		}
		n, err := strconv.Atoi(s.ID()[1:])
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("S%03d", highest+1)
}

// --- Classes ---

// ClassNames returns the class registry, sorted.
func (r *Registry) ClassNames() []string {
	return r.classes.list()
}

// SetClassNames replaces the class registry. Used when loading snapshots.
func (r *Registry) SetClassNames(names []string) {
	r.classes.set(names)
}

// AddClassName registers a class. It reports false when a class with the
// same name (ignoring case) exists or the name is blank.
func (r *Registry) AddClassName(name string) bool {
	if !models.IsValidName(name) {
		return false
	}
	return r.classes.add(name)
}

// RenameClassName renames a registered class and moves every student in it.
// It returns the number of students moved.
func (r *Registry) RenameClassName(oldName, newName string) (int, error) {
	const op = "RenameClass"

	if !models.IsValidName(newName) {
		return 0, models.NewError(op, models.ErrValidation, "new class name cannot be empty")
	}
	i := r.classes.index(oldName)
	if i < 0 {
		return 0, models.NewError(op, models.ErrNotFound, "class %q is not registered", oldName)
	}
	if j := r.classes.index(newName); j >= 0 && j != i {
		return 0, models.NewError(op, models.ErrConflict, "class %q already exists", newName)
	}

	members := r.inClass(oldName)
	r.classes.replace(i, newName)
	for _, s := range members {
		s.SetClass(newName)
	}
	return len(members), nil
}

// --- Subjects ---

// SubjectNames returns the subject registry, sorted.
func (r *Registry) SubjectNames() []string {
	return r.subjects.list()
}

// SetSubjectNames replaces the subject registry and re-synchronizes every
// student's subject view.
func (r *Registry) SetSubjectNames(names []string) {
	r.subjects.set(names)
	r.syncSubjects()
}

func (r *Registry) syncSubjects() {
	for _, s := range r.students {
		s.SetSubjectView(r.subjects.names)
	}
}

// AddSubjectName registers a subject. Every student's average and status
// immediately account for it. It reports false when a subject with the same
// name (ignoring case) exists or the name is blank.
func (r *Registry) AddSubjectName(name string) bool {
	if !models.IsValidName(name) {
		return false
	}
	if !r.subjects.add(name) {
		return false
	}
	r.syncSubjects()
	return true
}

// RenameSubjectName renames a registered subject and migrates each student's
// grade key. A student already graded under the new name keeps that grade.
// It returns the number of students whose grade was migrated.
func (r *Registry) RenameSubjectName(oldName, newName string) (int, error) {
	const op = "RenameSubject"

	if !models.IsValidName(newName) {
		return 0, models.NewError(op, models.ErrValidation, "new subject name cannot be empty")
	}
	i := r.subjects.index(oldName)
	if i < 0 {
		return 0, models.NewError(op, models.ErrNotFound, "subject %q is not registered", oldName)
	}
	if j := r.subjects.index(newName); j >= 0 && j != i {
		return 0, models.NewError(op, models.ErrConflict, "subject %q already exists", newName)
	}

	registered := r.subjects.names[i]
	r.subjects.replace(i, newName)
	r.syncSubjects()

	migrated := 0
	for _, s := range r.students {
		if s.RenameSubjectKey(registered, newName) {
			migrated++
		}
	}
	return migrated, nil
}

// --- Statistics ---

// SchoolStatistics computes school-wide aggregates.
func (r *Registry) SchoolStatistics() calculator.SchoolStatistics {
	return calculator.CalculateSchoolStatistics(r.students, r.classes.len(), r.thresholds)
}

// ClassStatistics computes aggregates for one class. It returns false when
// the class has no students.
func (r *Registry) ClassStatistics(className string) (*calculator.ClassStatistics, bool) {
	stats, ok := calculator.CalculateClassStatistics(className, r.inClass(className), r.thresholds)
	if !ok {
		return nil, false
	}
	stats.Students = cloneAll(stats.Students)
	return stats, true
}

// TopStudents returns up to n passing students with the highest averages.
func (r *Registry) TopStudents(n int) []*models.Student {
	return cloneAll(calculator.TopStudents(r.students, n, r.thresholds))
}

func cloneAll(students []*models.Student) []*models.Student {
	out := make([]*models.Student, len(students))
	for i, s := range students {
		out[i] = s.Clone()
	}
	return out
}
