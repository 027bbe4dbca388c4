package models

import "sort"

// Status is a student's overall pass/fail outcome.
type Status string

const (
	StatusPassed Status = "Passed"
	StatusFailed Status = "Failed"
)

// Default scoring thresholds.
const (
	DefaultPassingGrade = 75.0
	DefaultMinFailGrade = 30.0
)

// Thresholds controls how Status is derived from grades.
type Thresholds struct {
	// Passing is the minimum average for an overall pass.
	Passing float64

	// MinFail forces failure when any recorded grade is below it,
	// regardless of the average.
	MinFail float64
}

// DefaultThresholds returns the passing (75) and hard-fail (30) thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Passing: DefaultPassingGrade, MinFail: DefaultMinFailGrade}
}

// Student represents one student and their grades.
//
// The id is fixed at creation. The subject view is the list of subject names
// the average and status are evaluated against; the registry keeps it equal
// to the global subject list.
type Student struct {
	id       string
	name     string
	class    string
	grades   map[string]float64
	subjects []string
}

// NewStudent creates a student with no grades and an empty subject view.
func NewStudent(id, name, class string) *Student {
	return &Student{
		id:     id,
		name:   name,
		class:  class,
		grades: make(map[string]float64),
	}
}

// StudentFromRecord rebuilds a student from its persisted form.
// The subject view is left empty; the registry injects it after loading.
func StudentFromRecord(r StudentRecord) *Student {
	s := NewStudent(r.ID, r.Name, r.Class)
	for subject, score := range r.Grades {
		s.grades[subject] = score
	}
	return s
}

// ToRecord returns the persisted form of the student.
func (s *Student) ToRecord() StudentRecord {
	return StudentRecord{
		ID:     s.id,
		Name:   s.name,
		Class:  s.class,
		Grades: s.Grades(),
	}
}

// Clone returns a deep copy, subject view included.
func (s *Student) Clone() *Student {
	c := StudentFromRecord(s.ToRecord())
	c.SetSubjectView(s.subjects)
	return c
}

func (s *Student) ID() string    { return s.id }
func (s *Student) Name() string  { return s.name }
func (s *Student) Class() string { return s.class }

// SetName replaces the display name. Validation is the registry's job.
func (s *Student) SetName(name string) { s.name = name }

// SetClass replaces the class name. Validation is the registry's job.
func (s *Student) SetClass(class string) { s.class = class }

// Grades returns a copy of the recorded grades keyed by subject.
func (s *Student) Grades() map[string]float64 {
	out := make(map[string]float64, len(s.grades))
	for subject, score := range s.grades {
		out[subject] = score
	}
	return out
}

// Grade returns the recorded grade for subject, matched case-insensitively.
func (s *Student) Grade(subject string) (float64, bool) {
	key, ok := s.gradeKey(subject)
	if !ok {
		return 0, false
	}
	return s.grades[key], true
}

// gradeKey finds the stored key for subject: exact match first, then
// case-insensitive. When several keys fold to subject the lowest key in
// byte order wins, so lookups do not depend on map iteration order.
func (s *Student) gradeKey(subject string) (string, bool) {
	if _, ok := s.grades[subject]; ok {
		return subject, true
	}
	folded := FoldName(subject)
	var matches []string
	for key := range s.grades {
		if FoldName(key) == folded {
			matches = append(matches, key)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[0], true
}

// SetSubjectView replaces the subjects the average is computed over.
func (s *Student) SetSubjectView(subjects []string) {
	s.subjects = append([]string(nil), subjects...)
}

// SubjectView returns a copy of the current subject view.
func (s *Student) SubjectView() []string {
	return append([]string(nil), s.subjects...)
}

// AddOrUpdateGrade sets or overwrites the grade for subject.
// It does not check that the subject is registered.
func (s *Student) AddOrUpdateGrade(subject string, score float64) error {
	if !IsValidGrade(score) {
		return NewError("AddGrade", ErrValidation, "grade must be between 0 and 100, got %v", score)
	}
	folded := FoldName(subject)
	for key := range s.grades {
		if key != subject && FoldName(key) == folded {
			delete(s.grades, key)
		}
	}
	s.grades[subject] = score
	return nil
}

// RenameSubjectKey moves the grade stored under oldName to newName.
// When a grade already exists under newName the existing value wins and
// nothing changes. Reports whether a grade was moved.
func (s *Student) RenameSubjectKey(oldName, newName string) bool {
	oldKey, hasOld := s.gradeKey(oldName)
	if !hasOld {
		return false
	}
	if newKey, hasNew := s.gradeKey(newName); hasNew {
		if newKey != oldKey {
			return false
		}
		// same key, only the spelling changes
		if oldKey == newName {
			return false
		}
	}
	score := s.grades[oldKey]
	delete(s.grades, oldKey)
	s.grades[newName] = score
	return true
}

// Average is the sum of grade-or-0 over every subject in the view divided
// by the number of subjects. It is 0 when the view is empty.
func (s *Student) Average() float64 {
	if len(s.subjects) == 0 {
		return 0
	}
	var total float64
	for _, subject := range s.subjects {
		if score, ok := s.Grade(subject); ok {
			total += score
		}
	}
	return total / float64(len(s.subjects))
}

// Status derives the pass/fail outcome from the subject view:
//   - no subjects: Passed
//   - any recorded grade below th.MinFail: Failed
//   - average at or above th.Passing: Passed
//   - otherwise: Failed
func (s *Student) Status(th Thresholds) Status {
	if len(s.subjects) == 0 {
		return StatusPassed
	}
	for _, subject := range s.subjects {
		if score, ok := s.Grade(subject); ok && score < th.MinFail {
			return StatusFailed
		}
	}
	if s.Average() >= th.Passing {
		return StatusPassed
	}
	return StatusFailed
}
