package registry

import (
	"github.com/mmynk/gradebook/internal/models"
)

// Snapshot returns the registry state in its serializable form.
func (r *Registry) Snapshot() *models.Snapshot {
	snap := models.EmptySnapshot()
	for _, s := range r.students {
		snap.Students = append(snap.Students, s.ToRecord())
	}
	snap.ClassNames = r.classes.list()
	snap.SubjectNames = r.subjects.list()
	return snap
}

// FromSnapshot rebuilds a registry from snap. Students are restored first,
// then the class registry, then the subject registry, which re-synchronizes
// every student's subject view. Classes referenced by students but missing
// from the class list are registered.
//
// Duplicate ids, blank names and out-of-range grades make the snapshot invalid.
// Ids outside the S### format are accepted as stored.
func FromSnapshot(snap *models.Snapshot, th models.Thresholds) (*Registry, error) {
	const op = "FromSnapshot"

	r := New(th)
	if snap == nil {
		return r, nil
	}

	seen := make(map[string]bool, len(snap.Students))
	for _, rec := range snap.Students {
		if seen[rec.ID] {
			return nil, models.NewError(op, models.ErrDuplicateID, "id %s appears more than once", rec.ID)
		}
		seen[rec.ID] = true
		if !models.IsValidName(rec.ID) || !models.IsValidName(rec.Name) || !models.IsValidName(rec.Class) {
			return nil, models.NewError(op, models.ErrValidation, "student %q has an empty id, name or class", rec.ID)
		}
		for subject, score := range rec.Grades {
			if !models.IsValidGrade(score) {
				return nil, models.NewError(op, models.ErrValidation, "student %s: grade for %s must be between 0 and 100, got %v", rec.ID, subject, score)
			}
		}
		r.students = append(r.students, models.StudentFromRecord(rec))
	}

	r.SetClassNames(snap.ClassNames)
	for _, s := range r.students {
		r.classes.add(s.Class())
	}
	r.SetSubjectNames(snap.SubjectNames)

	return r, nil
}
