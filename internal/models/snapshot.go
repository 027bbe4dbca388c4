package models

// StudentRecord is the persisted form of one student.
type StudentRecord struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Class  string             `json:"class"`
	Grades map[string]float64 `json:"grades"`
}

// Snapshot is the whole registry state in its durable shape:
//
//	{"students": [...], "classNames": [...], "subjectNames": [...]}
//
// It is sufficient on its own to rebuild an equivalent registry.
type Snapshot struct {
	Students     []StudentRecord `json:"students"`
	ClassNames   []string        `json:"classNames"`
	SubjectNames []string        `json:"subjectNames"`
}

// EmptySnapshot returns a snapshot with non-nil empty lists, so it encodes
// as [] rather than null.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Students:     []StudentRecord{},
		ClassNames:   []string{},
		SubjectNames: []string{},
	}
}

// Normalize replaces nil lists and grade maps with empty ones.
func (s *Snapshot) Normalize() {
	if s.Students == nil {
		s.Students = []StudentRecord{}
	}
	if s.ClassNames == nil {
		s.ClassNames = []string{}
	}
	if s.SubjectNames == nil {
		s.SubjectNames = []string{}
	}
	for i := range s.Students {
		if s.Students[i].Grades == nil {
			s.Students[i].Grades = map[string]float64{}
		}
	}
}
