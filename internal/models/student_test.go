package models

import (
	"errors"
	"math"
	"testing"
)

func TestAddOrUpdateGrade(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr bool
	}{
		{"zero is valid", 0, false},
		{"hundred is valid", 100, false},
		{"fraction is valid", 72.5, false},
		{"negative rejected", -1, true},
		{"above hundred rejected", 100.01, true},
		{"NaN rejected", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStudent("S001", "Ana", "10A")
			err := s.AddOrUpdateGrade("Math", tt.score)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddOrUpdateGrade(%v) error = %v, wantErr %v", tt.score, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				if _, ok := s.Grade("Math"); ok {
					t.Error("rejected grade must not be stored")
				}
			}
		})
	}
}

func TestAddOrUpdateGrade_Overwrite(t *testing.T) {
	s := NewStudent("S001", "Ana", "10A")
	s.SetSubjectView([]string{"Math"})

	if err := s.AddOrUpdateGrade("Math", 40); err != nil {
		t.Fatalf("AddOrUpdateGrade failed: %v", err)
	}
	first := s.Average()
	if err := s.AddOrUpdateGrade("math", 90); err != nil {
		t.Fatalf("AddOrUpdateGrade failed: %v", err)
	}

	if first != 40 {
		t.Errorf("first average = %v, want 40", first)
	}
	if got := s.Average(); got != 90 {
		t.Errorf("average after overwrite = %v, want 90", got)
	}
	if len(s.Grades()) != 1 {
		t.Errorf("expected a single grade key, got %v", s.Grades())
	}
}

func TestRenameSubjectKey(t *testing.T) {
	tests := []struct {
		name       string
		grades     map[string]float64
		oldName    string
		newName    string
		wantMoved  bool
		wantGrades map[string]float64
	}{
		{
			name:       "moves grade to new name",
			grades:     map[string]float64{"Math": 80},
			oldName:    "Math",
			newName:    "Mathematics",
			wantMoved:  true,
			wantGrades: map[string]float64{"Mathematics": 80},
		},
		{
			name:       "existing target wins",
			grades:     map[string]float64{"Math": 80, "Mathematics": 60},
			oldName:    "Math",
			newName:    "Mathematics",
			wantMoved:  false,
			wantGrades: map[string]float64{"Math": 80, "Mathematics": 60},
		},
		{
			name:       "no grade under old name",
			grades:     map[string]float64{"Science": 70},
			oldName:    "Math",
			newName:    "Mathematics",
			wantMoved:  false,
			wantGrades: map[string]float64{"Science": 70},
		},
		{
			name:       "case-only rename changes spelling",
			grades:     map[string]float64{"math": 55},
			oldName:    "math",
			newName:    "Math",
			wantMoved:  true,
			wantGrades: map[string]float64{"Math": 55},
		},
		{
			name:       "old name matched case-insensitively",
			grades:     map[string]float64{"Math": 80},
			oldName:    "MATH",
			newName:    "Algebra",
			wantMoved:  true,
			wantGrades: map[string]float64{"Algebra": 80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StudentFromRecord(StudentRecord{ID: "S001", Name: "Ana", Class: "10A", Grades: tt.grades})
			if got := s.RenameSubjectKey(tt.oldName, tt.newName); got != tt.wantMoved {
				t.Errorf("RenameSubjectKey() = %v, want %v", got, tt.wantMoved)
			}
			got := s.Grades()
			if len(got) != len(tt.wantGrades) {
				t.Fatalf("grades = %v, want %v", got, tt.wantGrades)
			}
			for k, v := range tt.wantGrades {
				if got[k] != v {
					t.Errorf("grade[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestAverageAndStatus(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name        string
		subjects    []string
		grades      map[string]float64
		wantAverage float64
		wantStatus  Status
	}{
		{
			name:        "no subjects passes vacuously",
			subjects:    nil,
			grades:      map[string]float64{"Math": 10},
			wantAverage: 0,
			wantStatus:  StatusPassed,
		},
		{
			name:        "single grade above passing",
			subjects:    []string{"Math"},
			grades:      map[string]float64{"Math": 80},
			wantAverage: 80,
			wantStatus:  StatusPassed,
		},
		{
			name:        "missing subject counts as zero",
			subjects:    []string{"Math", "Science"},
			grades:      map[string]float64{"Math": 80},
			wantAverage: 40,
			wantStatus:  StatusFailed,
		},
		{
			name:        "exactly at passing threshold",
			subjects:    []string{"Math", "Science"},
			grades:      map[string]float64{"Math": 75, "Science": 75},
			wantAverage: 75,
			wantStatus:  StatusPassed,
		},
		{
			name:        "hard fail overrides high average",
			subjects:    []string{"Art", "Math", "Science", "Sport"},
			grades:      map[string]float64{"Art": 100, "Math": 100, "Science": 100, "Sport": 29},
			wantAverage: 82.25,
			wantStatus:  StatusFailed,
		},
		{
			name:        "grade exactly at hard-fail threshold is not a hard fail",
			subjects:    []string{"Math", "Science"},
			grades:      map[string]float64{"Math": 30, "Science": 100},
			wantAverage: 65,
			wantStatus:  StatusFailed,
		},
		{
			name:        "orphaned grade ignored",
			subjects:    []string{"Math"},
			grades:      map[string]float64{"Math": 90, "Latin": 5},
			wantAverage: 90,
			wantStatus:  StatusPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StudentFromRecord(StudentRecord{ID: "S001", Name: "Ana", Class: "10A", Grades: tt.grades})
			s.SetSubjectView(tt.subjects)

			avg := s.Average()
			if math.Abs(avg-tt.wantAverage) > 0.0001 {
				t.Errorf("Average() = %v, want %v", avg, tt.wantAverage)
			}
			if again := s.Average(); again != avg {
				t.Errorf("Average() not stable: %v then %v", avg, again)
			}
			if got := s.Status(th); got != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	original := StudentFromRecord(StudentRecord{
		ID:     "S042",
		Name:   "Budi",
		Class:  "11B",
		Grades: map[string]float64{"Math": 88, "Science": 64.5},
	})

	rebuilt := StudentFromRecord(original.ToRecord())

	if rebuilt.ID() != "S042" || rebuilt.Name() != "Budi" || rebuilt.Class() != "11B" {
		t.Errorf("identity mismatch: %+v", rebuilt.ToRecord())
	}
	if len(rebuilt.Grades()) != 2 || rebuilt.Grades()["Science"] != 64.5 {
		t.Errorf("grades mismatch: %v", rebuilt.Grades())
	}

	// Records hold copies, not the student's own map.
	rec := original.ToRecord()
	rec.Grades["Math"] = 0
	if g, _ := original.Grade("Math"); g != 88 {
		t.Errorf("record mutation leaked into student: Math = %v", g)
	}
}

func TestIsValidStudentID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"S001", true},
		{"S999", true},
		{"S000", true},
		{"S1", false},
		{"s001", false},
		{"S0001", false},
		{"S00A", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidStudentID(tt.id); got != tt.want {
				t.Errorf("IsValidStudentID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestGrade_FullCaseFolding(t *testing.T) {
	s := StudentFromRecord(StudentRecord{
		ID: "S001", Name: "Ana", Class: "10A",
		Grades: map[string]float64{"STRASSE": 90},
	})
	s.SetSubjectView([]string{"Straße"})

	if g, ok := s.Grade("Straße"); !ok || g != 90 {
		t.Fatalf("Grade(Straße) = %v, %v; want 90, true", g, ok)
	}
	if avg := s.Average(); avg != 90 {
		t.Errorf("Average() = %v, want 90", avg)
	}

	if !s.RenameSubjectKey("Straße", "Road") {
		t.Fatal("RenameSubjectKey(Straße, Road) = false, want true")
	}
	if g, ok := s.Grade("Road"); !ok || g != 90 {
		t.Errorf("Grade(Road) = %v, %v; want 90, true", g, ok)
	}
}

func TestGrade_FoldedDuplicateKeysAreStable(t *testing.T) {
	s := StudentFromRecord(StudentRecord{
		ID: "S001", Name: "Ana", Class: "10A",
		Grades: map[string]float64{"math": 10, "MATH": 90},
	})
	s.SetSubjectView([]string{"Math"})
	th := DefaultThresholds()

	// "MATH" sorts before "math"
	for i := 0; i < 200; i++ {
		if g, ok := s.Grade("Math"); !ok || g != 90 {
			t.Fatalf("Grade(Math) = %v, %v; want 90, true", g, ok)
		}
		if avg := s.Average(); avg != 90 {
			t.Fatalf("Average() = %v, want 90", avg)
		}
		if st := s.Status(th); st != StatusPassed {
			t.Fatalf("Status() = %v, want %v", st, StatusPassed)
		}
	}
}

func TestAddOrUpdateGrade_ReplacesFoldedDuplicates(t *testing.T) {
	s := StudentFromRecord(StudentRecord{
		ID: "S001", Name: "Ana", Class: "10A",
		Grades: map[string]float64{"math": 10, "MATH": 90},
	})
	s.SetSubjectView([]string{"Math"})

	if err := s.AddOrUpdateGrade("math", 55); err != nil {
		t.Fatalf("AddOrUpdateGrade() error = %v", err)
	}
	if got := s.Grades(); len(got) != 1 || got["math"] != 55 {
		t.Errorf("Grades() = %v, want map[math:55]", got)
	}
	if avg := s.Average(); avg != 55 {
		t.Errorf("Average() = %v, want 55", avg)
	}
}
