// Package calculator derives per-class and school-wide aggregates and rankings
// from students. Nothing here is cached; every call recomputes from the input.
package calculator

import (
	"sort"

	"github.com/mmynk/gradebook/internal/models"
)

// SchoolStatistics summarizes every student in the registry.
type SchoolStatistics struct {
	TotalStudents  int
	TotalClasses   int // size of the class registry, not classes with students
	SchoolAverage  float64
	PassedStudents int
	FailedStudents int
	PassRate       float64 // percentage, 0..100
}

// ClassStatistics summarizes the students of one class.
type ClassStatistics struct {
	ClassName      string
	TotalStudents  int
	ClassAverage   float64
	PassedStudents int
	FailedStudents int
	PassRate       float64 // percentage, 0..100
	HighestAverage float64
	LowestAverage  float64
	Students       []*models.Student
}

// CalculateSchoolStatistics computes school-wide aggregates.
// With no students the result is all zeros, class count included.
func CalculateSchoolStatistics(students []*models.Student, totalClasses int, th models.Thresholds) SchoolStatistics {
	if len(students) == 0 {
		return SchoolStatistics{}
	}

	var sum float64
	passed := 0
	for _, s := range students {
		sum += s.Average()
		if s.Status(th) == models.StatusPassed {
			passed++
		}
	}

	total := len(students)
	return SchoolStatistics{
		TotalStudents:  total,
		TotalClasses:   totalClasses,
		SchoolAverage:  sum / float64(total),
		PassedStudents: passed,
		FailedStudents: total - passed,
		PassRate:       float64(passed) / float64(total) * 100,
	}
}

// CalculateClassStatistics computes aggregates over the given class members.
// It returns false when the class has no students.
func CalculateClassStatistics(className string, members []*models.Student, th models.Thresholds) (*ClassStatistics, bool) {
	if len(members) == 0 {
		return nil, false
	}

	stats := &ClassStatistics{
		ClassName:      className,
		TotalStudents:  len(members),
		HighestAverage: members[0].Average(),
		LowestAverage:  members[0].Average(),
		Students:       members,
	}

	var sum float64
	for _, s := range members {
		avg := s.Average()
		sum += avg
		if avg > stats.HighestAverage {
			stats.HighestAverage = avg
		}
		if avg < stats.LowestAverage {
			stats.LowestAverage = avg
		}
		if s.Status(th) == models.StatusPassed {
			stats.PassedStudents++
		}
	}
	stats.FailedStudents = stats.TotalStudents - stats.PassedStudents
	stats.ClassAverage = sum / float64(stats.TotalStudents)
	stats.PassRate = float64(stats.PassedStudents) / float64(stats.TotalStudents) * 100

	return stats, true
}

// TopStudents returns up to n passing students ordered by average, highest
// first. Ties keep their input order.
func TopStudents(students []*models.Student, n int, th models.Thresholds) []*models.Student {
	if n <= 0 {
		return []*models.Student{}
	}

	passed := make([]*models.Student, 0, len(students))
	for _, s := range students {
		if s.Status(th) == models.StatusPassed {
			passed = append(passed, s)
		}
	}

	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].Average() > passed[j].Average()
	})

	if len(passed) > n {
		passed = passed[:n]
	}
	return passed
}
