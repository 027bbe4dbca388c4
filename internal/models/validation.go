package models

import (
	"math"
	"regexp"
	"strings"
)

var studentIDPattern = regexp.MustCompile(`^S\d{3}$`)

// IsValidStudentID reports whether id has the S### format (S001..S999, S000 included).
func IsValidStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// IsValidName reports whether a name, class or subject is non-blank.
func IsValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// IsValidGrade reports whether score lies in [0,100]. NaN is rejected.
func IsValidGrade(score float64) bool {
	if math.IsNaN(score) {
		return false
	}
	return score >= 0 && score <= 100
}
