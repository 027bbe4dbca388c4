package models

import "golang.org/x/text/cases"

// FoldName returns the case-folded form of a class, subject or grade key.
// Two names are the same name when their folded forms are equal.
func FoldName(name string) string {
	return cases.Fold().String(name)
}
