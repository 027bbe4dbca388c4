// Package models defines the core domain models for the gradebook.
//
// # Models
//
//   - Student: identity, class membership and per-subject grades
//   - Snapshot: the self-describing serializable form of the whole registry
//   - Status: overall pass/fail outcome for a student
//
// Students are never constructed for storage directly; the registry owns them
// and keeps each student's subject view in sync with the global subject list.
//
// # Scoring Rules
//
// A student's average is computed over every registered subject, counting
// subjects without a recorded grade as 0. A student passes when no recorded
// grade falls below the hard-fail threshold and the average reaches the
// passing threshold. With no registered subjects every student passes.
package models
