package sqlite

import "database/sql"

// schema sets up the snapshot tables. It runs on startup to ensure tables exist.
// Students must be created BEFORE grades due to the foreign key constraint.
const schema = `
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    class TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS grades (
    student_id TEXT NOT NULL,
    subject TEXT NOT NULL,
    score REAL NOT NULL CHECK (score >= 0 AND score <= 100),
    PRIMARY KEY (student_id, subject),
    FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS class_names (
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS subject_names (
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_students_position ON students(position);
CREATE INDEX IF NOT EXISTS idx_grades_student_id ON grades(student_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
