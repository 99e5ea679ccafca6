package models

import "time"

// StudentRegistryEntry is a row of the pre-validated campus roster.
// It is immutable reference data seeded out-of-band and is only ever
// read to authorize signups.
type StudentRegistryEntry struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Department     string    `db:"department" json:"department"`
	AcademicYear   *string   `db:"academic_year" json:"academic_year,omitempty"`
	GraduationYear *int      `db:"graduation_year" json:"graduation_year,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
