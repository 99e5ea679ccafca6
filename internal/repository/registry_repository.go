package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trackmate-dev/trackmate-api/internal/models"
)

// RegistryRepository reads the student roster. The registry is seeded
// out-of-band and never written by the running service.
type RegistryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository constructs a RegistryRepository.
func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// FindByStudentAndEmail returns the roster entry matching both identifiers.
func (r *RegistryRepository) FindByStudentAndEmail(ctx context.Context, studentID, email string) (*models.StudentRegistryEntry, error) {
	const query = `SELECT id, student_id, email, full_name, department, academic_year, graduation_year, created_at
        FROM student_registry WHERE student_id = $1 AND email = $2 LIMIT 1`
	var entry models.StudentRegistryEntry
	if err := r.db.GetContext(ctx, &entry, query, studentID, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registry entry: %w", err)
	}
	return &entry, nil
}
