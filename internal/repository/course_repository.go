package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grading-api/internal/models"
)

// CourseRepository reads course metadata.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
