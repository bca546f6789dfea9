package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grading-api/internal/models"
)

// GradeWeightsRepository persists per-course grade weights.
type GradeWeightsRepository struct {
	db *sqlx.DB
}

// NewGradeWeightsRepository creates a new repository instance.
func NewGradeWeightsRepository(db *sqlx.DB) *GradeWeightsRepository {
	return &GradeWeightsRepository{db: db}
}

// FindByCourse returns the stored weights or sql.ErrNoRows.
func (r *GradeWeightsRepository) FindByCourse(ctx context.Context, courseID string) (*models.GradeWeights, error) {
	const query = `SELECT course_id, assignments, quizzes, participation, attendance, updated_by, updated_at
        FROM course_grade_weights WHERE course_id = $1`
	var weights models.GradeWeights
	if err := r.db.GetContext(ctx, &weights, query, courseID); err != nil {
		return nil, err
	}
	return &weights, nil
}

// Replace stores the full weight configuration for a course, overwriting any previous one.
func (r *GradeWeightsRepository) Replace(ctx context.Context, weights *models.GradeWeights) error {
	weights.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO course_grade_weights (course_id, assignments, quizzes, participation, attendance, updated_by, updated_at)
        VALUES (:course_id, :assignments, :quizzes, :participation, :attendance, :updated_by, :updated_at)
        ON CONFLICT (course_id) DO UPDATE SET
            assignments = EXCLUDED.assignments,
            quizzes = EXCLUDED.quizzes,
            participation = EXCLUDED.participation,
            attendance = EXCLUDED.attendance,
            updated_by = EXCLUDED.updated_by,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, weights); err != nil {
		return fmt.Errorf("replace grade weights: %w", err)
	}
	return nil
}
