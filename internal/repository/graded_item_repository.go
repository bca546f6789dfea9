package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grading-api/internal/models"
	"github.com/noah-isme/lms-grading-api/pkg/database"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

const gradedItemColumns = `id, course_id, student_id, assignment_id, title, category, score, max_points, status, graded_at, updated_at`

const scoredStatuses = `('GRADED', 'RETURNED')`

// GradedItemRepository handles graded item persistence and curve commits.
type GradedItemRepository struct {
	db *sqlx.DB
}

// NewGradedItemRepository creates a new graded item repository.
func NewGradedItemRepository(db *sqlx.DB) *GradedItemRepository {
	return &GradedItemRepository{db: db}
}

// List returns graded items matching the filter ordered by student then assignment.
func (r *GradedItemRepository) List(ctx context.Context, filter models.GradedItemFilter) ([]models.GradedItem, error) {
	query := `SELECT ` + gradedItemColumns + ` FROM graded_items WHERE 1=1`
	var args []interface{}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.AssignmentID != "" {
		query += fmt.Sprintf(" AND assignment_id = $%d", len(args)+1)
		args = append(args, filter.AssignmentID)
	}
	if filter.ScoredOnly {
		query += " AND status IN " + scoredStatuses
	}
	query += " ORDER BY student_id, assignment_id, id"

	var items []models.GradedItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list graded items: %w", err)
	}
	return items, nil
}

// CommitCurve locks every scored item of an assignment, hands the snapshot to fn
// and writes the returned scores plus the audit row in one transaction.
//
// appErrors.ErrNothingToCurve is returned, and nothing is written, when no item
// matches. Any failure rolls the whole batch back.
func (r *GradedItemRepository) CommitCurve(ctx context.Context, courseID, assignmentID string, fn models.CurveFunc) (*models.CurveApplication, error) {
	var application *models.CurveApplication
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lockQuery := `SELECT ` + gradedItemColumns + ` FROM graded_items
            WHERE course_id = $1 AND assignment_id = $2 AND status IN ` + scoredStatuses + `
            ORDER BY id FOR UPDATE`
		var items []models.GradedItem
		if err := tx.SelectContext(ctx, &items, lockQuery, courseID, assignmentID); err != nil {
			return fmt.Errorf("lock graded items: %w", err)
		}
		if len(items) == 0 {
			return appErrors.ErrNothingToCurve
		}

		updates, app, err := fn(items)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		const updateQuery = `UPDATE graded_items SET score = $1, updated_at = $2 WHERE id = $3`
		for _, update := range updates {
			res, err := tx.ExecContext(ctx, updateQuery, update.Score, now, update.ItemID)
			if err != nil {
				return fmt.Errorf("update graded item %s: %w", update.ItemID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n != 1 {
				return fmt.Errorf("update graded item %s: %d rows affected", update.ItemID, n)
			}
		}

		if app != nil {
			if app.ID == "" {
				app.ID = uuid.NewString()
			}
			app.AppliedAt = now
			const insertAudit = `INSERT INTO curve_applications (id, course_id, assignment_id, policy_kind, points, factor, target_mean, target_std_dev, updated_count, mean_before, mean_after, applied_at)
                VALUES (:id, :course_id, :assignment_id, :policy_kind, :points, :factor, :target_mean, :target_std_dev, :updated_count, :mean_before, :mean_after, :applied_at)`
			if _, err := tx.NamedExecContext(ctx, insertAudit, app); err != nil {
				return fmt.Errorf("insert curve application: %w", err)
			}
		}
		application = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return application, nil
}

// ListCurveApplications returns the curve audit trail of a course, newest first.
func (r *GradedItemRepository) ListCurveApplications(ctx context.Context, courseID string) ([]models.CurveApplication, error) {
	const query = `SELECT id, course_id, assignment_id, policy_kind, points, factor, target_mean, target_std_dev, updated_count, mean_before, mean_after, applied_at
        FROM curve_applications WHERE course_id = $1 ORDER BY applied_at DESC`
	var apps []models.CurveApplication
	if err := r.db.SelectContext(ctx, &apps, query, courseID); err != nil {
		return nil, fmt.Errorf("list curve applications: %w", err)
	}
	return apps, nil
}
