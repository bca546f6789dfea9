package models

import (
	"time"

	"github.com/noah-isme/lms-grading-api/internal/grading"
)

// CurveApplication audits one committed curve.
type CurveApplication struct {
	ID           string            `db:"id" json:"id"`
	CourseID     string            `db:"course_id" json:"course_id"`
	AssignmentID string            `db:"assignment_id" json:"assignment_id"`
	PolicyKind   grading.CurveKind `db:"policy_kind" json:"policy_kind"`
	Points       float64           `db:"points" json:"points"`
	Factor       float64           `db:"factor" json:"factor"`
	TargetMean   float64           `db:"target_mean" json:"target_mean"`
	TargetStdDev float64           `db:"target_std_dev" json:"target_std_dev"`
	UpdatedCount int               `db:"updated_count" json:"updated_count"`
	MeanBefore   float64           `db:"mean_before" json:"mean_before"`
	MeanAfter    float64           `db:"mean_after" json:"mean_after"`
	AppliedAt    time.Time         `db:"applied_at" json:"applied_at"`
}

// Policy rebuilds the engine policy recorded by the audit row.
func (a CurveApplication) Policy() grading.CurvePolicy {
	return grading.CurvePolicy{
		Kind:         a.PolicyKind,
		Points:       a.Points,
		Factor:       a.Factor,
		TargetMean:   a.TargetMean,
		TargetStdDev: a.TargetStdDev,
	}
}

// CurveFunc computes the score updates and audit row for a locked snapshot of items.
type CurveFunc func(items []GradedItem) ([]ScoreUpdate, *CurveApplication, error)
