package models

import (
	"time"

	"github.com/noah-isme/lms-grading-api/internal/grading"
)

// GradeWeights is the persisted per-course category weight configuration.
type GradeWeights struct {
	CourseID      string    `db:"course_id" json:"course_id"`
	Assignments   float64   `db:"assignments" json:"assignments"`
	Quizzes       float64   `db:"quizzes" json:"quizzes"`
	Participation float64   `db:"participation" json:"participation"`
	Attendance    float64   `db:"attendance" json:"attendance"`
	UpdatedBy     *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Weights converts the row into the engine representation.
func (w GradeWeights) Weights() grading.Weights {
	return grading.Weights{
		Assignments:   w.Assignments,
		Quizzes:       w.Quizzes,
		Participation: w.Participation,
		Attendance:    w.Attendance,
	}
}

// NewGradeWeights builds a row for courseID from engine weights.
func NewGradeWeights(courseID string, w grading.Weights) GradeWeights {
	return GradeWeights{
		CourseID:      courseID,
		Assignments:   w.Assignments,
		Quizzes:       w.Quizzes,
		Participation: w.Participation,
		Attendance:    w.Attendance,
	}
}
