package models

import (
	"time"

	"github.com/noah-isme/lms-grading-api/internal/grading"
)

// GradedItemStatus tracks the submission lifecycle of a graded item.
type GradedItemStatus string

const (
	// GradedItemSubmitted is handed in but not yet scored.
	GradedItemSubmitted GradedItemStatus = "SUBMITTED"
	// GradedItemGraded has an authoritative score.
	GradedItemGraded GradedItemStatus = "GRADED"
	// GradedItemReturned has been scored and returned to the student.
	GradedItemReturned GradedItemStatus = "RETURNED"
)

// GradedItem is a scored artifact of a student in a course.
type GradedItem struct {
	ID           string           `db:"id" json:"id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	AssignmentID string           `db:"assignment_id" json:"assignment_id"`
	Title        string           `db:"title" json:"title"`
	Category     grading.Category `db:"category" json:"category"`
	Score        float64          `db:"score" json:"score"`
	MaxPoints    float64          `db:"max_points" json:"max_points"`
	Status       GradedItemStatus `db:"status" json:"status"`
	GradedAt     *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Scored reports whether the item carries a score the aggregator may use.
func (i GradedItem) Scored() bool {
	return i.Status == GradedItemGraded || i.Status == GradedItemReturned
}

// Percentage returns the item score on the 0..100 scale.
func (i GradedItem) Percentage() float64 {
	if i.MaxPoints <= 0 {
		return 0
	}
	return i.Score / i.MaxPoints * 100
}

// Engine converts the row into the engine representation.
func (i GradedItem) Engine() grading.GradedItem {
	return grading.GradedItem{Category: i.Category, Score: i.Score, MaxPoints: i.MaxPoints}
}

// GradedItemFilter scopes graded item queries.
type GradedItemFilter struct {
	CourseID     string
	StudentID    string
	AssignmentID string
	ScoredOnly   bool
}

// ScoreUpdate is a single new score written by a curve commit.
type ScoreUpdate struct {
	ItemID string  `db:"id"`
	Score  float64 `db:"score"`
}
