package dto

import (
	"time"

	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
)

// UpdateGradeWeightsRequest replaces every category weight of a course at once.
type UpdateGradeWeightsRequest struct {
	Assignments   *float64 `json:"assignments" validate:"required,gte=0,lte=1"`
	Quizzes       *float64 `json:"quizzes" validate:"required,gte=0,lte=1"`
	Participation *float64 `json:"participation" validate:"required,gte=0,lte=1"`
	Attendance    *float64 `json:"attendance" validate:"required,gte=0,lte=1"`
	UpdatedBy     string   `json:"updated_by" validate:"omitempty,max=120"`
}

// Weights converts the request into engine weights. Missing fields become 0.
func (r UpdateGradeWeightsRequest) Weights() grading.Weights {
	return grading.Weights{
		Assignments:   deref(r.Assignments),
		Quizzes:       deref(r.Quizzes),
		Participation: deref(r.Participation),
		Attendance:    deref(r.Attendance),
	}
}

// GradeWeightsResponse exposes the effective weights of a course.
type GradeWeightsResponse struct {
	CourseID      string     `json:"course_id"`
	Assignments   float64    `json:"assignments"`
	Quizzes       float64    `json:"quizzes"`
	Participation float64    `json:"participation"`
	Attendance    float64    `json:"attendance"`
	Sum           float64    `json:"sum"`
	Valid         bool       `json:"valid"`
	IsDefault     bool       `json:"is_default"`
	UpdatedBy     *string    `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CurvePolicyRequest selects a curve policy. Omitted parameters fall back to the
// declared default of the policy.
type CurvePolicyRequest struct {
	Kind         grading.CurveKind `json:"kind" validate:"required,oneof=FLAT PERCENTAGE_BOOST SQUARE_ROOT BELL_CURVE"`
	Points       *float64          `json:"points,omitempty"`
	Factor       *float64          `json:"factor,omitempty"`
	TargetMean   *float64          `json:"target_mean,omitempty"`
	TargetStdDev *float64          `json:"target_std_dev,omitempty"`
}

// Policy builds the engine policy, filling omitted parameters with defaults.
func (r CurvePolicyRequest) Policy() grading.CurvePolicy {
	defaults := make(map[string]float64)
	for _, p := range grading.PolicyRanges()[r.Kind] {
		defaults[p.Name] = p.Default
	}
	pick := func(v *float64, name string) float64 {
		if v != nil {
			return *v
		}
		return defaults[name]
	}
	switch r.Kind {
	case grading.CurveFlat:
		return grading.Flat(pick(r.Points, "points"))
	case grading.CurvePercentageBoost:
		return grading.PercentageBoost(pick(r.Factor, "factor"))
	case grading.CurveSquareRoot:
		return grading.SquareRoot()
	case grading.CurveBell:
		return grading.BellCurve(pick(r.TargetMean, "target_mean"), pick(r.TargetStdDev, "target_std_dev"))
	default:
		return grading.CurvePolicy{Kind: r.Kind}
	}
}

// CurvePolicyOption describes a selectable curve policy for clients.
type CurvePolicyOption struct {
	Kind        grading.CurveKind    `json:"kind"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Params      []grading.ParamRange `json:"params"`
}

// CurvePreviewRow is one student's score before and after a curve.
type CurvePreviewRow struct {
	ItemID             string  `json:"item_id"`
	StudentID          string  `json:"student_id"`
	MaxPoints          float64 `json:"max_points"`
	OriginalScore      float64 `json:"original_score"`
	OriginalPercentage float64 `json:"original_percentage"`
	CurvedScore        float64 `json:"curved_score"`
	CurvedPercentage   float64 `json:"curved_percentage"`
}

// CurvePreviewResponse is the side-effect free outcome of a curve preview.
type CurvePreviewResponse struct {
	CourseID     string              `json:"course_id"`
	AssignmentID string              `json:"assignment_id"`
	Policy       grading.CurvePolicy `json:"policy"`
	Rows         []CurvePreviewRow   `json:"rows"`
	Before       grading.Statistics  `json:"before"`
	After        grading.Statistics  `json:"after"`
}

// CurveCommitResult reports a committed curve.
type CurveCommitResult struct {
	CourseID     string                   `json:"course_id"`
	AssignmentID string                   `json:"assignment_id"`
	Updated      int                      `json:"updated"`
	Before       grading.Statistics       `json:"before"`
	After        grading.Statistics       `json:"after"`
	Application  *models.CurveApplication `json:"application,omitempty"`
}

// HistogramBucket is a labelled histogram count.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AssignmentStatistics summarises the current scores of one assignment.
type AssignmentStatistics struct {
	CourseID     string             `json:"course_id"`
	AssignmentID string             `json:"assignment_id"`
	Statistics   grading.Statistics `json:"statistics"`
	Buckets      []HistogramBucket  `json:"buckets"`
}

// NewHistogramBuckets labels the histogram of stats.
func NewHistogramBuckets(stats grading.Statistics) []HistogramBucket {
	buckets := make([]HistogramBucket, grading.HistogramBuckets)
	for i := range buckets {
		buckets[i] = HistogramBucket{Label: grading.BucketLabel(i), Count: stats.Histogram[i]}
	}
	return buckets
}

// StudentGrade is a course grade result keyed by student.
type StudentGrade struct {
	StudentID string `json:"student_id"`
	grading.CourseGradeResult
}

// CourseGradeReport lists the grade of every student with scored work in a course.
type CourseGradeReport struct {
	CourseID     string             `json:"course_id"`
	CourseName   string             `json:"course_name"`
	Weights      grading.Weights    `json:"weights"`
	WeightsValid bool               `json:"weights_valid"`
	Students     []StudentGrade     `json:"students"`
	Statistics   grading.Statistics `json:"statistics"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
