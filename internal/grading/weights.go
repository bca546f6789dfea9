package grading

import "math"

// WeightTolerance is the allowed deviation from 1.0 for a weight configuration.
const WeightTolerance = 1e-6

// Category identifies one of the four grade weight buckets.
type Category string

const (
	// CategoryAssignments covers homework and project assignments.
	CategoryAssignments Category = "ASSIGNMENTS"
	// CategoryQuizzes covers quizzes and tests.
	CategoryQuizzes Category = "QUIZZES"
	// CategoryParticipation covers participation marks.
	CategoryParticipation Category = "PARTICIPATION"
	// CategoryAttendance covers attendance records.
	CategoryAttendance Category = "ATTENDANCE"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAssignments, CategoryQuizzes, CategoryParticipation, CategoryAttendance}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAssignments, CategoryQuizzes, CategoryParticipation, CategoryAttendance:
		return true
	}
	return false
}

// Weights holds the fractional weight of each category for one course.
type Weights struct {
	Assignments   float64 `json:"assignments"`
	Quizzes       float64 `json:"quizzes"`
	Participation float64 `json:"participation"`
	Attendance    float64 `json:"attendance"`
}

// DefaultWeights is the split used when a course has not saved its own configuration.
func DefaultWeights() Weights {
	return Weights{Assignments: 0.4, Quizzes: 0.3, Participation: 0.2, Attendance: 0.1}
}

// Of returns the weight assigned to a category.
func (w Weights) Of(c Category) float64 {
	switch c {
	case CategoryAssignments:
		return w.Assignments
	case CategoryQuizzes:
		return w.Quizzes
	case CategoryParticipation:
		return w.Participation
	case CategoryAttendance:
		return w.Attendance
	}
	return 0
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Assignments + w.Quizzes + w.Participation + w.Attendance
}

// IsValid reports whether every weight is non-negative and the four sum to 1.
func (w Weights) IsValid() bool {
	return w.IsValidWithin(WeightTolerance)
}

// IsValidWithin is IsValid with a caller supplied tolerance.
func (w Weights) IsValidWithin(tolerance float64) bool {
	for _, c := range Categories {
		v := w.Of(c)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= tolerance
}
