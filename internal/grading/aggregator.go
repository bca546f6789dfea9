package grading

import "math"

// GradedItem is a single scored artifact belonging to a student in a course.
type GradedItem struct {
	Category  Category `json:"category"`
	Score     float64  `json:"score"`
	MaxPoints float64  `json:"max_points"`
}

// CategoryResult describes how one category contributed to a course grade.
type CategoryResult struct {
	Category  Category `json:"category"`
	Weight    float64  `json:"weight"`
	Average   float64  `json:"average"`
	ItemCount int      `json:"item_count"`
	HasData   bool     `json:"has_data"`
}

// CourseGradeResult is the display-ready outcome of aggregating a student's items.
//
// HasData is false when no category had any graded item; OverallPercentage is then 0
// and LetterGrade is NoGrade. WeightsValid is false when the weights did not sum to 1
// and the result was produced by normalizing over the actual weight sum.
type CourseGradeResult struct {
	CourseID          string           `json:"course_id"`
	CourseName        string           `json:"course_name"`
	OverallPercentage float64          `json:"overall_percentage"`
	LetterGrade       string           `json:"letter_grade"`
	GradePoints       float64          `json:"grade_points"`
	HasData           bool             `json:"has_data"`
	WeightsValid      bool             `json:"weights_valid"`
	Categories        []CategoryResult `json:"categories"`
}

// CategoryAverage returns the points-based average of items as a percentage.
// The boolean is false when there is nothing to average.
func CategoryAverage(items []GradedItem) (float64, bool) {
	avg, counted := categoryAverage(items)
	return avg, counted > 0
}

// categoryAverage also reports how many items were usable. Items without max
// points or with a NaN score are skipped.
func categoryAverage(items []GradedItem) (float64, int) {
	var score, max float64
	counted := 0
	for _, item := range items {
		if item.MaxPoints <= 0 || math.IsNaN(item.Score) {
			continue
		}
		score += item.Score
		max += item.MaxPoints
		counted++
	}
	if counted == 0 {
		return 0, 0
	}
	return Clamp(score / max * 100), counted
}

// CalculateCourseGrade combines per-category averages into one weighted grade.
//
// Categories without items are left out of both the weighted sum and the weight
// total. The overall percentage is always divided by the weight total of the
// categories that have data, so weights that do not sum to 1 are normalized
// instead of rejected; such results carry WeightsValid=false and callers are
// expected to surface the configuration error.
func CalculateCourseGrade(items []GradedItem, weights Weights, courseID, courseName string) CourseGradeResult {
	byCategory := make(map[Category][]GradedItem, len(Categories))
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	result := CourseGradeResult{
		CourseID:     courseID,
		CourseName:   courseName,
		LetterGrade:  NoGrade,
		WeightsValid: weights.IsValid(),
		Categories:   make([]CategoryResult, 0, len(Categories)),
	}

	var weighted, totalWeight float64
	for _, c := range Categories {
		weight := math.Max(weights.Of(c), 0)
		if math.IsNaN(weight) {
			weight = 0
		}
		avg, counted := categoryAverage(byCategory[c])
		result.Categories = append(result.Categories, CategoryResult{
			Category:  c,
			Weight:    weight,
			Average:   avg,
			ItemCount: counted,
			HasData:   counted > 0,
		})
		if counted == 0 {
			continue
		}
		weighted += weight * avg
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return result
	}

	result.HasData = true
	result.OverallPercentage = RoundPercentage(Clamp(weighted / totalWeight))
	result.LetterGrade = LetterGrade(result.OverallPercentage)
	result.GradePoints = GradePoints(result.LetterGrade)
	return result
}

// RoundPercentage rounds v to two decimals, half to even. Letter grades are
// looked up on the rounded value.
func RoundPercentage(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Clamp bounds v to the [0, 100] percentage scale. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
