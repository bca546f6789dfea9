package grading

// NoGrade is the letter placeholder used when nothing could be computed.
const NoGrade = "N/A"

type breakpoint struct {
	min    float64
	letter string
	points float64
}

// breakpoints are ordered from highest to lowest inclusive lower bound.
var breakpoints = []breakpoint{
	{93, "A", 4.0},
	{90, "A-", 3.7},
	{87, "B+", 3.3},
	{83, "B", 3.0},
	{80, "B-", 2.7},
	{77, "C+", 2.3},
	{73, "C", 2.0},
	{70, "C-", 1.7},
	{67, "D+", 1.3},
	{63, "D", 1.0},
	{60, "D-", 0.7},
}

// LetterGrade maps a percentage to a letter using the fixed breakpoint table.
func LetterGrade(percentage float64) string {
	for _, bp := range breakpoints {
		if percentage >= bp.min {
			return bp.letter
		}
	}
	return "F"
}

// GradePoints maps a letter grade to the 4.0 scale. Unknown letters map to 0.
func GradePoints(letter string) float64 {
	for _, bp := range breakpoints {
		if bp.letter == letter {
			return bp.points
		}
	}
	return 0
}
