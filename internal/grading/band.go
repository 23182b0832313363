package grading

type gradeBand struct {
	min    float64
	letter string
}

// bands are ordered highest threshold first.
var bands = []gradeBand{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// FailingGrade is returned for any percentage below the lowest band, and for NaN.
const FailingGrade = "F"

// Band maps a percentage to a letter grade.
func Band(percentage float64) string {
	for _, b := range bands {
		if percentage >= b.min {
			return b.letter
		}
	}
	return FailingGrade
}
