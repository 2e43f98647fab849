package domain

// Grade represents the user's judgment of recall difficulty for a single
// graded review.
type Grade string

// Possible grade values.
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// qualityByGrade maps each grade to its ordinal quality on the 0-5 scale
// used by the SM-2 family of algorithms. A quality below 3 is a lapse.
var qualityByGrade = map[Grade]int{
	GradeAgain: 0,
	GradeHard:  3,
	GradeGood:  4,
	GradeEasy:  5,
}

// IsValid reports whether g is one of the four supported grades.
func (g Grade) IsValid() bool {
	_, ok := qualityByGrade[g]
	return ok
}

// Quality returns the ordinal quality value for the grade on the 0-5 scale.
// Calling Quality on an invalid grade returns 0; callers must reject
// malformed grades at the boundary before grading.
func (g Grade) Quality() int {
	return qualityByGrade[g]
}

// String returns the wire representation of the grade.
func (g Grade) String() string {
	return string(g)
}
