package score

// Grade buckets a conversion probability.
type Grade string

const (
	GradeHot     Grade = "Hot"
	GradeWarm    Grade = "Warm"
	GradeCold    Grade = "Cold"
	GradeUnknown Grade = "Unknown"
)

// GradeOf returns the grade bucket for probability p.
func GradeOf(p float64) Grade {
	switch {
	case p >= 0.7:
		return GradeHot
	case p >= 0.4:
		return GradeWarm
	case p >= 0.1:
		return GradeCold
	default:
		return GradeUnknown
	}
}

// Grades maps each probability to its grade.
func Grades(probs []float64) []Grade {
	out := make([]Grade, len(probs))
	for i, p := range probs {
		out[i] = GradeOf(p)
	}
	return out
}
