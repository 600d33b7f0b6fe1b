package grading

// Grade cutoffs follow the center's fixed monthly scale. Lower bounds are
// inclusive; the table is monotonic and non-overlapping.
//
//	>=80 A+  5.0
//	>=70 A   4.0
//	>=60 A-  3.5
//	>=50 B   3.0
//	>=40 C   2.0
//	>=33 D   1.0
//	else F   0.0

// Result holds the mapped grade for a percentage
type Result struct {
	Letter     string
	GradePoint float64
}

// Clamp bounds a percentage to [0, 100]. Out-of-range inputs are clamped
// to the nearest valid bound rather than rejected; Map always applies it.
func Clamp(percentage float64) float64 {
	if percentage < 0 {
		return 0
	}
	if percentage > 100 {
		return 100
	}
	return percentage
}

// Map converts a percentage into a letter grade and grade point.
// Pure and total: any float input yields a valid grade after clamping.
func Map(percentage float64) Result {
	p := Clamp(percentage)

	switch {
	case p >= 80:
		return Result{"A+", 5.0}
	case p >= 70:
		return Result{"A", 4.0}
	case p >= 60:
		return Result{"A-", 3.5}
	case p >= 50:
		return Result{"B", 3.0}
	case p >= 40:
		return Result{"C", 2.0}
	case p >= 33:
		return Result{"D", 1.0}
	default:
		return Result{"F", 0.0}
	}
}

// Percentage computes obtained/total*100 guarded against a zero total.
func Percentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return obtained / total * 100
}
