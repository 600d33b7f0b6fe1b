package grading

import (
	"testing"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		letter     string
		gradePoint float64
	}{
		{"Perfect Score", 100, "A+", 5.0},
		{"A+ Lower Bound", 80, "A+", 5.0},
		{"Just Below A+", 79.99, "A", 4.0},
		{"A Lower Bound", 70, "A", 4.0},
		{"A- Lower Bound", 60, "A-", 3.5},
		{"B Lower Bound", 50, "B", 3.0},
		{"C Lower Bound", 40, "C", 2.0},
		{"D Lower Bound", 33, "D", 1.0},
		{"Just Below D", 32.99, "F", 0.0},
		{"Zero", 0, "F", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.percentage)
			if got.Letter != tt.letter || got.GradePoint != tt.gradePoint {
				t.Errorf("Map(%.2f) = (%s, %.2f), want (%s, %.2f)",
					tt.percentage, got.Letter, got.GradePoint, tt.letter, tt.gradePoint)
			}
		})
	}
}

func TestMapClampsOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		letter     string
	}{
		{"Negative", -15, "F"},
		{"Above Hundred", 140, "A+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.percentage)
			if got.Letter != tt.letter {
				t.Errorf("Map(%.2f) = %s, want %s", tt.percentage, got.Letter, tt.letter)
			}
		})
	}
}

func TestMapMonotonic(t *testing.T) {
	// Grade points must never decrease as percentage rises.
	prev := Map(0).GradePoint
	for p := 0.5; p <= 100; p += 0.5 {
		gp := Map(p).GradePoint
		if gp < prev {
			t.Fatalf("grade point decreased at %.1f: %.2f -> %.2f", p, prev, gp)
		}
		prev = gp
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		obtained float64
		total    float64
		want     float64
	}{
		{"Half", 50, 100, 50},
		{"Zero Total", 10, 0, 0},
		{"Negative Total", 10, -5, 0},
		{"Full", 230, 230, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.obtained, tt.total); got != tt.want {
				t.Errorf("Percentage(%.0f, %.0f) = %.2f, want %.2f", tt.obtained, tt.total, got, tt.want)
			}
		})
	}
}
