package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/coaching-center/backend/internal/grading"
	"github.com/google/uuid"
)

// Component is one sub-exam of a period as seen by the engine.
type Component struct {
	ID       uuid.UUID
	Subject  string
	Title    string
	MaxMarks float64
}

// Score is one submitted component result.
type Score struct {
	ComponentID uuid.UUID
	StudentID   uuid.UUID
	Marks       float64
	Absent      bool
}

// Student is one eligible (actively enrolled) student of the batch.
type Student struct {
	ID          uuid.UUID
	Name        string
	PhoneTarget string
}

// Totals is the aggregator output for one student.
type Totals struct {
	Earned   float64
	Possible float64
}

// SubjectMark is the per-component breakdown carried into the snapshot.
type SubjectMark struct {
	Subject  string  `json:"subject"`
	Title    string  `json:"title"`
	Obtained float64 `json:"obtained"`
	MaxMarks float64 `json:"max_marks"`
	Absent   bool    `json:"absent"`
}

// Row is one computed ranking entry before persistence.
type Row struct {
	StudentID        uuid.UUID
	StudentName      string
	PhoneTarget      string
	EarnedMarks      float64
	PossibleMarks    float64
	AttendanceMarks  float64
	BonusMarks       float64
	FinalTotal       float64
	FinalPossible    float64
	Percentage       float64
	Grade            string
	GradePoint       float64
	Position         int
	PreviousPosition *int
	SubjectMarks     []SubjectMark
}

// Input is everything Assemble needs, already fetched from the store.
type Input struct {
	Components    []Component
	Scores        []Score
	Students      []Student
	Attendance    map[uuid.UUID]int     // present-day count per student
	Bonus         map[uuid.UUID]float64 // additive credit per student
	AttendanceCap float64
	BonusCap      float64
	// PreviousPositions maps student id to their position in the most
	// recent published earlier period of the same batch.
	PreviousPositions map[uuid.UUID]int
}

// ValidateSubmission checks one score entry against its component.
// Violations are rejected, never clamped.
func ValidateSubmission(marks, maxMarks float64, absent bool) error {
	if marks < 0 {
		return validationErrorf("marks cannot be negative")
	}
	if marks > maxMarks {
		return validationErrorf("marks (%.2f) cannot exceed component max marks (%.2f)", marks, maxMarks)
	}
	if absent && marks > 0 {
		return validationErrorf("absent student cannot have positive marks")
	}
	return nil
}

// Aggregate combines a student's component scores into (earned, possible).
// Every component contributes its max marks to possible regardless of
// whether the student sat it; a missing score row counts as absent, so an
// unscored student still appears in the ranking with zero earned marks.
func Aggregate(components []Component, scores []Score, studentID uuid.UUID) Totals {
	byComponent := make(map[uuid.UUID]Score, len(scores))
	for _, s := range scores {
		if s.StudentID == studentID {
			byComponent[s.ComponentID] = s
		}
	}

	var t Totals
	for _, c := range components {
		t.Possible += c.MaxMarks
		if s, ok := byComponent[c.ID]; ok && !s.Absent {
			t.Earned += s.Marks
		}
	}
	return t
}

// Assemble produces the full ordered ranking for a period in one pass.
// Deterministic for fixed inputs: running it twice with unchanged scores,
// attendance and bonus yields an identical row set.
func Assemble(in Input) ([]Row, error) {
	rows := make([]Row, 0, len(in.Students))

	for _, student := range in.Students {
		totals := Aggregate(in.Components, in.Scores, student.ID)
		attendance := float64(in.Attendance[student.ID])
		bonus := in.Bonus[student.ID]

		finalTotal := totals.Earned + attendance + bonus
		finalPossible := totals.Possible + in.AttendanceCap + in.BonusCap

		if finalPossible == 0 && finalTotal > 0 {
			return nil, &ComputationError{
				Reason: "possible total is zero with nonzero earned total",
			}
		}

		percentage := round2(grading.Percentage(finalTotal, finalPossible))
		grade := grading.Map(percentage)

		rows = append(rows, Row{
			StudentID:       student.ID,
			StudentName:     student.Name,
			PhoneTarget:     student.PhoneTarget,
			EarnedMarks:     totals.Earned,
			PossibleMarks:   totals.Possible,
			AttendanceMarks: attendance,
			BonusMarks:      bonus,
			FinalTotal:      finalTotal,
			FinalPossible:   finalPossible,
			Percentage:      percentage,
			Grade:           grade.Letter,
			GradePoint:      grade.GradePoint,
			SubjectMarks:    subjectBreakdown(in.Components, in.Scores, student.ID),
		})
	}

	// Percentage descending, ties broken by display name ascending
	// case-insensitive. The name tie-break is deliberate: positions stay
	// reproducible across runs even on exact percentage ties.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Percentage != rows[j].Percentage {
			return rows[i].Percentage > rows[j].Percentage
		}
		ni, nj := strings.ToLower(rows[i].StudentName), strings.ToLower(rows[j].StudentName)
		if ni != nj {
			return ni < nj
		}
		return rows[i].StudentID.String() < rows[j].StudentID.String()
	})

	for i := range rows {
		rows[i].Position = i + 1
		if prev, ok := in.PreviousPositions[rows[i].StudentID]; ok {
			p := prev
			rows[i].PreviousPosition = &p
		}
	}

	return rows, nil
}

func subjectBreakdown(components []Component, scores []Score, studentID uuid.UUID) []SubjectMark {
	byComponent := make(map[uuid.UUID]Score, len(scores))
	for _, s := range scores {
		if s.StudentID == studentID {
			byComponent[s.ComponentID] = s
		}
	}

	marks := make([]SubjectMark, 0, len(components))
	for _, c := range components {
		sm := SubjectMark{
			Subject:  c.Subject,
			Title:    c.Title,
			MaxMarks: c.MaxMarks,
			Absent:   true,
		}
		if s, ok := byComponent[c.ID]; ok {
			sm.Absent = s.Absent
			if !s.Absent {
				sm.Obtained = s.Marks
			}
		}
		marks = append(marks, sm)
	}
	return marks
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
