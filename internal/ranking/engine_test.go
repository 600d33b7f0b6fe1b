package ranking

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name     string
		marks    float64
		maxMarks float64
		absent   bool
		wantErr  bool
	}{
		{"valid full marks", 50, 50, false, false},
		{"valid zero marks", 0, 50, false, false},
		{"valid absent", 0, 50, true, false},
		{"negative marks", -1, 50, false, true},
		{"marks exceed max", 50.5, 50, false, true},
		{"absent with positive marks", 10, 50, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmission(tt.marks, tt.maxMarks, tt.absent)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubmission(%v, %v, %v) error = %v, wantErr %v",
					tt.marks, tt.maxMarks, tt.absent, err, tt.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected *ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	math := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 50}
	science := Component{ID: uuid.New(), Subject: "Science", Title: "Science Weekly", MaxMarks: 50}
	components := []Component{math, science}

	studentA := uuid.New()
	studentB := uuid.New()
	studentC := uuid.New()

	scores := []Score{
		{ComponentID: math.ID, StudentID: studentA, Marks: 45},
		{ComponentID: science.ID, StudentID: studentA, Marks: 40},
		{ComponentID: math.ID, StudentID: studentB, Absent: true},
		{ComponentID: science.ID, StudentID: studentB, Marks: 48},
	}

	tests := []struct {
		name    string
		student uuid.UUID
		want    Totals
	}{
		{"both components scored", studentA, Totals{Earned: 85, Possible: 100}},
		{"absent excluded from earned not possible", studentB, Totals{Earned: 48, Possible: 100}},
		{"no score rows counts as absent everywhere", studentC, Totals{Earned: 0, Possible: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(components, scores, tt.student)
			if got != tt.want {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAssembleMonthlyScenario(t *testing.T) {
	math := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 50}
	science := Component{ID: uuid.New(), Subject: "Science", Title: "Science Weekly", MaxMarks: 50}

	alice := Student{ID: uuid.New(), Name: "Alice Rahman", PhoneTarget: "01711111111"}
	babul := Student{ID: uuid.New(), Name: "Babul Khan", PhoneTarget: "01722222222"}

	in := Input{
		Components: []Component{math, science},
		Scores: []Score{
			{ComponentID: math.ID, StudentID: alice.ID, Marks: 45},
			{ComponentID: science.ID, StudentID: alice.ID, Marks: 40},
			{ComponentID: math.ID, StudentID: babul.ID, Absent: true},
			{ComponentID: science.ID, StudentID: babul.ID, Marks: 48},
		},
		Students:      []Student{alice, babul},
		Attendance:    map[uuid.UUID]int{alice.ID: 20, babul.ID: 25},
		Bonus:         map[uuid.UUID]float64{alice.ID: 5},
		AttendanceCap: 30,
		BonusCap:      100,
	}

	rows, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Assemble() returned %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.StudentID != alice.ID {
		t.Fatalf("position 1 = %s, want Alice", first.StudentName)
	}
	if first.FinalTotal != 110 || first.FinalPossible != 230 {
		t.Errorf("Alice totals = %v/%v, want 110/230", first.FinalTotal, first.FinalPossible)
	}
	if first.Percentage != 47.83 {
		t.Errorf("Alice percentage = %v, want 47.83", first.Percentage)
	}
	if first.Grade != "C" || first.GradePoint != 2.0 {
		t.Errorf("Alice grade = %s/%v, want C/2.0", first.Grade, first.GradePoint)
	}
	if first.Position != 1 {
		t.Errorf("Alice position = %d, want 1", first.Position)
	}

	second := rows[1]
	if second.StudentID != babul.ID {
		t.Fatalf("position 2 = %s, want Babul", second.StudentName)
	}
	if second.EarnedMarks != 48 || second.FinalTotal != 73 {
		t.Errorf("Babul totals = earned %v final %v, want 48 and 73", second.EarnedMarks, second.FinalTotal)
	}
	if second.Position != 2 {
		t.Errorf("Babul position = %d, want 2", second.Position)
	}

	breakdown := second.SubjectMarks
	if len(breakdown) != 2 {
		t.Fatalf("Babul breakdown has %d entries, want 2", len(breakdown))
	}
	if !breakdown[0].Absent || breakdown[0].Obtained != 0 {
		t.Errorf("Babul Math breakdown = %+v, want absent with zero obtained", breakdown[0])
	}
	if breakdown[1].Absent || breakdown[1].Obtained != 48 {
		t.Errorf("Babul Science breakdown = %+v, want 48 obtained", breakdown[1])
	}
}

func TestAssembleBonusChangesOrder(t *testing.T) {
	exam := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 100}
	a := Student{ID: uuid.New(), Name: "Asha"}
	b := Student{ID: uuid.New(), Name: "Bithi"}

	in := Input{
		Components: []Component{exam},
		Scores: []Score{
			{ComponentID: exam.ID, StudentID: a.ID, Marks: 70},
			{ComponentID: exam.ID, StudentID: b.ID, Marks: 75},
		},
		Students:      []Student{a, b},
		Attendance:    map[uuid.UUID]int{},
		Bonus:         map[uuid.UUID]float64{},
		AttendanceCap: 30,
		BonusCap:      100,
	}

	rows, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if rows[0].StudentID != b.ID {
		t.Fatalf("without bonus, position 1 = %s, want Bithi", rows[0].StudentName)
	}

	in.Bonus[a.ID] = 10
	rows, err = Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() after bonus error = %v", err)
	}
	if rows[0].StudentID != a.ID {
		t.Errorf("after bonus, position 1 = %s, want Asha", rows[0].StudentName)
	}
	if rows[0].FinalTotal != 80 {
		t.Errorf("Asha final total = %v, want 80", rows[0].FinalTotal)
	}
}

func TestAssembleTieBreakByName(t *testing.T) {
	exam := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 100}
	zara := Student{ID: uuid.New(), Name: "zara"}
	anik := Student{ID: uuid.New(), Name: "Anik"}
	milon := Student{ID: uuid.New(), Name: "Milon"}

	in := Input{
		Components: []Component{exam},
		Scores: []Score{
			{ComponentID: exam.ID, StudentID: zara.ID, Marks: 60},
			{ComponentID: exam.ID, StudentID: anik.ID, Marks: 60},
			{ComponentID: exam.ID, StudentID: milon.ID, Marks: 60},
		},
		Students:      []Student{zara, milon, anik},
		Attendance:    map[uuid.UUID]int{},
		Bonus:         map[uuid.UUID]float64{},
		AttendanceCap: 0,
		BonusCap:      0,
	}

	rows, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// All tied at 60%: name order decides, case-insensitively.
	wantOrder := []string{"Anik", "Milon", "zara"}
	for i, name := range wantOrder {
		if rows[i].StudentName != name {
			t.Errorf("position %d = %s, want %s", i+1, rows[i].StudentName, name)
		}
		if rows[i].Position != i+1 {
			t.Errorf("position field = %d, want %d", rows[i].Position, i+1)
		}
	}
}

func TestAssembleDeterministic(t *testing.T) {
	exam := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 100}
	students := []Student{
		{ID: uuid.New(), Name: "Karim"},
		{ID: uuid.New(), Name: "Rahim"},
		{ID: uuid.New(), Name: "Salma"},
	}

	in := Input{
		Components: []Component{exam},
		Scores: []Score{
			{ComponentID: exam.ID, StudentID: students[0].ID, Marks: 55},
			{ComponentID: exam.ID, StudentID: students[1].ID, Marks: 55},
			{ComponentID: exam.ID, StudentID: students[2].ID, Marks: 90},
		},
		Students:      students,
		Attendance:    map[uuid.UUID]int{students[2].ID: 10},
		Bonus:         map[uuid.UUID]float64{},
		AttendanceCap: 30,
		BonusCap:      0,
	}

	first, err := Assemble(in)
	if err != nil {
		t.Fatalf("first Assemble() error = %v", err)
	}
	second, err := Assemble(in)
	if err != nil {
		t.Fatalf("second Assemble() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Assemble() with unchanged input produced different rows")
	}
}

func TestAssembleZeroPossible(t *testing.T) {
	s := Student{ID: uuid.New(), Name: "Noor"}

	t.Run("all zero yields zero percentage", func(t *testing.T) {
		rows, err := Assemble(Input{
			Students:   []Student{s},
			Attendance: map[uuid.UUID]int{},
			Bonus:      map[uuid.UUID]float64{},
		})
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if rows[0].Percentage != 0 || rows[0].Grade != "F" {
			t.Errorf("row = %v%% grade %s, want 0%% grade F", rows[0].Percentage, rows[0].Grade)
		}
	})

	t.Run("nonzero total with zero possible is a computation error", func(t *testing.T) {
		_, err := Assemble(Input{
			Students:   []Student{s},
			Attendance: map[uuid.UUID]int{s.ID: 5},
			Bonus:      map[uuid.UUID]float64{},
		})
		var ce *ComputationError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *ComputationError, got %v", err)
		}
	})
}

func TestAssemblePreviousPositions(t *testing.T) {
	exam := Component{ID: uuid.New(), Subject: "Math", Title: "Math Weekly", MaxMarks: 100}
	riser := Student{ID: uuid.New(), Name: "Riser"}
	newcomer := Student{ID: uuid.New(), Name: "Newcomer"}

	in := Input{
		Components: []Component{exam},
		Scores: []Score{
			{ComponentID: exam.ID, StudentID: riser.ID, Marks: 90},
			{ComponentID: exam.ID, StudentID: newcomer.ID, Marks: 80},
		},
		Students:          []Student{riser, newcomer},
		Attendance:        map[uuid.UUID]int{},
		Bonus:             map[uuid.UUID]float64{},
		PreviousPositions: map[uuid.UUID]int{riser.ID: 4},
	}

	rows, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	for _, row := range rows {
		switch row.StudentID {
		case riser.ID:
			if row.PreviousPosition == nil || *row.PreviousPosition != 4 {
				t.Errorf("riser previous position = %v, want 4", row.PreviousPosition)
			}
		case newcomer.ID:
			if row.PreviousPosition != nil {
				t.Errorf("newcomer previous position = %v, want nil", *row.PreviousPosition)
			}
		}
	}
}
