package sms

import (
	"strings"
	"testing"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
)

func TestWeightedLength(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii only", "Hello", 5},
		{"bengali weighs double", "মা", 4},
		{"mixed script", "Hi মা", 7},
		{"digits and punctuation", "45/50 (90%)", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeightedLength(tt.text); got != tt.want {
				t.Errorf("WeightedLength(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain local number", "01712345678", "01712345678", true},
		{"country code prefix", "8801712345678", "01712345678", true},
		{"plus and spaces", "+880 1712-345678", "01712345678", true},
		{"too short", "0171234567", "", false},
		{"wrong leading digits", "02712345678", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NormalizePhone(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBuildRendersTemplate(t *testing.T) {
	b := NewBuilder(DefaultTemplates(), 300)
	entry := models.RankingEntry{
		StudentID:     uuid.New(),
		StudentName:   "Alice Rahman",
		PhoneTarget:   "+8801711111111",
		FinalTotal:    110,
		FinalPossible: 230,
		Percentage:    47.83,
		Grade:         "C",
		Position:      1,
		SubjectMarks: models.JSONB{
			"Math":    map[string]interface{}{"obtained": 45.0, "max_marks": 50.0, "absent": false},
			"Science": map[string]interface{}{"obtained": 40.0, "max_marks": 50.0, "absent": false},
		},
	}

	p, err := b.Build(entry, "March Monthly Ranking")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if p.PhoneTarget != "01711111111" {
		t.Errorf("phone = %q, want normalized 01711111111", p.PhoneTarget)
	}
	for _, fragment := range []string{"Alice", "110/230", "March Monthly Ranking", "Math 45/50, Science 40/50", "47.83%", "Grade: C", "Position: 1"} {
		if !strings.Contains(p.Message, fragment) {
			t.Errorf("message %q missing %q", p.Message, fragment)
		}
	}
	if strings.Contains(p.Message, "{") {
		t.Errorf("message %q contains unexpanded placeholder", p.Message)
	}
	if p.WeightedLength != WeightedLength(p.Message) {
		t.Errorf("weighted length %d does not match message", p.WeightedLength)
	}
	if p.Parts != 1 {
		t.Errorf("parts = %d, want 1", p.Parts)
	}
}

func TestBuildFallsBackToShortTemplate(t *testing.T) {
	templates := TemplateConfig{
		Result:      strings.Repeat("x", 200) + " {student_name}",
		ShortResult: "{student_name}: {marks}/{total} ({grade})",
	}
	b := NewBuilder(templates, 160)
	entry := models.RankingEntry{
		StudentName:   "Babul Khan",
		PhoneTarget:   "01722222222",
		FinalTotal:    73,
		FinalPossible: 230,
		Grade:         "F",
	}

	p, err := b.Build(entry, "March")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Message != "Babul: 73/230 (F)" {
		t.Errorf("message = %q, want short fallback", p.Message)
	}
}

func TestBuildRejectsInvalidPhone(t *testing.T) {
	b := NewBuilder(DefaultTemplates(), 160)
	entry := models.RankingEntry{StudentName: "Ghost Student", PhoneTarget: "not-a-phone"}

	if _, err := b.Build(entry, "March"); err == nil {
		t.Fatal("Build() with invalid phone should fail")
	}
}

func TestBuildAllSkipsBadEntries(t *testing.T) {
	b := NewBuilder(DefaultTemplates(), 300)
	entries := []models.RankingEntry{
		{StudentName: "Alice Rahman", PhoneTarget: "01711111111", Position: 1},
		{StudentName: "No Phone", PhoneTarget: "", Position: 2},
		{StudentName: "Babul Khan", PhoneTarget: "8801722222222", Position: 3},
	}

	payloads, skipped := b.BuildAll(entries, "March")
	if len(payloads) != 2 {
		t.Fatalf("BuildAll() produced %d payloads, want 2", len(payloads))
	}
	if len(skipped) != 1 || !strings.Contains(skipped[0], "No Phone") {
		t.Errorf("skipped = %v, want one entry naming the phoneless student", skipped)
	}
}

func TestSubjectMarksSummary(t *testing.T) {
	tests := []struct {
		name  string
		marks models.JSONB
		want  string
	}{
		{"empty", models.JSONB{}, ""},
		{
			"alphabetical order",
			models.JSONB{
				"Science": map[string]interface{}{"obtained": 40.0, "max_marks": 50.0, "absent": false},
				"Math":    map[string]interface{}{"obtained": 45.0, "max_marks": 50.0, "absent": false},
			},
			"Math 45/50, Science 40/50",
		},
		{
			"absent component named",
			models.JSONB{
				"Math":    map[string]interface{}{"obtained": 0.0, "max_marks": 50.0, "absent": true},
				"Science": map[string]interface{}{"obtained": 48.0, "max_marks": 50.0, "absent": false},
			},
			"Math absent, Science 48/50",
		},
		{
			"fractional marks trimmed",
			models.JSONB{
				"Math": map[string]interface{}{"obtained": 42.5, "max_marks": 50.0, "absent": false},
			},
			"Math 42.5/50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subjectMarksSummary(tt.marks); got != tt.want {
				t.Errorf("subjectMarksSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{110, "110"},
		{47.5, "47.5"},
		{47.83, "47.83"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := trimFloat(tt.in); got != tt.want {
			t.Errorf("trimFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
