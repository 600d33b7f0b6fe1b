package sms

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
)

// TemplateConfig is the explicit wording configuration for result
// notifications. It is passed into the builder rather than read from any
// ambient per-session state.
type TemplateConfig struct {
	// Result is the primary template. Placeholders: {student_name},
	// {exam_title}, {marks}, {total}, {subject_marks}, {percentage},
	// {grade}, {position}.
	Result string
	// ShortResult is the fallback used when the rendered primary message
	// exceeds the weighted length limit.
	ShortResult string
}

// DefaultTemplates returns the stock wording.
func DefaultTemplates() TemplateConfig {
	return TemplateConfig{
		Result:      "Dear Parent, {student_name} scored {marks}/{total} in {exam_title} ({subject_marks}). Percentage: {percentage}%, Grade: {grade}, Position: {position}.",
		ShortResult: "{student_name}: {marks}/{total} in {exam_title} ({grade})",
	}
}

// Payload is one rendered notification. The engine only decides whether
// and with what content a notification is produced; delivery and any
// multi-part splitting belong to the external transport, which uses
// WeightedLength to make that call.
type Payload struct {
	StudentID      uuid.UUID `json:"student_id"`
	PhoneTarget    string    `json:"phone_target"`
	Message        string    `json:"message"`
	WeightedLength int       `json:"weighted_length"`
	Parts          int       `json:"parts"`
}

// Builder renders notification payloads from ranking entries.
type Builder struct {
	templates TemplateConfig
	maxLen    int
}

func NewBuilder(templates TemplateConfig, maxWeightedLen int) *Builder {
	if templates.Result == "" {
		templates = DefaultTemplates()
	}
	if maxWeightedLen <= 0 {
		maxWeightedLen = 160
	}
	return &Builder{templates: templates, maxLen: maxWeightedLen}
}

// Build renders the payload for one ranking entry. Entries without a
// normalizable phone target yield an error; the caller decides whether
// to skip or abort.
func (b *Builder) Build(entry models.RankingEntry, examTitle string) (*Payload, error) {
	phone, ok := NormalizePhone(entry.PhoneTarget)
	if !ok {
		return nil, fmt.Errorf("no valid phone number for %s", entry.StudentName)
	}

	message := render(b.templates.Result, entry, examTitle)
	if WeightedLength(message) > b.maxLen {
		message = render(b.templates.ShortResult, entry, examTitle)
	}

	weighted := WeightedLength(message)
	return &Payload{
		StudentID:      entry.StudentID,
		PhoneTarget:    phone,
		Message:        message,
		WeightedLength: weighted,
		Parts:          parts(weighted, b.maxLen),
	}, nil
}

// BuildAll renders payloads for a full snapshot, collecting per-entry
// failures (typically missing phone numbers) instead of aborting.
func (b *Builder) BuildAll(entries []models.RankingEntry, examTitle string) ([]Payload, []string) {
	payloads := make([]Payload, 0, len(entries))
	var skipped []string
	for _, entry := range entries {
		p, err := b.Build(entry, examTitle)
		if err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		payloads = append(payloads, *p)
	}
	return payloads, skipped
}

func render(template string, entry models.RankingEntry, examTitle string) string {
	return strings.NewReplacer(
		"{student_name}", firstName(entry.StudentName),
		"{full_name}", entry.StudentName,
		"{exam_title}", examTitle,
		"{marks}", trimFloat(entry.FinalTotal),
		"{total}", trimFloat(entry.FinalPossible),
		"{subject_marks}", subjectMarksSummary(entry.SubjectMarks),
		"{percentage}", fmt.Sprintf("%.2f", entry.Percentage),
		"{grade}", entry.Grade,
		"{position}", fmt.Sprintf("%d", entry.Position),
	).Replace(template)
}

// subjectMarksSummary flattens the per-subject breakdown into message
// text, e.g. "Math 45/50, Science 40/50". Subjects sort alphabetically
// so the wording is stable across renders.
func subjectMarksSummary(marks models.JSONB) string {
	subjects := make([]string, 0, len(marks))
	for subject := range marks {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	parts := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		detail, ok := marks[subject].(map[string]interface{})
		if !ok {
			continue
		}
		if absent, _ := detail["absent"].(bool); absent {
			parts = append(parts, subject+" absent")
			continue
		}
		obtained, _ := detail["obtained"].(float64)
		maxMarks, _ := detail["max_marks"].(float64)
		parts = append(parts, fmt.Sprintf("%s %s/%s", subject, trimFloat(obtained), trimFloat(maxMarks)))
	}
	return strings.Join(parts, ", ")
}

// WeightedLength counts message characters for channel budgeting:
// Bengali characters (U+0980 to U+09FF) weigh 2, everything else 1.
func WeightedLength(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0x0980 && r <= 0x09FF {
			count += 2
		} else {
			count++
		}
	}
	return count
}

var nonDigits = regexp.MustCompile(`[^\d]`)

// NormalizePhone validates and formats a Bangladesh mobile number: the
// country code is stripped and the result must be 11 digits starting 01.
func NormalizePhone(phone string) (string, bool) {
	digits := nonDigits.ReplaceAllString(phone, "")
	digits = strings.TrimPrefix(digits, "880")

	if len(digits) == 11 && strings.HasPrefix(digits, "01") {
		return digits, true
	}
	return "", false
}

func parts(weighted, maxLen int) int {
	if weighted == 0 {
		return 0
	}
	return (weighted + maxLen - 1) / maxLen
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
