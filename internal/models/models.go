package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB custom type for JSON fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User represents system users (admin/teacher/student)
type User struct {
	BaseModel
	Email         string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"type:varchar(255);not null" json:"-"`
	Role          string `gorm:"type:varchar(20);not null" json:"role"`
	FullName      string `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone         string `gorm:"type:varchar(50)" json:"phone"`
	GuardianPhone string `gorm:"type:varchar(50)" json:"guardian_phone"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`
	Meta          JSONB  `gorm:"type:json" json:"meta"`
}

// Batch represents one coaching class group
type Batch struct {
	BaseModel
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Subject   string     `gorm:"type:varchar(100)" json:"subject"`
	TeacherID *uuid.UUID `gorm:"type:char(36);index" json:"teacher_id"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	Teacher   *User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// Enrollment links students to batches
type Enrollment struct {
	BaseModel
	StudentID  uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_enrollment_student_batch" json:"student_id"`
	BatchID    uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_enrollment_student_batch" json:"batch_id"`
	Status     string     `gorm:"type:varchar(20);default:'active'" json:"status"`
	EnrolledOn time.Time  `gorm:"type:date" json:"enrolled_on"`
	LeftOn     *time.Time `gorm:"type:date" json:"left_on,omitempty"`
	Student    *User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch      *Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// Attendance status values as recorded by the attendance subsystem.
// The ranking engine only ever counts rows with AttendancePresent.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Attendance is one student's recorded status for one day in a batch
type Attendance struct {
	BaseModel
	StudentID uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_attendance_student_batch_date" json:"student_id"`
	BatchID   uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_attendance_student_batch_date" json:"batch_id"`
	Date      time.Time  `gorm:"type:date;not null;uniqueIndex:idx_attendance_student_batch_date" json:"date"`
	Status    string     `gorm:"type:varchar(20);not null" json:"status"`
	MarkedBy  *uuid.UUID `gorm:"type:char(36)" json:"marked_by,omitempty"`
	Student   *User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch     *Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// PeriodStatus is the publication state of an academic period.
// Closed type: only the two constants below are valid values.
type PeriodStatus string

const (
	PeriodDraft     PeriodStatus = "draft"
	PeriodPublished PeriodStatus = "published"
)

// Valid reports whether s is one of the known states.
func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodDraft, PeriodPublished:
		return true
	}
	return false
}

func (s PeriodStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid period status %q", string(s))
	}
	return string(s), nil
}

func (s *PeriodStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = PeriodStatus(v)
	case []byte:
		*s = PeriodStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PeriodStatus", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid period status %q", string(*s))
	}
	return nil
}

// AcademicPeriod is one batch's monthly ranking cycle.
// TotalMarks and PassMarks are derived from the component exams and
// recalculated whenever components are added or removed.
type AcademicPeriod struct {
	BaseModel
	BatchID       uuid.UUID    `gorm:"type:char(36);not null;uniqueIndex:idx_period_batch_month_year" json:"batch_id"`
	Title         string       `gorm:"type:varchar(255);not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	Month         int          `gorm:"not null;uniqueIndex:idx_period_batch_month_year" json:"month"`
	Year          int          `gorm:"not null;uniqueIndex:idx_period_batch_month_year" json:"year"`
	TotalMarks    float64      `gorm:"not null;default:0" json:"total_marks"`
	PassMarks     float64      `gorm:"not null;default:0" json:"pass_marks"`
	StartDate     time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time    `gorm:"type:date;not null" json:"end_date"`
	AttendanceCap float64      `gorm:"not null;default:30" json:"attendance_cap"`
	BonusCap      float64      `gorm:"not null;default:100" json:"bonus_cap"`
	Status        PeriodStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	CreatedBy     uuid.UUID    `gorm:"type:char(36);not null" json:"created_by"`
	Batch         *Batch       `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// ComponentExam is one sub-exam inside an academic period
type ComponentExam struct {
	BaseModel
	PeriodID   uuid.UUID       `gorm:"type:char(36);not null;index" json:"period_id"`
	Title      string          `gorm:"type:varchar(255);not null" json:"title"`
	Subject    string          `gorm:"type:varchar(100);not null" json:"subject"`
	MaxMarks   float64         `gorm:"not null" json:"max_marks"`
	ExamDate   time.Time       `gorm:"type:date" json:"exam_date"`
	Duration   int             `gorm:"default:60" json:"duration"`
	OrderIndex int             `gorm:"default:0" json:"order_index"`
	Period     *AcademicPeriod `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
}

// ComponentScore is one student's result for one component exam.
// Absent implies MarksObtained == 0; the pair is enforced at submission.
type ComponentScore struct {
	BaseModel
	ComponentID   uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex:idx_score_component_student" json:"component_id"`
	StudentID     uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex:idx_score_component_student" json:"student_id"`
	PeriodID      uuid.UUID      `gorm:"type:char(36);not null;index" json:"period_id"`
	MarksObtained float64        `gorm:"not null" json:"marks_obtained"`
	Absent        bool           `gorm:"default:false" json:"absent"`
	Percentage    float64        `gorm:"not null" json:"percentage"`
	Grade         string         `gorm:"type:varchar(5)" json:"grade"`
	GradePoint    float64        `json:"grade_point"`
	EnteredBy     uuid.UUID      `gorm:"type:char(36);not null" json:"entered_by"`
	Component     *ComponentExam `gorm:"foreignKey:ComponentID" json:"component,omitempty"`
	Student       *User          `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// BonusCredit is teacher-assigned additive credit per (period, student).
// Last write wins; UpdatedBy records who set it.
type BonusCredit struct {
	BaseModel
	PeriodID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bonus_period_student" json:"period_id"`
	StudentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bonus_period_student" json:"student_id"`
	Amount    float64   `gorm:"not null;default:0" json:"amount"`
	UpdatedBy uuid.UUID `gorm:"type:char(36)" json:"updated_by"`
}

// RankingEntry is the computed snapshot row per (period, student).
// Fully derived data: regenerated as a whole from scores, attendance
// and bonus, never edited row by row.
type RankingEntry struct {
	BaseModel
	PeriodID         uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_ranking_period_student" json:"period_id"`
	StudentID        uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_ranking_period_student" json:"student_id"`
	StudentName      string    `gorm:"type:varchar(255);not null" json:"student_name"`
	PhoneTarget      string    `gorm:"type:varchar(50)" json:"phone_target"`
	EarnedMarks      float64   `gorm:"not null;default:0" json:"earned_marks"`
	PossibleMarks    float64   `gorm:"not null;default:0" json:"possible_marks"`
	AttendanceMarks  float64   `gorm:"not null;default:0" json:"attendance_marks"`
	BonusMarks       float64   `gorm:"not null;default:0" json:"bonus_marks"`
	FinalTotal       float64   `gorm:"not null;default:0" json:"final_total"`
	FinalPossible    float64   `gorm:"not null;default:0" json:"final_possible"`
	Percentage       float64   `gorm:"not null;default:0" json:"percentage"`
	Grade            string    `gorm:"type:varchar(5)" json:"grade"`
	GradePoint       float64   `json:"grade_point"`
	Position         int       `gorm:"not null" json:"position"`
	PreviousPosition *int      `json:"previous_position,omitempty"`
	SubjectMarks     JSONB     `gorm:"type:json" json:"subject_marks"`
}

// SmsLog records a rendered notification payload. Delivery belongs to an
// external transport; rows are created in pending state only.
type SmsLog struct {
	BaseModel
	PeriodID       *uuid.UUID `gorm:"type:char(36);index" json:"period_id,omitempty"`
	StudentID      *uuid.UUID `gorm:"type:char(36);index" json:"student_id,omitempty"`
	PhoneNumber    string     `gorm:"type:varchar(50);not null" json:"phone_number"`
	Message        string     `gorm:"type:text;not null" json:"message"`
	WeightedLength int        `gorm:"not null" json:"weighted_length"`
	Status         string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedBy      uuid.UUID  `gorm:"type:char(36)" json:"created_by"`
}

// AuditLog tracks ranking-relevant data changes (bonus edits, publishes)
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ActorUserID  uuid.UUID `gorm:"type:char(36);index" json:"actor_user_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	ResourceType string    `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   uuid.UUID `gorm:"type:char(36);index" json:"resource_id"`
	Before       JSONB     `gorm:"type:json" json:"before"`
	After        JSONB     `gorm:"type:json" json:"after"`
	Timestamp    time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
