package ranking

import (
	"errors"
	"fmt"
	"time"

	"github.com/coaching-center/backend/internal/config"
	"github.com/coaching-center/backend/internal/grading"
	"github.com/coaching-center/backend/internal/metrics"
	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns the monthly ranking lifecycle: period and component
// management, score submission, recompute, publication and snapshots.
// Recompute and publish are serialized per period id.
type Service struct {
	db         *gorm.DB
	cfg        *config.Config
	attendance AttendanceGateway
	bonus      *BonusLedger
	locks      *periodLocks
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:         db,
		cfg:        cfg,
		attendance: NewAttendanceGateway(db),
		bonus:      NewBonusLedger(db),
		locks:      newPeriodLocks(),
	}
}

// Bonus exposes the ledger for read paths.
func (s *Service) Bonus() *BonusLedger {
	return s.bonus
}

// CreatePeriodRequest opens a new monthly cycle for a batch.
type CreatePeriodRequest struct {
	BatchID     uuid.UUID
	Title       string
	Description string
	Month       int
	Year        int
	CreatedBy   uuid.UUID
}

// CreatePeriod opens one (batch, month, year) ranking cycle. The period's
// attendance and bonus caps are copied from deployment config so the
// possible-total is recorded explicitly on the row.
func (s *Service) CreatePeriod(req CreatePeriodRequest) (*models.AcademicPeriod, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, validationErrorf("month must be between 1 and 12")
	}
	if req.Year < 2020 || req.Year > 2100 {
		return nil, validationErrorf("year %d is out of range", req.Year)
	}
	if req.Title == "" {
		return nil, validationErrorf("title is required")
	}

	var batch models.Batch
	if err := s.db.First(&batch, "id = ?", req.BatchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "batch"}
		}
		return nil, err
	}

	var existing models.AcademicPeriod
	err := s.db.Where("batch_id = ? AND month = ? AND year = ?", req.BatchID, req.Month, req.Year).
		First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Reason: "period already exists for this month"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	period := &models.AcademicPeriod{
		BatchID:       req.BatchID,
		Title:         req.Title,
		Description:   req.Description,
		Month:         req.Month,
		Year:          req.Year,
		StartDate:     start,
		EndDate:       end,
		AttendanceCap: s.cfg.Ranking.AttendanceCap,
		BonusCap:      s.cfg.Ranking.BonusCap,
		Status:        models.PeriodDraft,
		CreatedBy:     req.CreatedBy,
	}
	if err := s.db.Create(period).Error; err != nil {
		return nil, err
	}
	return period, nil
}

func (s *Service) GetPeriod(periodID uuid.UUID) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	if err := s.db.Preload("Batch").First(&period, "id = ?", periodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "period"}
		}
		return nil, err
	}
	return &period, nil
}

// ComponentRequest adds one sub-exam to a draft period.
type ComponentRequest struct {
	Title    string
	Subject  string
	MaxMarks float64
	ExamDate time.Time
	Duration int
}

// AddComponent appends a component exam and recalculates the period's
// derived total (pass marks stay at 33% of the total).
func (s *Service) AddComponent(periodID uuid.UUID, req ComponentRequest) (*models.ComponentExam, error) {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDraft(period); err != nil {
		return nil, err
	}
	if req.Title == "" || req.Subject == "" {
		return nil, validationErrorf("title and subject are required")
	}
	if req.MaxMarks <= 0 {
		return nil, validationErrorf("max marks must be positive")
	}

	examDate := req.ExamDate
	if examDate.IsZero() || examDate.Before(period.StartDate) || examDate.After(period.EndDate) {
		examDate = period.StartDate
	}
	duration := req.Duration
	if duration <= 0 {
		duration = 60
	}

	var maxOrder int
	s.db.Model(&models.ComponentExam{}).
		Where("period_id = ?", periodID).
		Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)

	component := &models.ComponentExam{
		PeriodID:   periodID,
		Title:      req.Title,
		Subject:    req.Subject,
		MaxMarks:   req.MaxMarks,
		ExamDate:   examDate,
		Duration:   duration,
		OrderIndex: maxOrder + 1,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(component).Error; err != nil {
			return err
		}
		return recalcPeriodTotals(tx, periodID)
	})
	if err != nil {
		return nil, err
	}
	return component, nil
}

// DeleteComponent removes a score-free component and recalculates the
// period total. Components with submitted scores cannot be deleted: no
// orphaned scores.
func (s *Service) DeleteComponent(periodID, componentID uuid.UUID) error {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(period); err != nil {
		return err
	}

	var component models.ComponentExam
	if err := s.db.Where("id = ? AND period_id = ?", componentID, periodID).First(&component).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "component exam"}
		}
		return err
	}

	var scoreCount int64
	if err := s.db.Model(&models.ComponentScore{}).Where("component_id = ?", componentID).Count(&scoreCount).Error; err != nil {
		return err
	}
	if scoreCount > 0 {
		return &ConflictError{Reason: "cannot delete component: scores have been entered for it"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&component).Error; err != nil {
			return err
		}
		return recalcPeriodTotals(tx, periodID)
	})
}

func (s *Service) ListComponents(periodID uuid.UUID) ([]models.ComponentExam, error) {
	if _, err := s.GetPeriod(periodID); err != nil {
		return nil, err
	}
	var components []models.ComponentExam
	err := s.db.Where("period_id = ?", periodID).Order("order_index").Find(&components).Error
	return components, err
}

// ScoreSubmission is one student's mark for one component.
type ScoreSubmission struct {
	StudentID     uuid.UUID
	MarksObtained float64
	Absent        bool
}

// SubmitScores upserts component scores in one transaction. Every entry
// is validated first; a single bad entry rejects the whole batch so a
// partial submission never reaches the store.
func (s *Service) SubmitScores(periodID, componentID uuid.UUID, entries []ScoreSubmission, enteredBy uuid.UUID) ([]models.ComponentScore, error) {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDraft(period); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, validationErrorf("at least one score entry is required")
	}

	var component models.ComponentExam
	if err := s.db.Where("id = ?", componentID).First(&component).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "component exam"}
		}
		return nil, err
	}
	if component.PeriodID != periodID {
		return nil, validationErrorf("component exam does not belong to this period")
	}

	for i, e := range entries {
		if err := ValidateSubmission(e.MarksObtained, component.MaxMarks, e.Absent); err != nil {
			return nil, validationErrorf("entry %d: %v", i+1, err)
		}
		var student models.User
		if err := s.db.Where("id = ? AND role = ?", e.StudentID, "student").First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Resource: "student"}
			}
			return nil, err
		}
	}

	saved := make([]models.ComponentScore, 0, len(entries))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			percentage := round2(grading.Percentage(e.MarksObtained, component.MaxMarks))
			grade := grading.Map(percentage)

			var score models.ComponentScore
			err := tx.Where("component_id = ? AND student_id = ?", componentID, e.StudentID).First(&score).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				score = models.ComponentScore{
					ComponentID: componentID,
					StudentID:   e.StudentID,
					PeriodID:    periodID,
				}
			} else if err != nil {
				return err
			}

			score.MarksObtained = e.MarksObtained
			score.Absent = e.Absent
			score.Percentage = percentage
			score.Grade = grade.Letter
			score.GradePoint = grade.GradePoint
			score.EnteredBy = enteredBy
			if e.Absent {
				score.MarksObtained = 0
				score.Percentage = 0
				score.Grade = ""
				score.GradePoint = 0
			}

			if err := tx.Save(&score).Error; err != nil {
				return err
			}
			saved = append(saved, score)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScoreSubmissionsTotal.Add(float64(len(saved)))
	return saved, nil
}

// SetBonus records additive credit for one student; last write wins.
func (s *Service) SetBonus(periodID, studentID uuid.UUID, amount float64, updatedBy uuid.UUID) error {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(period); err != nil {
		return err
	}
	return s.bonus.Set(periodID, studentID, amount, updatedBy)
}

// ComputeRanking regenerates the full ranking snapshot for a period and
// replaces the stored entry set atomically: a failure anywhere leaves the
// prior snapshot untouched. Serialized per period.
func (s *Service) ComputeRanking(periodID uuid.UUID) ([]models.RankingEntry, error) {
	release := s.locks.acquire(periodID)
	defer release()

	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDraft(period); err != nil {
		return nil, err
	}

	var batch models.Batch
	if err := s.db.First(&batch, "id = ?", period.BatchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "batch"}
		}
		return nil, err
	}

	input, err := s.loadInput(period)
	if err != nil {
		return nil, err
	}

	rows, err := Assemble(*input)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RankingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(periodID, row))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Hard delete: the unique (period, student) index must be free
		// for the replacement rows.
		if err := tx.Unscoped().Where("period_id = ?", periodID).Delete(&models.RankingEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 100).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace ranking entries: %w", err)
	}

	metrics.RecomputesTotal.Inc()
	return entries, nil
}

// Publish flips the one-way publication gate. A second publish is
// rejected; there is no way back to draft.
func (s *Service) Publish(periodID uuid.UUID) (*models.AcademicPeriod, error) {
	release := s.locks.acquire(periodID)
	defer release()

	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if err := MarkPublished(period, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.db.Save(period).Error; err != nil {
		return nil, err
	}

	metrics.PublicationsTotal.Inc()
	return period, nil
}

// Snapshot returns the stored ordered ranking. With a student id it
// returns only that student's row plus a window of two positions either
// side, matching what a student caller is allowed to see.
func (s *Service) Snapshot(periodID uuid.UUID, studentID *uuid.UUID) ([]models.RankingEntry, error) {
	if _, err := s.GetPeriod(periodID); err != nil {
		return nil, err
	}

	var entries []models.RankingEntry
	if err := s.db.Where("period_id = ?", periodID).Order("position").Find(&entries).Error; err != nil {
		return nil, err
	}

	if studentID == nil {
		return entries, nil
	}

	var own *models.RankingEntry
	for i := range entries {
		if entries[i].StudentID == *studentID {
			own = &entries[i]
			break
		}
	}
	if own == nil {
		return nil, &NotFoundError{Resource: "ranking entry for student"}
	}

	window := make([]models.RankingEntry, 0, 5)
	for _, e := range entries {
		if abs(e.Position-own.Position) <= 2 {
			window = append(window, e)
		}
	}
	return window, nil
}

// MeritList returns the top performers of a period.
func (s *Service) MeritList(periodID uuid.UUID, top int) ([]models.RankingEntry, error) {
	if top <= 0 {
		top = 10
	}
	entries, err := s.Snapshot(periodID, nil)
	if err != nil {
		return nil, err
	}
	if len(entries) > top {
		entries = entries[:top]
	}
	return entries, nil
}

// Analytics summarizes a period's stored snapshot.
type Analytics struct {
	TotalStudents     int            `json:"total_students"`
	AveragePercentage float64        `json:"average_percentage"`
	HighestPercentage float64        `json:"highest_percentage"`
	LowestPercentage  float64        `json:"lowest_percentage"`
	PassedCount       int            `json:"passed_count"`
	FailedCount       int            `json:"failed_count"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// ComputeAnalytics aggregates the stored ranking entries. Pass/fail uses
// the period's derived pass marks against earned component marks.
func (s *Service) ComputeAnalytics(periodID uuid.UUID) (*Analytics, error) {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	entries, err := s.Snapshot(periodID, nil)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &NotFoundError{Resource: "ranking snapshot"}
	}

	a := &Analytics{
		TotalStudents:     len(entries),
		LowestPercentage:  entries[0].Percentage,
		GradeDistribution: make(map[string]int),
	}
	var sum float64
	for _, e := range entries {
		sum += e.Percentage
		if e.Percentage > a.HighestPercentage {
			a.HighestPercentage = e.Percentage
		}
		if e.Percentage < a.LowestPercentage {
			a.LowestPercentage = e.Percentage
		}
		if e.EarnedMarks >= period.PassMarks {
			a.PassedCount++
		} else {
			a.FailedCount++
		}
		a.GradeDistribution[e.Grade]++
	}
	a.AveragePercentage = round2(sum / float64(len(entries)))
	return a, nil
}

// loadInput fetches everything Assemble needs. Any per-student lookup
// failure fails the whole recompute rather than dropping the student and
// producing a ranking with an incomplete population.
func (s *Service) loadInput(period *models.AcademicPeriod) (*Input, error) {
	var componentModels []models.ComponentExam
	if err := s.db.Where("period_id = ?", period.ID).Order("order_index").Find(&componentModels).Error; err != nil {
		return nil, err
	}
	components := make([]Component, 0, len(componentModels))
	for _, c := range componentModels {
		components = append(components, Component{
			ID:       c.ID,
			Subject:  c.Subject,
			Title:    c.Title,
			MaxMarks: c.MaxMarks,
		})
	}

	var scoreModels []models.ComponentScore
	if err := s.db.Where("period_id = ?", period.ID).Find(&scoreModels).Error; err != nil {
		return nil, err
	}
	scores := make([]Score, 0, len(scoreModels))
	for _, sc := range scoreModels {
		scores = append(scores, Score{
			ComponentID: sc.ComponentID,
			StudentID:   sc.StudentID,
			Marks:       sc.MarksObtained,
			Absent:      sc.Absent,
		})
	}

	var studentModels []models.User
	err := s.db.
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.batch_id = ? AND enrollments.status = ? AND enrollments.deleted_at IS NULL", period.BatchID, "active").
		Where("users.role = ? AND users.is_active = ?", "student", true).
		Order("users.full_name").
		Find(&studentModels).Error
	if err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(studentModels))
	attendance := make(map[uuid.UUID]int, len(studentModels))
	for _, u := range studentModels {
		students = append(students, Student{
			ID:          u.ID,
			Name:        u.FullName,
			PhoneTarget: preferredPhone(u),
		})
		count, err := s.attendance.PresentDayCount(period.BatchID, u.ID, period.StartDate, period.EndDate)
		if err != nil {
			return nil, fmt.Errorf("attendance lookup for %s: %w", u.ID, err)
		}
		attendance[u.ID] = count
	}

	bonus, err := s.bonus.BonusMap(period.ID)
	if err != nil {
		return nil, err
	}

	previous, err := s.previousPositions(period)
	if err != nil {
		return nil, err
	}

	return &Input{
		Components:        components,
		Scores:            scores,
		Students:          students,
		Attendance:        attendance,
		Bonus:             bonus,
		AttendanceCap:     period.AttendanceCap,
		BonusCap:          period.BonusCap,
		PreviousPositions: previous,
	}, nil
}

// previousPositions looks up the most recent published earlier period of
// the same batch and maps its stored positions by student.
func (s *Service) previousPositions(period *models.AcademicPeriod) (map[uuid.UUID]int, error) {
	var prev models.AcademicPeriod
	err := s.db.
		Where("batch_id = ? AND status = ?", period.BatchID, models.PeriodPublished).
		Where("(year < ?) OR (year = ? AND month < ?)", period.Year, period.Year, period.Month).
		Order("year DESC, month DESC").
		First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[uuid.UUID]int{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.RankingEntry
	if err := s.db.Where("period_id = ?", prev.ID).Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		out[e.StudentID] = e.Position
	}
	return out, nil
}

func (s *Service) requireDraft(period *models.AcademicPeriod) error {
	if period.Status == models.PeriodPublished {
		return &ConflictError{Reason: "period is published; results are frozen"}
	}
	return nil
}

func recalcPeriodTotals(tx *gorm.DB, periodID uuid.UUID) error {
	var total float64
	if err := tx.Model(&models.ComponentExam{}).
		Where("period_id = ?", periodID).
		Select("COALESCE(SUM(max_marks), 0)").Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&models.AcademicPeriod{}).
		Where("id = ?", periodID).
		Updates(map[string]interface{}{
			"total_marks": total,
			"pass_marks":  round2(total * 0.33),
		}).Error
}

func entryFromRow(periodID uuid.UUID, row Row) models.RankingEntry {
	subjects := make(models.JSONB, len(row.SubjectMarks))
	for _, sm := range row.SubjectMarks {
		subjects[sm.Subject] = map[string]interface{}{
			"title":     sm.Title,
			"obtained":  sm.Obtained,
			"max_marks": sm.MaxMarks,
			"absent":    sm.Absent,
		}
	}
	return models.RankingEntry{
		PeriodID:         periodID,
		StudentID:        row.StudentID,
		StudentName:      row.StudentName,
		PhoneTarget:      row.PhoneTarget,
		EarnedMarks:      row.EarnedMarks,
		PossibleMarks:    row.PossibleMarks,
		AttendanceMarks:  row.AttendanceMarks,
		BonusMarks:       row.BonusMarks,
		FinalTotal:       row.FinalTotal,
		FinalPossible:    row.FinalPossible,
		Percentage:       row.Percentage,
		Grade:            row.Grade,
		GradePoint:       row.GradePoint,
		Position:         row.Position,
		PreviousPosition: row.PreviousPosition,
		SubjectMarks:     subjects,
	}
}

func preferredPhone(u models.User) string {
	if u.GuardianPhone != "" {
		return u.GuardianPhone
	}
	return u.Phone
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
