package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAlreadyEnrolled = errors.New("student already enrolled in batch")

// EnrollmentService manages batches and student membership. Password
// hashing goes through AuthService so students and staff share the same
// credential scheme.
type EnrollmentService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewEnrollmentService(db *gorm.DB, auth *AuthService) *EnrollmentService {
	return &EnrollmentService{db: db, auth: auth}
}

func (s *EnrollmentService) CreateBatch(name, subject string, teacherID *uuid.UUID) (*models.Batch, error) {
	if name == "" {
		return nil, fmt.Errorf("batch name is required")
	}
	batch := &models.Batch{
		Name:      name,
		Subject:   subject,
		TeacherID: teacherID,
		IsActive:  true,
	}
	if err := s.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

func (s *EnrollmentService) ListBatches() ([]models.Batch, error) {
	var batches []models.Batch
	if err := s.db.Order("name").Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// CreateStudent registers a student account. The guardian phone is the
// preferred notification target; the student's own number is a fallback.
func (s *EnrollmentService) CreateStudent(fullName, email, phone, guardianPhone, password string) (*models.User, error) {
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("full name and email are required")
	}
	if password == "" {
		password = "Student@123"
	}

	student := &models.User{
		Email:         email,
		Role:          "student",
		FullName:      fullName,
		Phone:         phone,
		GuardianPhone: guardianPhone,
		IsActive:      true,
		Meta:          models.JSONB{"must_change_password": true},
	}
	if err := s.auth.CreateUser(student, password); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return student, nil
}

// Enroll adds a student to a batch as an active member.
func (s *EnrollmentService) Enroll(studentID, batchID uuid.UUID) (*models.Enrollment, error) {
	var student models.User
	if err := s.db.First(&student, "id = ? AND role = 'student'", studentID).Error; err != nil {
		return nil, fmt.Errorf("student not found: %w", err)
	}
	var batch models.Batch
	if err := s.db.First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, fmt.Errorf("batch not found: %w", err)
	}

	var existing models.Enrollment
	err := s.db.Where("student_id = ? AND batch_id = ?", studentID, batchID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID:  studentID,
		BatchID:    batchID,
		Status:     "active",
		EnrolledOn: time.Now().UTC(),
	}
	if err := s.db.Create(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to enroll student: %w", err)
	}
	return enrollment, nil
}

// Withdraw marks an enrollment inactive without deleting history.
func (s *EnrollmentService) Withdraw(studentID, batchID uuid.UUID) error {
	now := time.Now().UTC()
	result := s.db.Model(&models.Enrollment{}).
		Where("student_id = ? AND batch_id = ? AND status = 'active'", studentID, batchID).
		Updates(map[string]interface{}{"status": "withdrawn", "left_on": now})
	if result.Error != nil {
		return fmt.Errorf("failed to withdraw student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no active enrollment for student in batch")
	}
	return nil
}

// ListBatchStudents returns the active student roster of a batch ordered
// by name, the same population the ranking engine computes over.
func (s *EnrollmentService) ListBatchStudents(batchID uuid.UUID) ([]models.User, error) {
	var students []models.User
	err := s.db.
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.batch_id = ? AND enrollments.status = ? AND enrollments.deleted_at IS NULL", batchID, "active").
		Where("users.role = ? AND users.is_active = ?", "student", true).
		Order("users.full_name").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batch students: %w", err)
	}
	return students, nil
}
