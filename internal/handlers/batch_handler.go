package handlers

import (
	"errors"
	"net/http"

	"github.com/coaching-center/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BatchHandler struct {
	enrollment *services.EnrollmentService
}

func NewBatchHandler(enrollment *services.EnrollmentService) *BatchHandler {
	return &BatchHandler{enrollment: enrollment}
}

type CreateBatchRequest struct {
	Name      string `json:"name" binding:"required"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

func (h *BatchHandler) Create(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var teacherID *uuid.UUID
	if req.TeacherID != "" {
		id, err := uuid.Parse(req.TeacherID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid teacher ID"})
			return
		}
		teacherID = &id
	}

	batch, err := h.enrollment.CreateBatch(req.Name, req.Subject, teacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.enrollment.ListBatches()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, batches)
}

type EnrollStudentRequest struct {
	// Either an existing student id, or the details to register one.
	StudentID     string `json:"student_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	GuardianPhone string `json:"guardian_phone"`
	Password      string `json:"password"`
}

func (h *BatchHandler) EnrollStudent(c *gin.Context) {
	batchID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var studentID uuid.UUID
	if req.StudentID != "" {
		id, err := uuid.Parse(req.StudentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
			return
		}
		studentID = id
	} else {
		student, err := h.enrollment.CreateStudent(req.FullName, req.Email, req.Phone, req.GuardianPhone, req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		studentID = student.ID
	}

	enrollment, err := h.enrollment.Enroll(studentID, batchID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyEnrolled) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *BatchHandler) ListStudents(c *gin.Context) {
	batchID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	students, err := h.enrollment.ListBatchStudents(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *BatchHandler) WithdrawStudent(c *gin.Context) {
	batchID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "studentId")
	if !ok {
		return
	}

	if err := h.enrollment.Withdraw(studentID, batchID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student withdrawn"})
}
