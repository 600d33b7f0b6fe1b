package handlers

import (
	"net/http"
	"time"

	"github.com/coaching-center/backend/internal/middleware"
	"github.com/coaching-center/backend/internal/models"
	"github.com/coaching-center/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PeriodHandler struct {
	db      *gorm.DB
	service *ranking.Service
}

func NewPeriodHandler(db *gorm.DB, service *ranking.Service) *PeriodHandler {
	return &PeriodHandler{db: db, service: service}
}

type CreatePeriodRequest struct {
	BatchID     string `json:"batch_id" binding:"required,uuid"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Month       int    `json:"month" binding:"required,month"`
	Year        int    `json:"year" binding:"required"`
}

// @Summary Create a monthly ranking period
// @Tags periods
// @Accept json
// @Produce json
// @Param request body CreatePeriodRequest true "Period details"
// @Success 201 {object} models.AcademicPeriod
// @Router /api/v1/periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batchID, err := uuid.Parse(req.BatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}

	period, err := h.service.CreatePeriod(ranking.CreatePeriodRequest{
		BatchID:     batchID,
		Title:       req.Title,
		Description: req.Description,
		Month:       req.Month,
		Year:        req.Year,
		CreatedBy:   callerID(c),
	})
	if err != nil {
		respondRankingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, period)
}

// @Summary List periods
// @Tags periods
// @Produce json
// @Success 200 {array} models.AcademicPeriod
// @Router /api/v1/periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	query := h.db.Preload("Batch").Order("year DESC, month DESC")

	if batchParam := c.Query("batch_id"); batchParam != "" {
		batchID, err := uuid.Parse(batchParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
			return
		}
		query = query.Where("batch_id = ?", batchID)
	}

	// Students only see periods of their own batches, and only published
	// ones: a draft ranking is staff-internal until the gate flips.
	if c.GetString("user_role") == "student" {
		scope, _ := c.Get("batch_scope")
		batchIDs, _ := scope.([]uuid.UUID)
		if len(batchIDs) == 0 {
			c.JSON(http.StatusOK, []models.AcademicPeriod{})
			return
		}
		query = query.Where("batch_id IN ? AND status = ?", batchIDs, models.PeriodPublished)
	}

	var periods []models.AcademicPeriod
	if err := query.Find(&periods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, periods)
}

// @Summary Fetch one period
// @Tags periods
// @Produce json
// @Success 200 {object} models.AcademicPeriod
// @Router /api/v1/periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	period, err := h.service.GetPeriod(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	if !middleware.BatchAllowed(c, period.BatchID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	if c.GetString("user_role") == "student" && period.Status != models.PeriodPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "period not found"})
		return
	}

	c.JSON(http.StatusOK, period)
}

type ComponentRequest struct {
	Title    string    `json:"title" binding:"required"`
	Subject  string    `json:"subject" binding:"required"`
	MaxMarks float64   `json:"max_marks" binding:"required,gt=0"`
	ExamDate time.Time `json:"exam_date"`
	Duration int       `json:"duration"`
}

// @Summary Add a component exam to a draft period
// @Tags periods
// @Accept json
// @Produce json
// @Param request body ComponentRequest true "Component details"
// @Success 201 {object} models.ComponentExam
// @Router /api/v1/periods/{id}/components [post]
func (h *PeriodHandler) AddComponent(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	component, err := h.service.AddComponent(periodID, ranking.ComponentRequest{
		Title:    req.Title,
		Subject:  req.Subject,
		MaxMarks: req.MaxMarks,
		ExamDate: req.ExamDate,
		Duration: req.Duration,
	})
	if err != nil {
		respondRankingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, component)
}

// @Summary List component exams of a period
// @Tags periods
// @Produce json
// @Success 200 {array} models.ComponentExam
// @Router /api/v1/periods/{id}/components [get]
func (h *PeriodHandler) ListComponents(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	period, err := h.service.GetPeriod(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	if !middleware.BatchAllowed(c, period.BatchID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	components, err := h.service.ListComponents(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

// @Summary Delete a score-free component exam
// @Tags periods
// @Produce json
// @Success 200
// @Router /api/v1/periods/{id}/components/{componentId} [delete]
func (h *PeriodHandler) DeleteComponent(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	componentID, ok := paramUUID(c, "componentId")
	if !ok {
		return
	}

	if err := h.service.DeleteComponent(periodID, componentID); err != nil {
		respondRankingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Component deleted"})
}
