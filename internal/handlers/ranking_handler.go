package handlers

import (
	"net/http"
	"strconv"

	"github.com/coaching-center/backend/internal/metrics"
	"github.com/coaching-center/backend/internal/middleware"
	"github.com/coaching-center/backend/internal/models"
	"github.com/coaching-center/backend/internal/ranking"
	"github.com/coaching-center/backend/internal/services"
	"github.com/coaching-center/backend/internal/sms"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RankingHandler struct {
	db      *gorm.DB
	service *ranking.Service
	builder *sms.Builder
	audit   *services.AuditService
}

func NewRankingHandler(db *gorm.DB, service *ranking.Service, builder *sms.Builder, audit *services.AuditService) *RankingHandler {
	return &RankingHandler{db: db, service: service, builder: builder, audit: audit}
}

// @Summary Recompute the ranking snapshot for a draft period
// @Tags ranking
// @Produce json
// @Success 200
// @Router /api/v1/periods/{id}/compute [post]
func (h *RankingHandler) Compute(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.ComputeRanking(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ranking computed",
		"ranking_entries": len(entries),
	})
}

// @Summary Publish a period's ranking
// @Tags ranking
// @Produce json
// @Success 200 {object} models.AcademicPeriod
// @Router /api/v1/periods/{id}/publish [post]
func (h *RankingHandler) Publish(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	period, err := h.service.Publish(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	actor := callerID(c)
	h.audit.Log(actor, "period.publish", "academic_period", periodID,
		models.JSONB{"status": string(models.PeriodDraft)},
		models.JSONB{"status": string(models.PeriodPublished), "published_at": period.PublishedAt},
		c.ClientIP())

	c.JSON(http.StatusOK, period)
}

// @Summary Fetch the ranking snapshot
// @Description Staff receive the full ordered list; students receive
// @Description their own row plus two positions either side.
// @Tags ranking
// @Produce json
// @Success 200 {array} models.RankingEntry
// @Router /api/v1/periods/{id}/ranking [get]
func (h *RankingHandler) GetRanking(c *gin.Context) {
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

	var studentID *uuid.UUID
	if c.GetString("user_role") == "student" {
		if period.Status != models.PeriodPublished {
			c.JSON(http.StatusNotFound, gin.H{"error": "ranking not found"})
			return
		}
		id := callerID(c)
		studentID = &id
	}

	entries, err := h.service.Snapshot(periodID, studentID)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":  gin.H{"id": period.ID, "title": period.Title, "status": period.Status},
		"entries": entries,
	})
}

// @Summary Top performers of a period
// @Tags ranking
// @Produce json
// @Success 200 {array} models.RankingEntry
// @Router /api/v1/periods/{id}/merit-list [get]
func (h *RankingHandler) MeritList(c *gin.Context) {
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
		c.JSON(http.StatusNotFound, gin.H{"error": "ranking not found"})
		return
	}

	top, err := strconv.Atoi(c.DefaultQuery("top", "10"))
	if err != nil {
		top = 10
	}

	entries, err := h.service.MeritList(periodID, top)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Ranking analytics for a period
// @Tags ranking
// @Produce json
// @Success 200 {object} ranking.Analytics
// @Router /api/v1/periods/{id}/analytics [get]
func (h *RankingHandler) Analytics(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	analytics, err := h.service.ComputeAnalytics(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// @Summary Render result notification payloads for a published period
// @Tags ranking
// @Produce json
// @Success 200
// @Router /api/v1/periods/{id}/notifications [post]
func (h *RankingHandler) Notifications(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	period, err := h.service.GetPeriod(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}
	// Results leave the building only after the gate flips.
	if err := ranking.RequirePublished(period); err != nil {
		respondRankingError(c, err)
		return
	}

	entries, err := h.service.Snapshot(periodID, nil)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	payloads, skipped := h.builder.BuildAll(entries, period.Title)

	actor := callerID(c)
	logs := make([]models.SmsLog, 0, len(payloads))
	for _, p := range payloads {
		pid, sid := periodID, p.StudentID
		logs = append(logs, models.SmsLog{
			PeriodID:       &pid,
			StudentID:      &sid,
			PhoneNumber:    p.PhoneTarget,
			Message:        p.Message,
			WeightedLength: p.WeightedLength,
			Status:         "pending",
			CreatedBy:      actor,
		})
	}
	if len(logs) > 0 {
		if err := h.db.CreateInBatches(logs, 100).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	metrics.NotificationPayloadsTotal.Add(float64(len(payloads)))

	c.JSON(http.StatusOK, gin.H{
		"payloads": payloads,
		"skipped":  skipped,
	})
}
