package handlers

import (
	"net/http"

	"github.com/coaching-center/backend/internal/models"
	"github.com/coaching-center/backend/internal/ranking"
	"github.com/coaching-center/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScoreHandler struct {
	service *ranking.Service
	audit   *services.AuditService
}

func NewScoreHandler(service *ranking.Service, audit *services.AuditService) *ScoreHandler {
	return &ScoreHandler{service: service, audit: audit}
}

type ScoreEntry struct {
	StudentID     string  `json:"student_id" binding:"required,uuid"`
	MarksObtained float64 `json:"marks_obtained"`
	Absent        bool    `json:"absent"`
}

type SubmitScoresRequest struct {
	Scores []ScoreEntry `json:"scores" binding:"required,min=1,dive"`
}

// @Summary Bulk submit component scores
// @Tags scores
// @Accept json
// @Produce json
// @Param request body SubmitScoresRequest true "Score entries"
// @Success 200
// @Router /api/v1/periods/{id}/components/{componentId}/scores [post]
func (h *ScoreHandler) Submit(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	componentID, ok := paramUUID(c, "componentId")
	if !ok {
		return
	}

	var req SubmitScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]ranking.ScoreSubmission, 0, len(req.Scores))
	for _, e := range req.Scores {
		studentID, err := uuid.Parse(e.StudentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
			return
		}
		entries = append(entries, ranking.ScoreSubmission{
			StudentID:     studentID,
			MarksObtained: e.MarksObtained,
			Absent:        e.Absent,
		})
	}

	saved, err := h.service.SubmitScores(periodID, componentID, entries, callerID(c))
	if err != nil {
		respondRankingError(c, err)
		return
	}

	// Score changes invalidate the stored snapshot, so rebuild it now
	// rather than serving stale positions until the next manual compute.
	rankingEntries, err := h.service.ComputeRanking(periodID)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scores_saved":    len(saved),
		"ranking_entries": len(rankingEntries),
	})
}

// BonusRequest carries an opaque additive amount: negative values are
// legitimate (penalties), so no sign constraint here.
type BonusRequest struct {
	StudentID string  `json:"student_id" binding:"required,uuid"`
	Amount    float64 `json:"amount"`
}

// @Summary Set a student's bonus credit for a period
// @Tags scores
// @Accept json
// @Produce json
// @Param request body BonusRequest true "Bonus amount"
// @Success 200
// @Router /api/v1/periods/{id}/bonus [post]
func (h *ScoreHandler) SetBonus(c *gin.Context) {
	periodID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req BonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	actor := callerID(c)
	previous, err := h.service.Bonus().Bonus(periodID, studentID)
	if err != nil {
		respondRankingError(c, err)
		return
	}

	if err := h.service.SetBonus(periodID, studentID, req.Amount, actor); err != nil {
		respondRankingError(c, err)
		return
	}

	h.audit.Log(actor, "bonus.set", "academic_period", periodID,
		models.JSONB{"student_id": studentID.String(), "amount": previous},
		models.JSONB{"student_id": studentID.String(), "amount": req.Amount},
		c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Bonus recorded"})
}
