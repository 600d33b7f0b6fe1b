package middleware

import (
	"net/http"

	"github.com/coaching-center/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchScope stashes the caller's accessible batch ids into the context.
// Staff see everything; students are confined to batches they are
// actively enrolled in. Handlers use "batch_scope" to filter reads.
func BatchScope(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("user_role")
		if userRole != "student" {
			c.Next()
			return
		}

		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid user ID"})
			c.Abort()
			return
		}

		var enrollments []models.Enrollment
		if err := db.Where("student_id = ? AND status = ?", userID, "active").Find(&enrollments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve batch access"})
			c.Abort()
			return
		}

		batchIDs := make([]uuid.UUID, 0, len(enrollments))
		for _, e := range enrollments {
			batchIDs = append(batchIDs, e.BatchID)
		}

		c.Set("batch_scope", batchIDs)
		c.Next()
	}
}

// BatchAllowed reports whether the caller may see data for the batch.
func BatchAllowed(c *gin.Context, batchID uuid.UUID) bool {
	if c.GetString("user_role") != "student" {
		return true
	}
	scope, exists := c.Get("batch_scope")
	if !exists {
		return false
	}
	for _, id := range scope.([]uuid.UUID) {
		if id == batchID {
			return true
		}
	}
	return false
}
