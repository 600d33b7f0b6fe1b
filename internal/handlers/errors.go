package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/coaching-center/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondRankingError maps the engine error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is treated as an internal error and
// logged rather than leaked to the caller.
func respondRankingError(c *gin.Context, err error) {
	var (
		validation  *ranking.ValidationError
		notFound    *ranking.NotFoundError
		conflict    *ranking.ConflictError
		published   *ranking.AlreadyPublishedError
		computation *ranking.ComputationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &published):
		c.JSON(http.StatusConflict, gin.H{"error": published.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.As(err, &computation):
		log.Printf("ranking computation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": computation.Error()})
	default:
		log.Printf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// paramUUID parses a path parameter, replying 400 itself on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// callerID is the authenticated user id stashed by the auth middleware.
func callerID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}
