package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coaching-center/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRespondRankingError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation maps to 400", &ranking.ValidationError{Reason: "marks cannot be negative"}, http.StatusBadRequest},
		{"not found maps to 404", &ranking.NotFoundError{Resource: "period"}, http.StatusNotFound},
		{"conflict maps to 409", &ranking.ConflictError{Reason: "period is published; results are frozen"}, http.StatusConflict},
		{"second publish maps to 409", &ranking.AlreadyPublishedError{PeriodID: uuid.New()}, http.StatusConflict},
		{"computation maps to 500", &ranking.ComputationError{Reason: "possible total is zero"}, http.StatusInternalServerError},
		{"wrapped taxonomy error keeps its status", fmt.Errorf("entry 3: %w", &ranking.ValidationError{Reason: "exceeds max"}), http.StatusBadRequest},
		{"unknown error maps to 500", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondRankingError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
