package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func bindJSON(t *testing.T, body string, out interface{}) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c.ShouldBindJSON(out)
}

func TestBonusRequestBinding(t *testing.T) {
	studentID := uuid.NewString()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"positive amount", `{"student_id":"` + studentID + `","amount":5}`, false},
		{"zero amount", `{"student_id":"` + studentID + `","amount":0}`, false},
		{"negative amount accepted", `{"student_id":"` + studentID + `","amount":-5}`, false},
		{"missing student", `{"amount":5}`, true},
		{"malformed student id", `{"student_id":"not-a-uuid","amount":5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req BonusRequest
			err := bindJSON(t, tt.body, &req)
			if (err != nil) != tt.wantErr {
				t.Errorf("bind error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBonusRequestKeepsNegativeValue(t *testing.T) {
	var req BonusRequest
	if err := bindJSON(t, `{"student_id":"`+uuid.NewString()+`","amount":-7.5}`, &req); err != nil {
		t.Fatalf("bind error = %v", err)
	}
	if req.Amount != -7.5 {
		t.Errorf("amount = %v, want -7.5", req.Amount)
	}
}
