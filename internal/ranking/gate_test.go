package ranking

import (
	"errors"
	"testing"
	"time"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
)

func TestMarkPublished(t *testing.T) {
	period := &models.AcademicPeriod{Status: models.PeriodDraft}
	now := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)

	if err := MarkPublished(period, now); err != nil {
		t.Fatalf("MarkPublished() on draft error = %v", err)
	}
	if period.Status != models.PeriodPublished {
		t.Errorf("status = %s, want published", period.Status)
	}
	if period.PublishedAt == nil || !period.PublishedAt.Equal(now) {
		t.Errorf("published_at = %v, want %v", period.PublishedAt, now)
	}
}

func TestMarkPublishedTwiceRejected(t *testing.T) {
	period := &models.AcademicPeriod{Status: models.PeriodDraft}
	period.ID = uuid.New()

	if err := MarkPublished(period, time.Now().UTC()); err != nil {
		t.Fatalf("first publish error = %v", err)
	}
	firstPublishedAt := *period.PublishedAt

	err := MarkPublished(period, time.Now().UTC().Add(time.Hour))
	var published *AlreadyPublishedError
	if !errors.As(err, &published) {
		t.Fatalf("second publish error = %v, want *AlreadyPublishedError", err)
	}
	if published.PeriodID != period.ID {
		t.Errorf("error names period %s, want %s", published.PeriodID, period.ID)
	}
	if !period.PublishedAt.Equal(firstPublishedAt) {
		t.Errorf("published_at changed on rejected publish")
	}
}

func TestRequirePublishedGatesNotifications(t *testing.T) {
	period := &models.AcademicPeriod{Status: models.PeriodDraft}

	err := RequirePublished(period)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("draft period error = %v, want *ConflictError", err)
	}

	if err := MarkPublished(period, time.Now().UTC()); err != nil {
		t.Fatalf("publish error = %v", err)
	}
	if err := RequirePublished(period); err != nil {
		t.Errorf("published period error = %v, want nil", err)
	}
}
