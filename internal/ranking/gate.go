package ranking

import (
	"time"

	"github.com/coaching-center/backend/internal/models"
)

// MarkPublished flips a period to published. The transition is one-way:
// a published period is rejected outright, there is no path back to
// draft.
func MarkPublished(period *models.AcademicPeriod, now time.Time) error {
	if period.Status == models.PeriodPublished {
		return &AlreadyPublishedError{PeriodID: period.ID}
	}
	period.Status = models.PeriodPublished
	period.PublishedAt = &now
	return nil
}

// RequirePublished guards outward-facing result flows. Notification
// payloads are rendered only from a published snapshot.
func RequirePublished(period *models.AcademicPeriod) error {
	if period.Status != models.PeriodPublished {
		return &ConflictError{Reason: "period is not published; notifications are blocked"}
	}
	return nil
}
