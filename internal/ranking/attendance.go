package ranking

import (
	"time"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceGateway is the read-only view onto the attendance subsystem.
// One present day is worth one attendance mark; the gateway itself
// enforces no upper cap, the period's AttendanceCap bounds the possible
// total instead.
type AttendanceGateway interface {
	PresentDayCount(batchID, studentID uuid.UUID, from, to time.Time) (int, error)
}

type gormAttendanceGateway struct {
	db *gorm.DB
}

// NewAttendanceGateway returns the store-backed gateway.
func NewAttendanceGateway(db *gorm.DB) AttendanceGateway {
	return &gormAttendanceGateway{db: db}
}

func (g *gormAttendanceGateway) PresentDayCount(batchID, studentID uuid.UUID, from, to time.Time) (int, error) {
	var count int64
	err := g.db.Model(&models.Attendance{}).
		Where("batch_id = ? AND student_id = ? AND date >= ? AND date <= ? AND status = ?",
			batchID, studentID, from, to, models.AttendancePresent).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
