package ranking

import (
	"errors"

	"github.com/coaching-center/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BonusLedger stores teacher-assigned additive credit per (period,
// student). It imposes no sign or magnitude validation; the assembler
// treats the amount as an opaque additive term. Last write wins.
type BonusLedger struct {
	db *gorm.DB
}

func NewBonusLedger(db *gorm.DB) *BonusLedger {
	return &BonusLedger{db: db}
}

// Bonus returns the credit for one student, defaulting to 0.
func (l *BonusLedger) Bonus(periodID, studentID uuid.UUID) (float64, error) {
	var credit models.BonusCredit
	err := l.db.Where("period_id = ? AND student_id = ?", periodID, studentID).First(&credit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return credit.Amount, nil
}

// BonusMap returns all credits for a period keyed by student id.
func (l *BonusLedger) BonusMap(periodID uuid.UUID) (map[uuid.UUID]float64, error) {
	var credits []models.BonusCredit
	if err := l.db.Where("period_id = ?", periodID).Find(&credits).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]float64, len(credits))
	for _, c := range credits {
		out[c.StudentID] = c.Amount
	}
	return out, nil
}

// Set upserts the credit for one student.
func (l *BonusLedger) Set(periodID, studentID uuid.UUID, amount float64, updatedBy uuid.UUID) error {
	var credit models.BonusCredit
	err := l.db.Where("period_id = ? AND student_id = ?", periodID, studentID).First(&credit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		credit = models.BonusCredit{
			PeriodID:  periodID,
			StudentID: studentID,
			Amount:    amount,
			UpdatedBy: updatedBy,
		}
		return l.db.Create(&credit).Error
	}
	if err != nil {
		return err
	}

	credit.Amount = amount
	credit.UpdatedBy = updatedBy
	return l.db.Save(&credit).Error
}
