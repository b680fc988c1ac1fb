package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"gorm.io/gorm"
)

// TollingEvent is a gold row derived from account activity: one row per CSED
// suspension, either a paired open/close interval or a flat-extension
// occurrence. The set is rebuilt from scratch on every recompute.
type TollingEvent struct {
	ID            int                `gorm:"primary_key" json:"id"`
	CaseId        int                `gorm:"not null;index" json:"case_id"`
	TaxYearId     int                `gorm:"not null;index" json:"tax_year_id"`
	Category      TollingCategory    `gorm:"size:20;not null" json:"category"`
	Code          string             `gorm:"size:8;not null" json:"code"`
	StartDate     time.Time          `gorm:"not null" json:"start_date"`
	EndDate       *time.Time         `json:"end_date"`
	Status        TollingEventStatus `gorm:"size:20;not null" json:"status"`
	IntervalDays  int                `gorm:"default:0" json:"interval_days"`
	FixedDays     int                `gorm:"default:0" json:"fixed_days"`
	ExtensionDays int                `gorm:"default:0" json:"extension_days"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (e TollingEvent) GetCaseId() int {
	return e.CaseId
}

func (e TollingEvent) GetId() int {
	return e.ID
}

// Contributes reports whether the event extends the CSED. Open intervals do
// not; the clock is suspended but no days are added until the close posts.
func (e *TollingEvent) Contributes() bool {
	return e.Status != TollingEventStatusOpen
}

// ReplaceTollingEvents swaps the derived event set of a tax year inside the
// recompute transaction.
func ReplaceTollingEvents(tx *gorm.DB, taxYearId int, events []TollingEvent) error {
	if err := tx.Where("tax_year_id = ?", taxYearId).Delete(&TollingEvent{}).Error; err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		events[i].ID = 0
		events[i].TaxYearId = taxYearId
	}
	return tx.Create(&events).Error
}

func GetTollingEvents(ctx context.Context, caseId int, year *int) ([]TollingEvent, error) {
	if err := validateCaseExists(ctx, caseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Where("case_id = ?", caseId)
	if year != nil && *year > 0 {
		query = query.Where("tax_year_id IN (?)",
			db.Model(&TaxYear{}).Select("id").Where("case_id = ? AND year = ?", caseId, *year))
	}

	var results []TollingEvent
	if err := query.Order("start_date, code, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
