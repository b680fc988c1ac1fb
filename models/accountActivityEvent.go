package models

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountActivityEvent is one transcript transaction line. The enrichment
// fields come only from transaction_code_rules; an unknown code keeps
// TransactionType "Unknown" with every flag false.
type AccountActivityEvent struct {
	ID           int              `gorm:"primary_key" json:"id"`
	CaseId       int              `gorm:"not null;index" json:"case_id"`
	TaxYearId    int              `gorm:"not null;index;uniqueIndex:idx_activity_natural,priority:1" json:"tax_year_id"`
	Code         string           `gorm:"size:8;not null;uniqueIndex:idx_activity_natural,priority:2" json:"code"`
	ActivityDate *time.Time       `gorm:"uniqueIndex:idx_activity_natural,priority:3" json:"activity_date"`
	Amount       *decimal.Decimal `gorm:"type:decimal(20,4);uniqueIndex:idx_activity_natural,priority:4" json:"amount"`
	Explanation  string           `gorm:"size:512" json:"explanation"`

	TransactionType           string          `gorm:"size:64;not null;default:'Unknown'" json:"transaction_type"`
	AffectsBalance            *bool           `gorm:"not null;default:false" json:"affects_balance"`
	AffectsCsed               *bool           `gorm:"not null;default:false" json:"affects_csed"`
	IndicatesCollectionAction *bool           `gorm:"not null;default:false" json:"indicates_collection_action"`
	TollingCategory           TollingCategory `gorm:"size:20;not null;default:'None'" json:"tolling_category"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e AccountActivityEvent) GetCaseId() int {
	return e.CaseId
}

func (e AccountActivityEvent) GetId() int {
	return e.ID
}

// UpsertActivityEvent writes one event by natural key
// (tax year, code, date, amount), last writer wins. The NULL-safe compare
// keeps records with an unparseable date or amount from duplicating on
// re-extraction.
func UpsertActivityEvent(tx *gorm.DB, event *AccountActivityEvent) (*AccountActivityEvent, error) {
	if event.TaxYearId == 0 {
		return nil, errors.New("tax year id is required")
	}
	if event.Code == "" {
		return nil, errors.New("transaction code is required")
	}

	var existing AccountActivityEvent
	err := tx.Where("tax_year_id = ? AND code = ? AND activity_date <=> ? AND amount <=> ?",
		event.TaxYearId, event.Code, event.ActivityDate, event.Amount).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
	}

	if err := tx.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func GetActivityEvents(ctx context.Context, caseId int, year *int) ([]*AccountActivityEvent, error) {
	var results []*AccountActivityEvent
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
	if year != nil && *year > 0 {
		dbCtx = dbCtx.Where("tax_year_id IN (?)",
			db.WithContext(ctx).Model(&TaxYear{}).Select("id").
				Where("case_id = ? AND year = ?", caseId, *year))
	}
	// db query
	err := dbCtx.Order("activity_date, code, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
