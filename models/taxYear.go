package models

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxYear is one filer's liability picture for one fiscal year. Extraction
// owns the transcript-sourced fields; the recompute owns the CSED fields and
// ComputedBalance and rewrites them on every run.
type TaxYear struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CaseId    int       `gorm:"not null;index;uniqueIndex:idx_tax_year_natural,priority:1" json:"case_id"`
	Year      int       `gorm:"not null;uniqueIndex:idx_tax_year_natural,priority:2" json:"year"`
	FilerRole FilerRole `gorm:"size:20;not null;default:'Taxpayer';uniqueIndex:idx_tax_year_natural,priority:3" json:"filer_role"`

	FilingStatus    FilingStatus     `gorm:"size:40;not null;default:'Unknown'" json:"filing_status"`
	ReturnFiled     *bool            `gorm:"not null;default:false" json:"return_filed"`
	ReturnFiledDate *time.Time       `json:"return_filed_date"`
	AGI             *decimal.Decimal `gorm:"type:decimal(20,4)" json:"agi"`
	TaxableIncome   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"taxable_income"`
	ReportedTax     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"reported_tax"`
	// CurrentBalance is the balance the transcript itself reported; null when
	// the document never carried one.
	CurrentBalance   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"current_balance"`
	IsSFR            *bool            `gorm:"not null;default:false" json:"is_sfr"`
	UnderExamination *bool            `gorm:"not null;default:false" json:"under_examination"`

	// Fields below are recomputed from the full event set on every run.
	BaseCsedDate     *time.Time      `json:"base_csed_date"`
	AdjustedCsedDate *time.Time      `json:"adjusted_csed_date"`
	CsedStatus       CsedStatus      `gorm:"size:20;not null;default:'NotFiled'" json:"csed_status"`
	ComputedBalance  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"computed_balance"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	ActivityEvents  []AccountActivityEvent `gorm:"foreignKey:TaxYearId" json:"activity_events,omitempty"`
	IncomeDocuments []IncomeDocument       `gorm:"foreignKey:TaxYearId" json:"income_documents,omitempty"`
}

func (t TaxYear) GetCaseId() int {
	return t.CaseId
}

func (t TaxYear) GetId() int {
	return t.ID
}

// TaxYearUpsert carries the transcript-owned field set. The upsert writes the
// whole set, nulls included, so a repeated extraction always converges on the
// latest document instead of accreting stale values.
type TaxYearUpsert struct {
	Year             int
	FilerRole        FilerRole
	FilingStatus     FilingStatus
	ReturnFiled      *bool
	ReturnFiledDate  *time.Time
	AGI              *decimal.Decimal
	TaxableIncome    *decimal.Decimal
	ReportedTax      *decimal.Decimal
	CurrentBalance   *decimal.Decimal
	IsSFR            *bool
	UnderExamination *bool
}

// UpsertTaxYear writes one transcript year by natural key (case, year, filer),
// last writer wins. Runs inside the caller's extraction transaction.
func UpsertTaxYear(tx *gorm.DB, caseId int, input *TaxYearUpsert) (*TaxYear, error) {
	if input.Year == 0 {
		return nil, errors.New("tax year is required")
	}
	if input.FilerRole == "" {
		input.FilerRole = FilerRoleTaxpayer
	}

	var existing TaxYear
	err := tx.Where("case_id = ? AND year = ? AND filer_role = ?", caseId, input.Year, input.FilerRole).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	applyTaxYearUpsert(&existing, caseId, input)

	if err := tx.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// applyTaxYearUpsert overwrites the whole transcript-owned field set, nulls
// and false flags included, so a corrected re-extraction never leaves stale
// values behind.
func applyTaxYearUpsert(existing *TaxYear, caseId int, input *TaxYearUpsert) {
	existing.CaseId = caseId
	existing.Year = input.Year
	existing.FilerRole = input.FilerRole
	existing.FilingStatus = input.FilingStatus
	if existing.FilingStatus == "" {
		existing.FilingStatus = FilingStatusUnknown
	}
	existing.ReturnFiled = input.ReturnFiled
	if existing.ReturnFiled == nil {
		existing.ReturnFiled = utils.NewFalse()
	}
	existing.ReturnFiledDate = input.ReturnFiledDate
	existing.AGI = input.AGI
	existing.TaxableIncome = input.TaxableIncome
	existing.ReportedTax = input.ReportedTax
	existing.CurrentBalance = input.CurrentBalance
	existing.IsSFR = input.IsSFR
	if existing.IsSFR == nil {
		existing.IsSFR = utils.NewFalse()
	}
	existing.UnderExamination = input.UnderExamination
	if existing.UnderExamination == nil {
		existing.UnderExamination = utils.NewFalse()
	}
}

// GetOrCreateTaxYear returns the (case, year, filer) row, creating a skeleton
// when a wage document arrives for a year no transcript has described yet.
func GetOrCreateTaxYear(tx *gorm.DB, caseId int, year int, filerRole FilerRole) (*TaxYear, error) {
	if year == 0 {
		return nil, errors.New("tax year is required")
	}
	if filerRole == "" {
		filerRole = FilerRoleTaxpayer
	}

	var existing TaxYear
	err := tx.Where("case_id = ? AND year = ? AND filer_role = ?", caseId, year, filerRole).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	existing = TaxYear{
		CaseId:       caseId,
		Year:         year,
		FilerRole:    filerRole,
		FilingStatus: FilingStatusUnknown,
		ReturnFiled:  utils.NewFalse(),
		CsedStatus:   CsedStatusNotFiled,
	}
	if err := tx.Create(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// UpdateTaxYearComputed stores the recompute's verdict for one year. Called
// only from the gold rebuild transaction.
func UpdateTaxYearComputed(tx *gorm.DB, taxYearId int, baseCsed *time.Time, adjustedCsed *time.Time, status CsedStatus, computedBalance decimal.Decimal) error {
	return tx.Model(&TaxYear{}).Where("id = ?", taxYearId).
		Updates(map[string]interface{}{
			"BaseCsedDate":     baseCsed,
			"AdjustedCsedDate": adjustedCsed,
			"CsedStatus":       status,
			"ComputedBalance":  computedBalance,
		}).Error
}

func GetTaxYear(ctx context.Context, caseId int, id int, associations ...string) (*TaxYear, error) {
	return utils.FetchModel[TaxYear](ctx, caseId, id, associations...)
}

func GetTaxYears(ctx context.Context, caseId int, associations ...string) ([]*TaxYear, error) {
	var results []*TaxYear
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
	for _, association := range associations {
		dbCtx = dbCtx.Preload(association)
	}
	// db query
	err := dbCtx.Order("year, filer_role").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetTaxYearsForRecompute loads the full silver set of a case with events and
// income documents attached, ordered for deterministic calculation.
func GetTaxYearsForRecompute(tx *gorm.DB, caseId int) ([]*TaxYear, error) {
	var results []*TaxYear
	err := tx.Where("case_id = ?", caseId).
		Preload("ActivityEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("activity_date, code, id")
		}).
		Preload("IncomeDocuments", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_type, issuer_key, id")
		}).
		Order("year, filer_role").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
