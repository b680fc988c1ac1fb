package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxProjection estimates the liability of an unfiled year from its income
// documents. One row per tax year, rebuilt on every recompute. Steps that
// lack reference data stay null and push the status to Unavailable; a null
// here is "could not compute", never zero.
type TaxProjection struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	CaseId                int              `gorm:"not null;index" json:"case_id"`
	TaxYearId             int              `gorm:"not null;uniqueIndex" json:"tax_year_id"`
	Year                  int              `gorm:"not null" json:"year"`
	Status                ProjectionStatus `gorm:"size:20;not null" json:"status"`
	UnavailableReason     *string          `gorm:"size:512" json:"unavailable_reason"`
	FilingStatus          FilingStatus     `gorm:"size:40;not null" json:"filing_status"`
	FilingStatusDefaulted *bool            `gorm:"default:false" json:"filing_status_defaulted"`
	TotalIncome           *decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_income"`
	SelfEmploymentIncome  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"self_employment_income"`
	SelfEmploymentTax     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"self_employment_tax"`
	EstimatedAGI          *decimal.Decimal `gorm:"type:decimal(20,4)" json:"estimated_agi"`
	TaxableIncome         *decimal.Decimal `gorm:"type:decimal(20,4)" json:"taxable_income"`
	IncomeTax             *decimal.Decimal `gorm:"type:decimal(20,4)" json:"income_tax"`
	TotalTax              *decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_tax"`
	TotalWithholding      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_withholding"`
	ProjectedBalance      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"projected_balance"`
	ComputedAt            time.Time        `gorm:"not null" json:"computed_at"`
	CreatedAt             time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (p TaxProjection) GetCaseId() int {
	return p.CaseId
}

func (p TaxProjection) GetId() int {
	return p.ID
}

// ReplaceTaxProjection swaps the projection of a tax year inside the
// recompute transaction.
func ReplaceTaxProjection(tx *gorm.DB, projection *TaxProjection) error {
	if err := tx.Where("tax_year_id = ?", projection.TaxYearId).Delete(&TaxProjection{}).Error; err != nil {
		return err
	}
	projection.ID = 0
	return tx.Create(projection).Error
}

// DeleteTaxProjection removes the projection of a tax year that no longer
// qualifies, for example after its return shows up as filed.
func DeleteTaxProjection(tx *gorm.DB, taxYearId int) error {
	return tx.Where("tax_year_id = ?", taxYearId).Delete(&TaxProjection{}).Error
}

func GetTaxProjections(ctx context.Context, caseId int, year *int) ([]TaxProjection, error) {
	if err := validateCaseExists(ctx, caseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Where("case_id = ?", caseId)
	if year != nil && *year > 0 {
		query = query.Where("year = ?", *year)
	}

	var results []TaxProjection
	if err := query.Order("year, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
