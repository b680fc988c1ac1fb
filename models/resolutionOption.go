package models

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResolutionOption is the gold verdict of the resolution engine: one row per
// case holding the disposable-income computation and the eligibility result
// of each program. Rebuilt on every recompute; Unavailable when the case has
// no interview profile yet.
type ResolutionOption struct {
	ID                int              `gorm:"primary_key" json:"id"`
	CaseId            int              `gorm:"not null;uniqueIndex" json:"case_id"`
	Status            ProjectionStatus `gorm:"size:20;not null" json:"status"`
	UnavailableReason *string          `gorm:"size:512" json:"unavailable_reason"`

	MonthlyIncome       *decimal.Decimal `gorm:"type:decimal(20,4)" json:"monthly_income"`
	AllowableExpenses   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"allowable_expenses"`
	DisposableIncome    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"disposable_income"`
	AllowableDetailJSON []byte           `gorm:"type:json" json:"allowable_detail"`
	TotalDebt           *decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_debt"`

	// Installment agreement
	IAEligible        *bool            `gorm:"default:false" json:"ia_eligible"`
	IAMonthlyPayment  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"ia_monthly_payment"`
	IAPayoffMonths    *int             `json:"ia_payoff_months"`
	IAMonthsUntilCsed *int             `json:"ia_months_until_csed"`

	// Offer in compromise
	OICEligible         *bool            `gorm:"default:false" json:"oic_eligible"`
	OICQuickSaleValue   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"oic_quick_sale_value"`
	OICFutureIncome     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"oic_future_income"`
	OICCollectionValue  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"oic_collection_value"`
	OICRecommendedOffer *decimal.Decimal `gorm:"type:decimal(20,4)" json:"oic_recommended_offer"`

	// Currently not collectible
	CNCEligible *bool `gorm:"default:false" json:"cnc_eligible"`

	EvaluatedAt time.Time `gorm:"not null" json:"evaluated_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r ResolutionOption) GetCaseId() int {
	return r.CaseId
}

func (r ResolutionOption) GetId() int {
	return r.ID
}

// AllowableExpenseLine is one category of the disposable-income worksheet,
// serialized into AllowableDetailJSON.
type AllowableExpenseLine struct {
	Category      string          `json:"category"`
	Actual        decimal.Decimal `json:"actual"`
	Standard      decimal.Decimal `json:"standard"`
	Allowed       decimal.Decimal `json:"allowed"`
	GreaterOfRule bool            `json:"greater_of_rule"`
}

// ReplaceResolutionOption swaps the single resolution row of a case inside
// the recompute transaction.
func ReplaceResolutionOption(tx *gorm.DB, option *ResolutionOption) error {
	if err := tx.Where("case_id = ?", option.CaseId).Delete(&ResolutionOption{}).Error; err != nil {
		return err
	}
	option.ID = 0
	return tx.Create(option).Error
}

func GetResolutionOption(ctx context.Context, caseId int) (*ResolutionOption, error) {
	if err := validateCaseExists(ctx, caseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var result ResolutionOption
	err := db.WithContext(ctx).Where("case_id = ?", caseId).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
