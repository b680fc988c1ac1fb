package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// TransactionCodeRule classifies one IRS transaction code. Rows are
// versioned and immutable; a rule change is a new rule_version, never an
// in-place edit, so past recomputes stay explainable.
type TransactionCodeRule struct {
	ID                        int             `gorm:"primary_key" json:"id"`
	RuleVersion               string          `gorm:"size:20;not null;uniqueIndex:idx_code_rule_version" json:"rule_version"`
	Code                      string          `gorm:"size:8;not null;uniqueIndex:idx_code_rule_version" json:"code"`
	TransactionType           string          `gorm:"size:64;not null" json:"transaction_type"`
	AffectsBalance            *bool           `gorm:"default:false" json:"affects_balance"`
	AffectsCsed               *bool           `gorm:"default:false" json:"affects_csed"`
	IndicatesCollectionAction *bool           `gorm:"default:false" json:"indicates_collection_action"`
	IndicatesExamination      *bool           `gorm:"default:false" json:"indicates_examination"`
	TollingCategory           TollingCategory `gorm:"size:20;not null;default:None" json:"tolling_category"`
	IntervalRole              IntervalRole    `gorm:"size:10;not null;default:None" json:"interval_role"`
	ExtensionDays             int             `gorm:"default:0" json:"extension_days"`
	IsActive                  *bool           `gorm:"default:true" json:"is_active"`
	CreatedAt                 time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (r TransactionCodeRule) GetId() int {
	return r.ID
}

func GetTransactionCodeRules(ctx context.Context, ruleVersion string) ([]TransactionCodeRule, error) {
	db := config.GetDB()
	var results []TransactionCodeRule
	err := db.WithContext(ctx).
		Where("rule_version = ? AND is_active = ?", ruleVersion, true).
		Order("code").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// defaultTransactionCodeRules is the seeded classification. Extension days
// are carried on every row of a tolling category; paired open/close rows of
// the same category always agree on them.
func defaultTransactionCodeRules(ruleVersion string) []TransactionCodeRule {
	type row struct {
		code       string
		label      string
		balance    bool
		csed       bool
		collection bool
		exam       bool
		category   TollingCategory
		role       IntervalRole
		days       int
	}
	rows := []row{
		{"150", "Return filed, tax assessed", true, true, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"196", "Interest charged", true, true, false, false, TollingCategoryPenalty, IntervalRoleNone, 30},
		{"276", "Failure to pay penalty", true, true, false, false, TollingCategoryPenalty, IntervalRoleNone, 30},
		{"420", "Examination of return", false, false, false, true, TollingCategoryNone, IntervalRoleNone, 0},
		{"424", "Examination request", false, false, false, true, TollingCategoryNone, IntervalRoleNone, 0},
		{"430", "Return referred to examination", false, false, false, true, TollingCategoryNone, IntervalRoleNone, 0},
		{"460", "Extension of time to file", false, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"480", "Offer in compromise pending", false, true, false, false, TollingCategoryOIC, IntervalRoleOpen, 30},
		{"481", "Offer in compromise rejected", false, true, false, false, TollingCategoryOIC, IntervalRoleClose, 30},
		{"482", "Offer in compromise withdrawn", false, true, false, false, TollingCategoryOIC, IntervalRoleClose, 30},
		{"483", "Offer in compromise terminated", false, true, false, false, TollingCategoryOIC, IntervalRoleClose, 30},
		{"520", "Bankruptcy or litigation filed", false, true, false, false, TollingCategoryBankruptcy, IntervalRoleOpen, 180},
		{"521", "Bankruptcy or litigation resolved", false, true, false, false, TollingCategoryBankruptcy, IntervalRoleClose, 180},
		{"570", "Additional account action pending", false, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"582", "Federal tax lien placed", false, false, true, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"610", "Payment with return", true, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"640", "Advance payment of deficiency", true, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"670", "Subsequent payment", true, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"706", "Overpayment applied from another year", true, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"806", "Withholding or excess FICA credit", true, false, false, false, TollingCategoryNone, IntervalRoleNone, 0},
		{"971", "Collection due process notice", false, true, true, false, TollingCategoryCDP, IntervalRoleOpen, 0},
		{"972", "Collection due process resolved", false, true, false, false, TollingCategoryCDP, IntervalRoleClose, 0},
	}

	results := make([]TransactionCodeRule, 0, len(rows))
	for _, r := range rows {
		results = append(results, TransactionCodeRule{
			RuleVersion:               ruleVersion,
			Code:                      r.code,
			TransactionType:           r.label,
			AffectsBalance:            utils.NewBool(r.balance),
			AffectsCsed:               utils.NewBool(r.csed),
			IndicatesCollectionAction: utils.NewBool(r.collection),
			IndicatesExamination:      utils.NewBool(r.exam),
			TollingCategory:           r.category,
			IntervalRole:              r.role,
			ExtensionDays:             r.days,
			IsActive:                  utils.NewTrue(),
		})
	}
	return results
}

// ActiveRuleVersion returns the newest rule_version that still has active
// rows. Empty string means the reference tables were never seeded.
func ActiveRuleVersion(tx *gorm.DB) (string, error) {
	var version *string
	err := tx.Model(&TransactionCodeRule{}).
		Select("max(rule_version)").
		Where("is_active = ?", true).
		Scan(&version).Error
	if err != nil {
		return "", err
	}
	if version == nil {
		return "", nil
	}
	return *version, nil
}
