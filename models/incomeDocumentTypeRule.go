package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
)

// IncomeDocumentTypeRule classifies a wage-and-income form code. Form codes
// are stored normalized (uppercase, trimmed) and matched the same way.
type IncomeDocumentTypeRule struct {
	ID               int       `gorm:"primary_key" json:"id"`
	RuleVersion      string    `gorm:"size:20;not null;uniqueIndex:idx_form_rule_version" json:"rule_version"`
	FormCode         string    `gorm:"size:32;not null;uniqueIndex:idx_form_rule_version" json:"form_code"`
	Category         string    `gorm:"size:64;not null" json:"category"`
	IsSelfEmployment *bool     `gorm:"default:false" json:"is_self_employment"`
	IsActive         *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r IncomeDocumentTypeRule) GetId() int {
	return r.ID
}

func GetIncomeDocumentTypeRules(ctx context.Context, ruleVersion string) ([]IncomeDocumentTypeRule, error) {
	db := config.GetDB()
	var results []IncomeDocumentTypeRule
	err := db.WithContext(ctx).
		Where("rule_version = ? AND is_active = ?", ruleVersion, true).
		Order("form_code").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func defaultIncomeDocumentTypeRules(ruleVersion string) []IncomeDocumentTypeRule {
	type row struct {
		form     string
		category string
		selfEmp  bool
	}
	rows := []row{
		{"W-2", "wages", false},
		{"W-2G", "gambling_winnings", false},
		{"1099-NEC", "nonemployee_compensation", true},
		{"1099-MISC", "miscellaneous_income", true},
		{"1099-K", "payment_card_income", true},
		{"1099-INT", "interest", false},
		{"1099-DIV", "dividends", false},
		{"1099-R", "retirement_distributions", false},
		{"1099-G", "government_payments", false},
		{"1099-B", "broker_proceeds", false},
		{"1099-S", "real_estate_proceeds", false},
		{"SSA-1099", "social_security", false},
		{"1098", "mortgage_interest", false},
		{"5498", "ira_contributions", false},
	}

	results := make([]IncomeDocumentTypeRule, 0, len(rows))
	for _, r := range rows {
		results = append(results, IncomeDocumentTypeRule{
			RuleVersion:      ruleVersion,
			FormCode:         r.form,
			Category:         r.category,
			IsSelfEmployment: utils.NewBool(r.selfEmp),
			IsActive:         utils.NewTrue(),
		})
	}
	return results
}
