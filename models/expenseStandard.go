package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// Locality for national standards; local housing standards use "ST:County".
const ExpenseLocalityNational = "national"

// Expense categories used by the resolution engine. The five national
// categories allow the greater of actual and standard; housing and
// transportation do too, with locality-specific amounts.
const (
	ExpenseCategoryFood           = "food"
	ExpenseCategoryHousekeeping   = "housekeeping"
	ExpenseCategoryApparel        = "apparel"
	ExpenseCategoryPersonalCare   = "personal_care"
	ExpenseCategoryMisc           = "misc"
	ExpenseCategoryHousing        = "housing"
	ExpenseCategoryTransportation = "transportation"
)

type ExpenseStandard struct {
	ID            int             `gorm:"primary_key" json:"id"`
	RuleVersion   string          `gorm:"size:20;not null;uniqueIndex:idx_standard_rule_version" json:"rule_version"`
	Locality      string          `gorm:"size:64;not null;uniqueIndex:idx_standard_rule_version" json:"locality"`
	HouseholdSize int             `gorm:"not null;uniqueIndex:idx_standard_rule_version" json:"household_size"`
	Category      string          `gorm:"size:32;not null;uniqueIndex:idx_standard_rule_version" json:"category"`
	MonthlyAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"monthly_amount"`
	IsActive      *bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (s ExpenseStandard) GetId() int {
	return s.ID
}

func GetExpenseStandards(ctx context.Context, ruleVersion string) ([]ExpenseStandard, error) {
	db := config.GetDB()
	var results []ExpenseStandard
	err := db.WithContext(ctx).
		Where("rule_version = ? AND is_active = ?", ruleVersion, true).
		Order("locality, category, household_size").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Published allowable living expense amounts, monthly, by household size
// 1 through 4. Sizes beyond 4 reuse the size-4 amount at lookup time.
var nationalStandardAmounts = map[string][4]int64{
	ExpenseCategoryFood:         {458, 819, 964, 1176},
	ExpenseCategoryHousekeeping: {45, 82, 98, 120},
	ExpenseCategoryApparel:      {88, 160, 206, 251},
	ExpenseCategoryPersonalCare: {45, 82, 87, 101},
	ExpenseCategoryMisc:         {170, 302, 339, 418},
	// Vehicle ownership and operating combined, capped at two vehicles.
	ExpenseCategoryTransportation: {589, 1178, 1178, 1178},
	// Fallback when a case's county has no local housing standard.
	ExpenseCategoryHousing: {1741, 2045, 2155, 2403},
}

var localHousingAmounts = map[string][4]int64{
	"CA:Los Angeles": {2270, 2666, 2809, 3133},
	"NY:New York":    {2578, 3028, 3190, 3558},
	"TX:Harris":      {1647, 1934, 2038, 2273},
	"FL:Miami-Dade":  {1944, 2282, 2405, 2682},
	"IL:Cook":        {1862, 2186, 2303, 2569},
}

func defaultExpenseStandards(ruleVersion string) []ExpenseStandard {
	var results []ExpenseStandard
	appendRows := func(locality string, category string, amounts [4]int64) {
		for size := 1; size <= 4; size++ {
			results = append(results, ExpenseStandard{
				RuleVersion:   ruleVersion,
				Locality:      locality,
				HouseholdSize: size,
				Category:      category,
				MonthlyAmount: decimal.NewFromInt(amounts[size-1]),
				IsActive:      utils.NewTrue(),
			})
		}
	}
	for category, amounts := range nationalStandardAmounts {
		appendRows(ExpenseLocalityNational, category, amounts)
	}
	for locality, amounts := range localHousingAmounts {
		appendRows(locality, ExpenseCategoryHousing, amounts)
	}
	return results
}
