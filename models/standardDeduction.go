package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

type StandardDeduction struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RuleVersion  string          `gorm:"size:20;not null;uniqueIndex:idx_deduction_rule_version" json:"rule_version"`
	Year         int             `gorm:"not null;uniqueIndex:idx_deduction_rule_version" json:"year"`
	FilingStatus FilingStatus    `gorm:"size:40;not null;uniqueIndex:idx_deduction_rule_version" json:"filing_status"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	IsActive     *bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (d StandardDeduction) GetId() int {
	return d.ID
}

func GetStandardDeductions(ctx context.Context, ruleVersion string) ([]StandardDeduction, error) {
	db := config.GetDB()
	var results []StandardDeduction
	err := db.WithContext(ctx).
		Where("rule_version = ? AND is_active = ?", ruleVersion, true).
		Order("year, filing_status").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

var standardDeductionAmounts = map[int]map[FilingStatus]int64{
	2023: {
		FilingStatusSingle:                  13850,
		FilingStatusMarriedFilingJointly:    27700,
		FilingStatusMarriedFilingSeparately: 13850,
		FilingStatusHeadOfHousehold:         20800,
	},
	2024: {
		FilingStatusSingle:                  14600,
		FilingStatusMarriedFilingJointly:    29200,
		FilingStatusMarriedFilingSeparately: 14600,
		FilingStatusHeadOfHousehold:         21900,
	},
}

func defaultStandardDeductions(ruleVersion string) []StandardDeduction {
	var results []StandardDeduction
	for year, byStatus := range standardDeductionAmounts {
		for status, amount := range byStatus {
			results = append(results, StandardDeduction{
				RuleVersion:  ruleVersion,
				Year:         year,
				FilingStatus: status,
				Amount:       decimal.NewFromInt(amount),
				IsActive:     utils.NewTrue(),
			})
		}
	}
	return results
}
