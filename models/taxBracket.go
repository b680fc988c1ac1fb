package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// TaxBracket is one step of a marginal rate table. Floor is the lower bound
// of the step; the ceiling is the next step's floor.
type TaxBracket struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RuleVersion  string          `gorm:"size:20;not null;uniqueIndex:idx_bracket_rule_version" json:"rule_version"`
	Year         int             `gorm:"not null;uniqueIndex:idx_bracket_rule_version" json:"year"`
	FilingStatus FilingStatus    `gorm:"size:40;not null;uniqueIndex:idx_bracket_rule_version" json:"filing_status"`
	BracketOrder int             `gorm:"not null;uniqueIndex:idx_bracket_rule_version" json:"bracket_order"`
	Floor        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"floor"`
	Rate         decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"rate"`
	IsActive     *bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (b TaxBracket) GetId() int {
	return b.ID
}

func GetTaxBrackets(ctx context.Context, ruleVersion string) ([]TaxBracket, error) {
	db := config.GetDB()
	var results []TaxBracket
	err := db.WithContext(ctx).
		Where("rule_version = ? AND is_active = ?", ruleVersion, true).
		Order("year, filing_status, bracket_order").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

var bracketRates = []float64{0.10, 0.12, 0.22, 0.24, 0.32, 0.35, 0.37}

// bracketFloors holds the published federal rate-table floors per year and
// filing status, one floor per rate above.
var bracketFloors = map[int]map[FilingStatus][]int64{
	2023: {
		FilingStatusSingle:                  {0, 11000, 44725, 95375, 182100, 231250, 578125},
		FilingStatusMarriedFilingJointly:    {0, 22000, 89450, 190750, 364200, 462500, 693750},
		FilingStatusMarriedFilingSeparately: {0, 11000, 44725, 95375, 182100, 231250, 346875},
		FilingStatusHeadOfHousehold:         {0, 15700, 59850, 95350, 182100, 231250, 578100},
	},
	2024: {
		FilingStatusSingle:                  {0, 11600, 47150, 100525, 191950, 243725, 609350},
		FilingStatusMarriedFilingJointly:    {0, 23200, 94300, 201050, 383900, 487450, 731200},
		FilingStatusMarriedFilingSeparately: {0, 11600, 47150, 100525, 191950, 243725, 365600},
		FilingStatusHeadOfHousehold:         {0, 16550, 63100, 100500, 191950, 243700, 609350},
	},
}

func defaultTaxBrackets(ruleVersion string) []TaxBracket {
	var results []TaxBracket
	for year, byStatus := range bracketFloors {
		for status, floors := range byStatus {
			for i, floor := range floors {
				results = append(results, TaxBracket{
					RuleVersion:  ruleVersion,
					Year:         year,
					FilingStatus: status,
					BracketOrder: i + 1,
					Floor:        decimal.NewFromInt(floor),
					Rate:         decimal.NewFromFloat(bracketRates[i]),
					IsActive:     utils.NewTrue(),
				})
			}
		}
	}
	return results
}
