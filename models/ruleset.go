package models

import (
	"context"
	"fmt"
	"sort"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rulesetCacheKey = "Ruleset:active"

// BracketStep is one marginal step after loading, ordered by floor.
type BracketStep struct {
	Floor decimal.Decimal `json:"floor"`
	Rate  decimal.Decimal `json:"rate"`
}

// Ruleset is the active reference data loaded into memory for one recompute.
// Map keys are strings so the whole thing serializes into the redis cache.
type Ruleset struct {
	RuleVersion         string                            `json:"rule_version"`
	TransactionCodes    map[string]TransactionCodeRule    `json:"transaction_codes"`
	IncomeDocumentTypes map[string]IncomeDocumentTypeRule `json:"income_document_types"`
	TaxBrackets         map[string][]BracketStep          `json:"tax_brackets"`
	StandardDeductions  map[string]decimal.Decimal        `json:"standard_deductions"`
	ExpenseStandards    map[string]decimal.Decimal        `json:"expense_standards"`
}

func yearStatusKey(year int, status FilingStatus) string {
	return fmt.Sprintf("%d|%s", year, status)
}

func expenseStandardKey(locality string, householdSize int, category string) string {
	return fmt.Sprintf("%s|%d|%s", locality, householdSize, category)
}

// LoadActiveRuleset returns the active reference data, from redis when a
// recent recompute already loaded it, else from the DB. A missing seed is an
// error; the engine never runs on an empty ruleset.
func LoadActiveRuleset(ctx context.Context) (*Ruleset, error) {
	var cached *Ruleset
	exists, err := config.GetRedisObject(rulesetCacheKey, &cached)
	if err != nil {
		return nil, err
	}
	if exists && cached != nil && cached.RuleVersion != "" {
		return cached, nil
	}

	db := config.GetDB()
	version, err := ActiveRuleVersion(db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, utils.ErrorReferenceDataMissing
	}

	ruleset, err := buildRuleset(ctx, version)
	if err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(rulesetCacheKey, ruleset, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return ruleset, nil
}

func buildRuleset(ctx context.Context, version string) (*Ruleset, error) {
	ruleset := Ruleset{
		RuleVersion:         version,
		TransactionCodes:    map[string]TransactionCodeRule{},
		IncomeDocumentTypes: map[string]IncomeDocumentTypeRule{},
		TaxBrackets:         map[string][]BracketStep{},
		StandardDeductions:  map[string]decimal.Decimal{},
		ExpenseStandards:    map[string]decimal.Decimal{},
	}

	codeRules, err := GetTransactionCodeRules(ctx, version)
	if err != nil {
		return nil, err
	}
	for _, rule := range codeRules {
		ruleset.TransactionCodes[rule.Code] = rule
	}

	formRules, err := GetIncomeDocumentTypeRules(ctx, version)
	if err != nil {
		return nil, err
	}
	for _, rule := range formRules {
		ruleset.IncomeDocumentTypes[rule.FormCode] = rule
	}

	brackets, err := GetTaxBrackets(ctx, version)
	if err != nil {
		return nil, err
	}
	for _, bracket := range brackets {
		key := yearStatusKey(bracket.Year, bracket.FilingStatus)
		ruleset.TaxBrackets[key] = append(ruleset.TaxBrackets[key], BracketStep{
			Floor: bracket.Floor,
			Rate:  bracket.Rate,
		})
	}
	for key := range ruleset.TaxBrackets {
		steps := ruleset.TaxBrackets[key]
		sort.Slice(steps, func(i, j int) bool {
			return steps[i].Floor.LessThan(steps[j].Floor)
		})
		ruleset.TaxBrackets[key] = steps
	}

	deductions, err := GetStandardDeductions(ctx, version)
	if err != nil {
		return nil, err
	}
	for _, deduction := range deductions {
		ruleset.StandardDeductions[yearStatusKey(deduction.Year, deduction.FilingStatus)] = deduction.Amount
	}

	standards, err := GetExpenseStandards(ctx, version)
	if err != nil {
		return nil, err
	}
	for _, standard := range standards {
		key := expenseStandardKey(standard.Locality, standard.HouseholdSize, standard.Category)
		ruleset.ExpenseStandards[key] = standard.MonthlyAmount
	}

	return &ruleset, nil
}

func (r *Ruleset) TransactionCode(code string) (TransactionCodeRule, bool) {
	rule, ok := r.TransactionCodes[code]
	return rule, ok
}

func (r *Ruleset) IncomeDocumentType(formCode string) (IncomeDocumentTypeRule, bool) {
	rule, ok := r.IncomeDocumentTypes[formCode]
	return rule, ok
}

func (r *Ruleset) Brackets(year int, status FilingStatus) ([]BracketStep, bool) {
	steps, ok := r.TaxBrackets[yearStatusKey(year, status)]
	if !ok || len(steps) == 0 {
		return nil, false
	}
	return steps, true
}

func (r *Ruleset) StandardDeduction(year int, status FilingStatus) (decimal.Decimal, bool) {
	amount, ok := r.StandardDeductions[yearStatusKey(year, status)]
	return amount, ok
}

// clampHouseholdSize folds larger households onto the biggest seeded size.
func clampHouseholdSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > 4 {
		return 4
	}
	return size
}

func (r *Ruleset) NationalStandard(category string, householdSize int) (decimal.Decimal, bool) {
	key := expenseStandardKey(ExpenseLocalityNational, clampHouseholdSize(householdSize), category)
	amount, ok := r.ExpenseStandards[key]
	return amount, ok
}

// HousingStandard prefers the county-level amount and falls back to the
// national row when the locality was never seeded.
func (r *Ruleset) HousingStandard(state string, county string, householdSize int) (decimal.Decimal, bool) {
	size := clampHouseholdSize(householdSize)
	if state != "" && county != "" {
		locality := fmt.Sprintf("%s:%s", state, county)
		if amount, ok := r.ExpenseStandards[expenseStandardKey(locality, size, ExpenseCategoryHousing)]; ok {
			return amount, true
		}
	}
	return r.NationalStandard(ExpenseCategoryHousing, size)
}

func (r *Ruleset) TransportationStandard(householdSize int) (decimal.Decimal, bool) {
	return r.NationalStandard(ExpenseCategoryTransportation, householdSize)
}

// SeedReferenceData installs a complete rule version inside one transaction
// and drops the cached ruleset so the next recompute picks it up. Seeding an
// existing version is a no-op, which keeps boot-time seeding idempotent.
func SeedReferenceData(ctx context.Context, ruleVersion string) error {
	if ruleVersion == "" {
		return fmt.Errorf("rule version is required")
	}

	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&TransactionCodeRule{}).
		Where("rule_version = ?", ruleVersion).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	seedBatches := []func(*gorm.DB) error{
		func(tx *gorm.DB) error {
			rows := defaultTransactionCodeRules(ruleVersion)
			return tx.Create(&rows).Error
		},
		func(tx *gorm.DB) error {
			rows := defaultIncomeDocumentTypeRules(ruleVersion)
			return tx.Create(&rows).Error
		},
		func(tx *gorm.DB) error {
			rows := defaultTaxBrackets(ruleVersion)
			return tx.Create(&rows).Error
		},
		func(tx *gorm.DB) error {
			rows := defaultStandardDeductions(ruleVersion)
			return tx.Create(&rows).Error
		},
		func(tx *gorm.DB) error {
			rows := defaultExpenseStandards(ruleVersion)
			return tx.Create(&rows).Error
		},
	}
	for _, seed := range seedBatches {
		if err := seed(tx); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	return utils.ClearRulesetCache()
}
