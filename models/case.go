package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// Case is the root entity. CaseNumber is the external identifier handed out
// by the case-management system; every API route addresses cases by it.
type Case struct {
	ID           int     `gorm:"primary_key" json:"id"`
	CaseNumber   string  `gorm:"size:64;not null;uniqueIndex" json:"case_number" binding:"required"`
	TaxpayerName string  `gorm:"size:255" json:"taxpayer_name"`
	TaxpayerSSN  *string `gorm:"size:16" json:"taxpayer_ssn"`
	SpouseName   *string `gorm:"size:255" json:"spouse_name"`
	// SpouseSSN attributes wage documents to the spouse filer during extraction.
	SpouseSSN        *string    `gorm:"size:16" json:"spouse_ssn"`
	IsActive         *bool      `gorm:"not null;default:true" json:"is_active"`
	LastRecomputedAt *time.Time `json:"last_recomputed_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	TaxYears []TaxYear `gorm:"foreignKey:CaseId" json:"tax_years,omitempty"`
}

func (c Case) GetCaseId() int {
	return c.ID
}

func (c *Case) StoreRedis() error {
	return config.SetRedisObject("Case:"+c.CaseNumber, c, 0)
}

func (c *Case) RemoveRedis() error {
	return config.RemoveRedisKey("Case:" + c.CaseNumber)
}

type NewCase struct {
	CaseNumber   string  `json:"case_number" binding:"required"`
	TaxpayerName string  `json:"taxpayer_name"`
	TaxpayerSSN  *string `json:"taxpayer_ssn"`
	SpouseName   *string `json:"spouse_name"`
	SpouseSSN    *string `json:"spouse_ssn"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewCase) validate(ctx context.Context, id int) error {
	if input.CaseNumber == "" {
		return errors.New("case number is required")
	}
	if err := utils.ValidateUnique[Case](ctx, 0, "case_number", input.CaseNumber, id); err != nil {
		return err
	}
	return nil
}

func CreateCase(ctx context.Context, input *NewCase) (*Case, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	caseRecord := Case{
		CaseNumber:   input.CaseNumber,
		TaxpayerName: input.TaxpayerName,
		TaxpayerSSN:  input.TaxpayerSSN,
		SpouseName:   input.SpouseName,
		SpouseSSN:    input.SpouseSSN,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Create(&caseRecord).Error
	if err != nil {
		return nil, err
	}
	return &caseRecord, nil
}

func UpdateCase(ctx context.Context, id int, input *NewCase) (*Case, error) {
	beforeUpdate, err := utils.FetchSingleModel[Case](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	updateCase := Case{
		ID:           id,
		CaseNumber:   input.CaseNumber,
		TaxpayerName: input.TaxpayerName,
		TaxpayerSSN:  input.TaxpayerSSN,
		SpouseName:   input.SpouseName,
		SpouseSSN:    input.SpouseSSN,
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Model(&updateCase).Updates(map[string]interface{}{
		"CaseNumber":   updateCase.CaseNumber,
		"TaxpayerName": updateCase.TaxpayerName,
		"TaxpayerSSN":  updateCase.TaxpayerSSN,
		"SpouseName":   updateCase.SpouseName,
		"SpouseSSN":    updateCase.SpouseSSN,
	}).Error
	if err != nil {
		return nil, err
	}

	// the cache key follows the case number, so drop both old and new entries
	if err := beforeUpdate.RemoveRedis(); err != nil {
		return nil, err
	}
	if err := updateCase.RemoveRedis(); err != nil {
		return nil, err
	}
	if err := updateCase.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &updateCase, nil
}

func GetCase(ctx context.Context, id int, associations ...string) (*Case, error) {
	return utils.FetchSingleModel[Case](ctx, id, associations...)
}

// GetCaseByNumber resolves the external case number, redis first then db.
func GetCaseByNumber(ctx context.Context, caseNumber string) (*Case, error) {
	if caseNumber == "" {
		return nil, errors.New("case number is required")
	}

	var result Case

	exists, err := config.GetRedisObject("Case:"+caseNumber, &result)
	if err != nil {
		return nil, err
	}

	if !exists {
		db := config.GetDB()
		// db query
		err := db.WithContext(ctx).Where("case_number = ?", caseNumber).First(&result).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		// caching
		if err := result.StoreRedis(); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

func GetCases(ctx context.Context, caseNumber *string, isActive *bool) ([]*Case, error) {
	var results []*Case
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Case{})
	if caseNumber != nil && *caseNumber != "" {
		dbCtx = dbCtx.Where("case_number LIKE ?", "%"+*caseNumber+"%")
	}
	if isActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *isActive)
	}
	// db query
	err := dbCtx.Order("case_number").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetActiveCases feeds the upstream sync worker.
func GetActiveCases(ctx context.Context) ([]*Case, error) {
	return GetCases(ctx, nil, utils.NewTrue())
}

func ToggleActiveCase(ctx context.Context, id int, isActive bool) (*Case, error) {
	return ToggleActiveModel[Case](ctx, id, isActive)
}

// MarkCaseRecomputed stamps the case after a successful gold rebuild.
func MarkCaseRecomputed(tx *gorm.DB, caseId int, at time.Time) error {
	return tx.Model(&Case{}).Where("id = ?", caseId).
		UpdateColumn("last_recomputed_at", &at).Error
}

func (c Case) RemoveInstanceRedis() error {
	return c.RemoveRedis()
}

func (c Case) RemoveAllRedis() error {
	return utils.ClearRedisAdmin[Case]()
}

func (c Case) GetId() int {
	return c.ID
}

// CaseLockKey is the redis key the recompute lock lives under.
func CaseLockKey(caseNumber string) string {
	return fmt.Sprintf("%s:%s", RecomputeLock, caseNumber)
}
