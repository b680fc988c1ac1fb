package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncomeDocument is one wage-and-income form (W-2, 1099 family). IssuerKey is
// the natural-key discriminator: the issuer EIN when extraction found one,
// otherwise the issuer name, otherwise empty.
type IncomeDocument struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CaseId    int       `gorm:"not null;index" json:"case_id"`
	TaxYearId int       `gorm:"not null;index;uniqueIndex:idx_income_doc_natural,priority:1" json:"tax_year_id"`
	FormType  string    `gorm:"size:32;not null;uniqueIndex:idx_income_doc_natural,priority:2" json:"form_type"`
	IssuerKey string    `gorm:"size:255;not null;default:'';uniqueIndex:idx_income_doc_natural,priority:3" json:"issuer_key"`
	FilerRole FilerRole `gorm:"size:20;not null;default:'Taxpayer'" json:"filer_role"`

	GrossAmount        *decimal.Decimal `gorm:"type:decimal(20,4)" json:"gross_amount"`
	FederalWithholding *decimal.Decimal `gorm:"type:decimal(20,4)" json:"federal_withholding"`
	IssuerName         *string          `gorm:"size:255" json:"issuer_name"`
	IssuerEIN          *string          `gorm:"size:16" json:"issuer_ein"`
	RecipientName      *string          `gorm:"size:255" json:"recipient_name"`
	RecipientSSN       *string          `gorm:"size:16" json:"recipient_ssn"`

	Category         string `gorm:"size:64;not null;default:'Unknown'" json:"category"`
	IsSelfEmployment *bool  `gorm:"not null;default:false" json:"is_self_employment"`
	// IsExcluded removes the document from projections without deleting it.
	IsExcluded *bool `gorm:"not null;default:false" json:"is_excluded"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d IncomeDocument) GetCaseId() int {
	return d.CaseId
}

func (d IncomeDocument) GetId() int {
	return d.ID
}

// CheckRecomputeLock blocks edits while the owning case's gold rows are being
// rebuilt, so a toggle never races the projection that reads it.
func (d IncomeDocument) CheckRecomputeLock(ctx context.Context) error {
	caseRecord, err := GetCase(ctx, d.CaseId)
	if err != nil {
		return err
	}
	return checkRecomputeLock(caseRecord.CaseNumber)
}

// IssuerKeyFor picks the natural-key discriminator, EIN over name.
func IssuerKeyFor(issuerEIN *string, issuerName *string) string {
	if issuerEIN != nil && *issuerEIN != "" {
		return *issuerEIN
	}
	if issuerName != nil && *issuerName != "" {
		return *issuerName
	}
	return ""
}

// UpsertIncomeDocument writes one form by natural key
// (tax year, form type, issuer), last writer wins. IsExcluded survives
// re-extraction: the operator set it, the document did not.
func UpsertIncomeDocument(tx *gorm.DB, doc *IncomeDocument) (*IncomeDocument, error) {
	if doc.TaxYearId == 0 {
		return nil, errors.New("tax year id is required")
	}
	if doc.FormType == "" {
		return nil, errors.New("form type is required")
	}
	doc.IssuerKey = IssuerKeyFor(doc.IssuerEIN, doc.IssuerName)

	var existing IncomeDocument
	err := tx.Where("tax_year_id = ? AND form_type = ? AND issuer_key = ?",
		doc.TaxYearId, doc.FormType, doc.IssuerKey).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
		doc.IsExcluded = existing.IsExcluded
	}
	if doc.IsExcluded == nil {
		doc.IsExcluded = utils.NewFalse()
	}

	if err := tx.Save(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// GetIncomeDocument fetches one form through the per-item cache, scoped to
// the case. The exclusion toggle drops the cached copy.
func GetIncomeDocument(ctx context.Context, caseId int, id int) (*IncomeDocument, error) {
	return GetResource[IncomeDocument](ctx, caseId, id)
}

func GetIncomeDocuments(ctx context.Context, caseId int, year *int) ([]*IncomeDocument, error) {
	var results []*IncomeDocument
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
	if year != nil && *year > 0 {
		dbCtx = dbCtx.Where("tax_year_id IN (?)",
			db.WithContext(ctx).Model(&TaxYear{}).Select("id").
				Where("case_id = ? AND year = ?", caseId, *year))
	}
	// db query
	err := dbCtx.Order("tax_year_id, form_type, issuer_key").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SetIncomeDocumentExclusion toggles is_excluded and queues a recompute event
// in the same transaction, so projections always catch up with the toggle.
func SetIncomeDocumentExclusion(ctx context.Context, id int, isExcluded bool) (*IncomeDocument, error) {
	result, err := utils.FetchModelForChange[IncomeDocument](ctx, 0, id)
	if err != nil {
		return nil, err
	}

	caseRecord, err := GetCase(ctx, result.CaseId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(result).
		UpdateColumn("IsExcluded", isExcluded).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	issuer := utils.DereferencePtr(result.IssuerName, "unknown issuer")
	description := fmt.Sprintf("Included %s from %s in projections", result.FormType, issuer)
	if isExcluded {
		description = fmt.Sprintf("Excluded %s from %s from projections", result.FormType, issuer)
	}
	if err := createHistory(tx.WithContext(ctx), "UPDATE", id, "income_documents",
		map[string]interface{}{"is_excluded": result.IsExcluded},
		map[string]interface{}{"is_excluded": isExcluded},
		description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := PublishCaseEvent(ctx, tx.WithContext(ctx), caseRecord.ID, caseRecord.CaseNumber,
		time.Now().UTC(), 0, "", CaseEventActionExclusionChanged); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[IncomeDocument](id); err != nil {
		return nil, err
	}

	result.IsExcluded = &isExcluded
	return result, nil
}
