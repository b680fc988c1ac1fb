package models

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"gorm.io/gorm"
)

// ExtractionFailure records one skipped record from one document. A bad
// record never fails the document; it lands here with a reason while the
// rest of the document extracts normally.
type ExtractionFailure struct {
	ID          int          `gorm:"primary_key" json:"id"`
	CaseId      int          `gorm:"not null;index" json:"case_id"`
	DocumentId  int          `gorm:"not null;index" json:"document_id"`
	Kind        DocumentKind `gorm:"size:32;not null" json:"kind"`
	RecordIndex *int         `json:"record_index"`
	Field       *string      `gorm:"size:64" json:"field"`
	Reason      string       `gorm:"size:512;not null" json:"reason"`
	RecordJSON  []byte       `gorm:"type:json" json:"record"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (f ExtractionFailure) GetCaseId() int {
	return f.CaseId
}

func (f ExtractionFailure) GetId() int {
	return f.ID
}

func CreateExtractionFailure(tx *gorm.DB, failure *ExtractionFailure) error {
	if len(failure.Reason) > 512 {
		failure.Reason = failure.Reason[:512]
	}
	return tx.Create(failure).Error
}

// ClearExtractionFailures drops the failures of a document before it is
// re-extracted, so the table always reflects the latest run.
func ClearExtractionFailures(tx *gorm.DB, documentId int) error {
	return tx.Where("document_id = ?", documentId).Delete(&ExtractionFailure{}).Error
}

func GetExtractionFailures(ctx context.Context, caseId int, documentId *int) ([]ExtractionFailure, error) {
	if err := validateCaseExists(ctx, caseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Where("case_id = ?", caseId)
	if documentId != nil && *documentId > 0 {
		query = query.Where("document_id = ?", *documentId)
	}

	var results []ExtractionFailure
	if err := query.Order("document_id, record_index, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
