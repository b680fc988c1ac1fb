package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// RawDocument is the bronze layer: the payload exactly as received, before
// any extraction. Rows are never updated by extraction except for status and
// failure reason, so a re-run can always start from the original bytes.
type RawDocument struct {
	ID            int               `gorm:"primary_key" json:"id"`
	CaseId        int               `gorm:"not null;index" json:"case_id"`
	Kind          DocumentKind      `gorm:"size:32;not null" json:"kind"`
	SequenceNo    int64             `gorm:"not null;default:0" json:"sequence_no"`
	Payload       []byte            `gorm:"type:json" json:"payload"`
	Status        RawDocumentStatus `gorm:"size:20;not null;default:Pending;index" json:"status"`
	FailureReason *string           `gorm:"size:512" json:"failure_reason"`
	Source        string            `gorm:"size:32;not null;default:api" json:"source"`
	ExternalRef   *string           `gorm:"size:255" json:"external_ref"`
	ArchiveObject *string           `gorm:"size:512" json:"archive_object"`
	FetchedAt     *time.Time        `json:"fetched_at"`
	ProcessedAt   *time.Time        `json:"processed_at"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d RawDocument) GetCaseId() int {
	return d.CaseId
}

func (d RawDocument) GetId() int {
	return d.ID
}

type NewRawDocument struct {
	CaseId      int             `json:"case_id" binding:"required"`
	Kind        string          `json:"kind" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
	Source      string          `json:"source"`
	ExternalRef *string         `json:"external_ref"`
	FetchedAt   *time.Time      `json:"fetched_at"`
}

func (input NewRawDocument) validate(ctx context.Context) (DocumentKind, error) {
	if err := validateCaseExists(ctx, input.CaseId); err != nil {
		return "", err
	}
	kind, ok := ParseDocumentKind(input.Kind)
	if !ok {
		return "", utils.ErrorUnknownDocumentKind
	}
	if len(input.Payload) == 0 || !json.Valid(input.Payload) {
		return "", utils.ErrorMalformedDocument
	}
	return kind, nil
}

// CreateRawDocument ingests a document: bronze row plus an outbox event in
// one transaction. Extraction happens asynchronously when the event is
// consumed, so the returned document is still Pending.
func CreateRawDocument(ctx context.Context, input NewRawDocument) (*RawDocument, *CaseEventRecord, error) {
	kind, err := input.validate(ctx)
	if err != nil {
		return nil, nil, err
	}

	caseRecord, err := GetCase(ctx, input.CaseId)
	if err != nil {
		return nil, nil, err
	}

	seqNo, err := utils.GetSequence[RawDocument](ctx, input.CaseId)
	if err != nil {
		return nil, nil, err
	}

	source := input.Source
	if source == "" {
		source = "api"
	}

	document := RawDocument{
		CaseId:      input.CaseId,
		Kind:        kind,
		SequenceNo:  seqNo,
		Payload:     []byte(input.Payload),
		Status:      RawDocumentStatusPending,
		Source:      source,
		ExternalRef: input.ExternalRef,
		FetchedAt:   input.FetchedAt,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}

	if err := tx.Create(&document).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	eventTime := time.Now().UTC()
	if input.FetchedAt != nil {
		eventTime = input.FetchedAt.UTC()
	}
	event, err := PublishCaseEvent(ctx, tx, caseRecord.ID, caseRecord.CaseNumber,
		eventTime, document.ID, kind, CaseEventActionDocumentIngested)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &document, event, nil
}

// MarkRawDocumentProcessed runs inside the extraction transaction.
func MarkRawDocumentProcessed(tx *gorm.DB, documentId int) error {
	now := time.Now().UTC()
	return tx.Model(&RawDocument{}).Where("id = ?", documentId).
		Updates(map[string]interface{}{
			"status":         RawDocumentStatusProcessed,
			"failure_reason": nil,
			"processed_at":   &now,
		}).Error
}

func MarkRawDocumentFailed(tx *gorm.DB, documentId int, reason string) error {
	now := time.Now().UTC()
	if len(reason) > 512 {
		reason = reason[:512]
	}
	return tx.Model(&RawDocument{}).Where("id = ?", documentId).
		Updates(map[string]interface{}{
			"status":         RawDocumentStatusFailed,
			"failure_reason": reason,
			"processed_at":   &now,
		}).Error
}

// MarkRawDocumentSkipped parks a document whose kind is capture-only or
// disabled. The row keeps status Skipped until the kind is re-enabled and a
// reprocess picks it up.
func MarkRawDocumentSkipped(tx *gorm.DB, documentId int, reason string) error {
	now := time.Now().UTC()
	return tx.Model(&RawDocument{}).Where("id = ?", documentId).
		Updates(map[string]interface{}{
			"status":         RawDocumentStatusSkipped,
			"failure_reason": reason,
			"processed_at":   &now,
		}).Error
}

// SetRawDocumentArchive stamps the GCS object the payload was archived under.
func SetRawDocumentArchive(ctx context.Context, documentId int, objectName string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&RawDocument{}).Where("id = ?", documentId).
		UpdateColumn("archive_object", &objectName).Error
}

func GetRawDocument(ctx context.Context, caseId int, id int) (*RawDocument, error) {
	return utils.FetchModel[RawDocument](ctx, caseId, id)
}

func GetRawDocuments(ctx context.Context, caseId int, kind *string, status *string) ([]RawDocument, error) {
	if err := validateCaseExists(ctx, caseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Where("case_id = ?", caseId)
	if kind != nil && *kind != "" {
		query = query.Where("kind = ?", *kind)
	}
	if status != nil && *status != "" {
		query = query.Where("status = ?", *status)
	}

	var results []RawDocument
	if err := query.Order("sequence_no, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetExtractableRawDocuments loads every document the recompute consumer
// still has to extract, in ingest order. Skipped documents come back too so
// a re-enabled kind is picked up without manual intervention.
func GetExtractableRawDocuments(tx *gorm.DB, caseId int) ([]RawDocument, error) {
	var results []RawDocument
	err := tx.Where("case_id = ? AND status IN ?", caseId,
		[]RawDocumentStatus{RawDocumentStatusPending, RawDocumentStatusSkipped}).
		Order("sequence_no, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetLatestDocumentPerKind returns, for each kind, the most recently ingested
// processed document of a case. Used by the case summary to report document
// freshness.
func GetLatestDocumentPerKind(ctx context.Context, caseId int) (map[DocumentKind]RawDocument, error) {
	var rows []RawDocument
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("case_id = ? AND status = ?", caseId, RawDocumentStatusProcessed).
		Order("sequence_no, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[DocumentKind]RawDocument)
	for _, row := range rows {
		latest[row.Kind] = row
	}
	return latest, nil
}
