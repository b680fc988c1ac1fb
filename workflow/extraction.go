package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// ExtractRawDocument promotes one bronze row to silver. The contract is
// deliberately forgiving: only an undecodable payload or an unknown kind is a
// document-level failure; every recoverable problem inside the payload
// degrades to null fields, "Unknown" classifications, or a per-record row in
// extraction_failures. The bronze status always lands on Processed, Failed or
// Skipped, so a re-run can tell what still needs work.
func ExtractRawDocument(tx *gorm.DB, ruleset *models.Ruleset, caseRecord *models.Case, doc *models.RawDocument) error {
	if config.ExtractionDisabledFor(string(doc.Kind)) {
		return models.MarkRawDocumentSkipped(tx, doc.ID,
			fmt.Sprintf("extraction disabled for kind %s", doc.Kind))
	}

	// Re-extraction replaces the previous run's failure list wholesale.
	if err := models.ClearExtractionFailures(tx, doc.ID); err != nil {
		return err
	}

	var payload map[string]any
	if err := json.Unmarshal(doc.Payload, &payload); err != nil {
		return models.MarkRawDocumentFailed(tx, doc.ID, utils.ErrorMalformedDocument.Error())
	}

	var err error
	switch doc.Kind {
	case models.DocumentKindAccountTranscript:
		err = extractAccountTranscript(tx, ruleset, caseRecord, doc, payload)
	case models.DocumentKindWageIncome:
		err = extractWageIncome(tx, ruleset, caseRecord, doc, payload)
	case models.DocumentKindInterview:
		err = extractInterview(tx, caseRecord, doc, payload)
	case models.DocumentKindTaxReturnTranscript:
		// TRT is capture-only: the row counts toward document health but
		// nothing is derived from it.
		err = nil
	default:
		return models.MarkRawDocumentFailed(tx, doc.ID, utils.ErrorUnknownDocumentKind.Error())
	}
	if err != nil {
		return err
	}

	return models.MarkRawDocumentProcessed(tx, doc.ID)
}

// ExtractPendingDocuments runs every Pending or Skipped bronze row of a case
// through extraction, one transaction per document so a crash mid-batch never
// leaves a half-written document. Returns how many documents were attempted.
func ExtractPendingDocuments(ctx context.Context, caseRecord *models.Case) (int, error) {
	ruleset, err := models.LoadActiveRuleset(ctx)
	if err != nil {
		return 0, err
	}

	db := config.GetDB()
	var docs []models.RawDocument
	if err := db.WithContext(ctx).
		Where("case_id = ? AND status IN ?", caseRecord.ID,
			[]models.RawDocumentStatus{models.RawDocumentStatusPending, models.RawDocumentStatusSkipped}).
		Order("sequence_no, id").
		Find(&docs).Error; err != nil {
		return 0, err
	}

	logger := config.GetLogger()
	attempted := 0
	for i := range docs {
		doc := docs[i]
		attempted++
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return ExtractRawDocument(tx, ruleset, caseRecord, &doc)
		})
		if err != nil {
			// One bad document never blocks its siblings; the bronze row keeps
			// its status and the next run retries it.
			config.LogError(logger, "workflow", "ExtractPendingDocuments",
				"document extraction failed", map[string]any{
					"case_number": caseRecord.CaseNumber,
					"document_id": doc.ID,
					"kind":        doc.Kind,
				}, err)
		}
	}
	return attempted, nil
}

// recordExtractionFailure notes one skipped record without interrupting the
// document. Marshal errors on the offending record are swallowed; the reason
// string is what matters.
func recordExtractionFailure(tx *gorm.DB, caseRecord *models.Case, doc *models.RawDocument, index int, field string, reason string, record any) error {
	recordJSON, _ := json.Marshal(record)
	failure := models.ExtractionFailure{
		CaseId:      caseRecord.ID,
		DocumentId:  doc.ID,
		Kind:        doc.Kind,
		RecordIndex: &index,
		Reason:      reason,
		RecordJSON:  recordJSON,
	}
	if field != "" {
		failure.Field = &field
	}
	return models.CreateExtractionFailure(tx, &failure)
}
