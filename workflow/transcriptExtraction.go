package workflow

import (
	"fmt"
	"strings"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// extractAccountTranscript promotes one account-transcript payload: one
// TaxYear upsert per transcript record plus one AccountActivityEvent upsert
// per transaction line, enriched from the active transaction-code rules.
func extractAccountTranscript(tx *gorm.DB, ruleset *models.Ruleset, caseRecord *models.Case, doc *models.RawDocument, payload map[string]any) error {
	records, ok := recordList(payload, "at_records", "records")
	if !ok {
		return models.MarkRawDocumentFailed(tx, doc.ID, utils.ErrorMalformedDocument.Error())
	}

	for index, raw := range records {
		record, ok := asObject(raw)
		if !ok {
			if err := recordExtractionFailure(tx, caseRecord, doc, index, "",
				"transcript record is not an object", raw); err != nil {
				return err
			}
			continue
		}

		year := resolveYear(record, "tax_year", "year", "period")
		if year == nil {
			if err := recordExtractionFailure(tx, caseRecord, doc, index, "tax_year",
				"transcript record has no parseable tax year", record); err != nil {
				return err
			}
			continue
		}

		upsert := models.TaxYearUpsert{
			Year:            *year,
			FilerRole:       models.FilerRoleTaxpayer,
			FilingStatus:    models.ParseFilingStatus(utils.DereferencePtr(resolveString(record, "filing_status", "status"))),
			ReturnFiledDate: resolveDate(record, "return_filed_date", "filed_date"),
			AGI:             resolveDecimal(record, "adjusted_gross_income", "agi"),
			TaxableIncome:   resolveDecimal(record, "taxable_income"),
			ReportedTax:     resolveDecimal(record, "tax_per_return"),
			CurrentBalance:  resolveDecimal(record, "total_balance", "account_balance"),
		}
		if filed := resolveString(record, "return_filed"); filed != nil && *filed == "Filed" {
			upsert.ReturnFiled = utils.NewTrue()
		}

		transactions, _ := recordList(record, "transactions")
		parsed := parseTranscriptTransactions(ruleset, caseRecord.ID, transactions)
		for _, failure := range parsed.Failures {
			// Filed under the transcript record's index; the transaction's
			// own position lives in the reason, so the two index spaces
			// never collide.
			if err := recordExtractionFailure(tx, caseRecord, doc, index,
				failure.Field, failure.Reason, failure.Record); err != nil {
				return err
			}
		}

		// Both flags are written on every pass so a corrected transcript
		// clears a stale true. An SFR assessment is not the taxpayer filing;
		// the 150 must not flip the filed flag unless the transcript said
		// "Filed" itself.
		upsert.IsSFR = utils.NewBool(parsed.IsSFR)
		upsert.UnderExamination = utils.NewBool(parsed.UnderExamination)

		taxYear, err := models.UpsertTaxYear(tx, caseRecord.ID, &upsert)
		if err != nil {
			return err
		}

		for i := range parsed.Events {
			parsed.Events[i].TaxYearId = taxYear.ID
			if _, err := models.UpsertActivityEvent(tx, &parsed.Events[i]); err != nil {
				return err
			}
		}
	}

	return nil
}

type transcriptTransactions struct {
	Events           []models.AccountActivityEvent
	Failures         []transactionFailure
	IsSFR            bool
	UnderExamination bool
}

type transactionFailure struct {
	Field  string
	Reason string
	Record any
}

// parseTranscriptTransactions enriches one record's transaction lines from
// the active transaction-code rules. Failed lines report their position
// inside the record via the reason string.
func parseTranscriptTransactions(ruleset *models.Ruleset, caseId int, transactions []any) transcriptTransactions {
	var parsed transcriptTransactions

	for txnIndex, rawTxn := range transactions {
		txnRecord, ok := asObject(rawTxn)
		if !ok {
			parsed.Failures = append(parsed.Failures, transactionFailure{
				Reason: fmt.Sprintf("transaction %d is not an object", txnIndex),
				Record: rawTxn,
			})
			continue
		}

		code := resolveString(txnRecord, "code", "transaction_code")
		if code == nil {
			parsed.Failures = append(parsed.Failures, transactionFailure{
				Field:  "code",
				Reason: fmt.Sprintf("transaction %d has no code", txnIndex),
				Record: txnRecord,
			})
			continue
		}

		event := models.AccountActivityEvent{
			CaseId:          caseId,
			Code:            *code,
			ActivityDate:    resolveDate(txnRecord, "date", "transaction_date", "activity_date"),
			Amount:          resolveDecimal(txnRecord, "amount"),
			Explanation:     utils.DereferencePtr(resolveString(txnRecord, "description", "explanation")),
			TransactionType: "Unknown",
			AffectsBalance:  utils.NewFalse(),
			AffectsCsed:     utils.NewFalse(),
			IndicatesCollectionAction: utils.NewFalse(),
			TollingCategory:           models.TollingCategoryNone,
		}
		if rule, ok := ruleset.TransactionCode(*code); ok {
			event.TransactionType = rule.TransactionType
			event.AffectsBalance = utils.NewBool(utils.DereferencePtr(rule.AffectsBalance))
			event.AffectsCsed = utils.NewBool(utils.DereferencePtr(rule.AffectsCsed))
			event.IndicatesCollectionAction = utils.NewBool(utils.DereferencePtr(rule.IndicatesCollectionAction))
			event.TollingCategory = rule.TollingCategory
			if utils.DereferencePtr(rule.IndicatesExamination) {
				parsed.UnderExamination = true
			}
		}
		if *code == "150" && explanationMentionsSFR(event.Explanation) {
			parsed.IsSFR = true
		}
		parsed.Events = append(parsed.Events, event)
	}

	return parsed
}

func explanationMentionsSFR(explanation string) bool {
	upper := strings.ToUpper(explanation)
	return strings.Contains(upper, "SFR") || strings.Contains(upper, "SUBSTITUTE")
}
