package workflow

import (
	"strings"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// Wage-and-income payloads arrive in three shapes: a flat {"forms": [...]},
// a flat {"data": [...]}, or the TiParser envelope
// {"years_data": {"2021": {"forms": [...]}}} where the year lives on the
// envelope key instead of the form.
type wageIncomeGroup struct {
	envelopeYear *int
	forms        []any
}

func wageIncomeGroups(payload map[string]any) ([]wageIncomeGroup, bool) {
	if forms, ok := recordList(payload, "forms", "data"); ok {
		return []wageIncomeGroup{{forms: forms}}, true
	}

	yearsData, ok := lookupPath(payload, "years_data")
	if !ok {
		return nil, false
	}
	envelope, ok := asObject(yearsData)
	if !ok {
		return nil, false
	}

	var groups []wageIncomeGroup
	for key, value := range envelope {
		group := wageIncomeGroup{envelopeYear: parseLenientYear(key)}
		switch v := value.(type) {
		case []any:
			group.forms = v
		case map[string]any:
			if forms, ok := recordList(v, "forms"); ok {
				group.forms = forms
			}
		}
		groups = append(groups, group)
	}
	return groups, true
}

func extractWageIncome(tx *gorm.DB, ruleset *models.Ruleset, caseRecord *models.Case, doc *models.RawDocument, payload map[string]any) error {
	groups, ok := wageIncomeGroups(payload)
	if !ok {
		return models.MarkRawDocumentFailed(tx, doc.ID, utils.ErrorMalformedDocument.Error())
	}

	index := 0
	for _, group := range groups {
		for _, raw := range group.forms {
			recordIndex := index
			index++

			record, ok := asObject(raw)
			if !ok {
				if err := recordExtractionFailure(tx, caseRecord, doc, recordIndex, "",
					"income form is not an object", raw); err != nil {
					return err
				}
				continue
			}

			year := resolveYear(record, "tax_year", "year")
			if year == nil {
				year = group.envelopeYear
			}
			if year == nil {
				if err := recordExtractionFailure(tx, caseRecord, doc, recordIndex, "tax_year",
					"income form has no parseable tax year", record); err != nil {
					return err
				}
				continue
			}

			formType := resolveFormType(record)
			if formType == "" {
				if err := recordExtractionFailure(tx, caseRecord, doc, recordIndex, "form_type",
					"income form has no recognizable form type", record); err != nil {
					return err
				}
				continue
			}

			income := models.IncomeDocument{
				CaseId:             caseRecord.ID,
				FormType:           formType,
				FilerRole:          models.FilerRoleTaxpayer,
				GrossAmount:        resolveDecimal(record, "Income", "income", "gross_amount", "amount", "Gross", "gross", "Wages", "wages", "Total", "total"),
				FederalWithholding: resolveDecimal(record, "Withholding", "withholding", "federal_withholding", "Federal", "federal", "FederalTaxWithheld"),
				IssuerName:         resolveString(record, "Issuer.Name", "Issuer.name", "issuer_name", "Employer", "employer_name", "EmployerName"),
				IssuerEIN:          resolveString(record, "Issuer.EIN", "Issuer.ein", "issuer_ein", "EIN", "ein", "EmployerEIN"),
				RecipientName:      resolveString(record, "Recipient.Name", "Recipient.name", "recipient_name", "Employee", "employee_name", "EmployeeName"),
				RecipientSSN:       resolveString(record, "Recipient.SSN", "Recipient.ssn", "recipient_ssn", "SSN", "ssn", "EmployeeSSN"),
				Category:           "Unknown",
				IsSelfEmployment:   utils.NewFalse(),
			}
			if rule, ok := ruleset.IncomeDocumentType(formType); ok {
				income.Category = rule.Category
				income.IsSelfEmployment = utils.NewBool(utils.DereferencePtr(rule.IsSelfEmployment))
			}
			if sameSSN(income.RecipientSSN, caseRecord.SpouseSSN) {
				income.FilerRole = models.FilerRoleSpouse
			}

			taxYear, err := models.GetOrCreateTaxYear(tx, caseRecord.ID, *year, income.FilerRole)
			if err != nil {
				return err
			}
			income.TaxYearId = taxYear.ID

			if _, err := models.UpsertIncomeDocument(tx, &income); err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveFormType works through the flat candidates, then the nested Form
// object, then falls back to scanning the record's string values for a known
// form token. Everything normalizes to upper-case trimmed.
func resolveFormType(record map[string]any) string {
	if s := resolveString(record,
		"Form", "form", "form_type", "document_type", "type",
		"FormType", "formCode", "FormCode", "Code", "code",
		"Form.Type", "Form.type", "Form.Code", "Form.code"); s != nil {
		return strings.ToUpper(strings.TrimSpace(*s))
	}
	return scanForFormToken(record)
}

// formTokens maps substrings found in free-form values to canonical form
// codes. Longer tokens come first so "W-2G" is not swallowed by "W-2".
var formTokens = []struct {
	token string
	code  string
}{
	{"SSA-1099", "SSA-1099"},
	{"1099-NEC", "1099-NEC"},
	{"1099-MISC", "1099-MISC"},
	{"1099-INT", "1099-INT"},
	{"1099-DIV", "1099-DIV"},
	{"1099-K", "1099-K"},
	{"1099-R", "1099-R"},
	{"1099-G", "1099-G"},
	{"1099-B", "1099-B"},
	{"1099-S", "1099-S"},
	{"W-2G", "W-2G"},
	{"W-2", "W-2"},
	{"W2G", "W-2G"},
	{"W2", "W-2"},
	{"1098", "1098"},
	{"5498", "5498"},
}

func scanForFormToken(record map[string]any) string {
	for _, value := range record {
		s, ok := value.(string)
		if !ok {
			continue
		}
		upper := strings.ToUpper(s)
		for _, candidate := range formTokens {
			if strings.Contains(upper, candidate.token) {
				return candidate.code
			}
		}
	}
	return ""
}

func sameSSN(a *string, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	return digitsOnly(*a) != "" && digitsOnly(*a) == digitsOnly(*b)
}

func digitsOnly(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}
