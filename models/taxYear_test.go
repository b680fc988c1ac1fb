package models

import (
	"testing"

	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

func TestApplyTaxYearUpsert_ClearsStaleSupplementFlags(t *testing.T) {
	agi := decimal.NewFromInt(50000)
	existing := TaxYear{
		ID:               7,
		CaseId:           3,
		Year:             2019,
		IsSFR:            utils.NewTrue(),
		UnderExamination: utils.NewTrue(),
		ReturnFiled:      utils.NewTrue(),
		AGI:              &agi,
	}

	// A corrected transcript arrives without the SFR 150, the examination
	// codes, the filed marker, or an AGI.
	applyTaxYearUpsert(&existing, 3, &TaxYearUpsert{
		Year:             2019,
		FilerRole:        FilerRoleTaxpayer,
		IsSFR:            utils.NewFalse(),
		UnderExamination: utils.NewFalse(),
	})

	if utils.DereferencePtr(existing.IsSFR) {
		t.Fatalf("re-extraction must clear a stale SFR flag")
	}
	if utils.DereferencePtr(existing.UnderExamination) {
		t.Fatalf("re-extraction must clear a stale examination flag")
	}
	if utils.DereferencePtr(existing.ReturnFiled) {
		t.Fatalf("absent filed marker must reset to false")
	}
	if existing.AGI != nil {
		t.Fatalf("absent AGI must overwrite the stale value, got %v", existing.AGI)
	}
	if existing.ID != 7 {
		t.Fatalf("row identity must survive the overwrite, got id %d", existing.ID)
	}
	if existing.FilingStatus != FilingStatusUnknown {
		t.Fatalf("empty filing status must default to Unknown, got %s", existing.FilingStatus)
	}
}

func TestApplyTaxYearUpsert_NilFlagsDefaultFalse(t *testing.T) {
	var existing TaxYear

	applyTaxYearUpsert(&existing, 1, &TaxYearUpsert{Year: 2020})

	if existing.IsSFR == nil || *existing.IsSFR {
		t.Fatalf("nil SFR input must land as false, got %v", existing.IsSFR)
	}
	if existing.UnderExamination == nil || *existing.UnderExamination {
		t.Fatalf("nil examination input must land as false, got %v", existing.UnderExamination)
	}
	if existing.ReturnFiled == nil || *existing.ReturnFiled {
		t.Fatalf("nil filed input must land as false, got %v", existing.ReturnFiled)
	}
}
