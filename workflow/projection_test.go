package workflow

import (
	"testing"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

func bracket(floor int64, rate string) models.BracketStep {
	r, _ := decimal.NewFromString(rate)
	return models.BracketStep{Floor: decimal.NewFromInt(floor), Rate: r}
}

func projectionRuleset() *models.Ruleset {
	return &models.Ruleset{
		RuleVersion: "test",
		TaxBrackets: map[string][]models.BracketStep{
			"2023|Single": {
				bracket(0, "0.10"),
				bracket(11000, "0.12"),
				bracket(44725, "0.22"),
			},
		},
		StandardDeductions: map[string]decimal.Decimal{
			"2023|Single": decimal.Zero,
		},
	}
}

func grossDoc(amount int64, selfEmployment bool, withholding int64) models.IncomeDocument {
	gross := decimal.NewFromInt(amount)
	wh := decimal.NewFromInt(withholding)
	return models.IncomeDocument{
		FormType:           "W-2",
		GrossAmount:        &gross,
		FederalWithholding: &wh,
		IsSelfEmployment:   utils.NewBool(selfEmployment),
		IsExcluded:         utils.NewFalse(),
	}
}

func TestBuildProjection_MarginalAccumulation(t *testing.T) {
	year := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{grossDoc(50000, false, 4000)},
	}

	projection := buildProjection(year, projectionRuleset(), time.Now().UTC())
	if projection == nil {
		t.Fatalf("expected a projection for an unfiled year with income")
	}
	if projection.Status != models.ProjectionStatusComputed {
		t.Fatalf("expected Computed, got %s (%v)", projection.Status, projection.UnavailableReason)
	}

	// 11,000×10% + 33,725×12% + 5,275×22% — never a flat top-rate multiply.
	wantTax := decimal.NewFromFloat(6307.50)
	if projection.IncomeTax == nil || !projection.IncomeTax.Equal(wantTax) {
		t.Fatalf("expected income tax %s, got %v", wantTax, projection.IncomeTax)
	}
	wantBalance := decimal.NewFromFloat(2307.50)
	if projection.ProjectedBalance == nil || !projection.ProjectedBalance.Equal(wantBalance) {
		t.Fatalf("expected projected balance %s, got %v", wantBalance, projection.ProjectedBalance)
	}
	if utils.DereferencePtr(projection.FilingStatusDefaulted) {
		t.Fatalf("status came from the transcript; it must not be flagged as defaulted")
	}
}

func TestBuildProjection_SelfEmployment(t *testing.T) {
	year := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{grossDoc(10000, true, 0)},
	}

	projection := buildProjection(year, projectionRuleset(), time.Now().UTC())
	if projection == nil || projection.Status != models.ProjectionStatusComputed {
		t.Fatalf("expected a computed projection, got %+v", projection)
	}

	wantSeTax := decimal.NewFromInt(1530) // 10,000 × 15.3%
	if projection.SelfEmploymentTax == nil || !projection.SelfEmploymentTax.Equal(wantSeTax) {
		t.Fatalf("expected SE tax %s, got %v", wantSeTax, projection.SelfEmploymentTax)
	}
	wantAGI := decimal.NewFromInt(9235) // 10,000 − 10,000 × 7.65%
	if projection.EstimatedAGI == nil || !projection.EstimatedAGI.Equal(wantAGI) {
		t.Fatalf("expected AGI %s, got %v", wantAGI, projection.EstimatedAGI)
	}
}

func TestBuildProjection_MissingReferenceDataIsUnavailableNeverZero(t *testing.T) {
	year := &models.TaxYear{
		Year:            2019, // no 2019 rows in the test ruleset
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{grossDoc(50000, false, 0)},
	}

	projection := buildProjection(year, projectionRuleset(), time.Now().UTC())
	if projection == nil {
		t.Fatalf("expected an unavailable projection, got nil")
	}
	if projection.Status != models.ProjectionStatusUnavailable {
		t.Fatalf("expected Unavailable, got %s", projection.Status)
	}
	if projection.UnavailableReason == nil {
		t.Fatalf("unavailable projection must carry a reason")
	}
	if projection.IncomeTax != nil || projection.ProjectedBalance != nil {
		t.Fatalf("missing reference data must yield nulls, never zeros")
	}
	// Income-side figures are still reported.
	if projection.TotalIncome == nil || !projection.TotalIncome.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("total income must still be reported, got %v", projection.TotalIncome)
	}
}

func TestBuildProjection_UnknownFilingStatusDefaultsToSingle(t *testing.T) {
	year := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusUnknown,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{grossDoc(50000, false, 0)},
	}

	projection := buildProjection(year, projectionRuleset(), time.Now().UTC())
	if projection == nil || projection.Status != models.ProjectionStatusComputed {
		t.Fatalf("expected a computed projection under the single default, got %+v", projection)
	}
	if projection.FilingStatus != models.FilingStatusSingle {
		t.Fatalf("expected Single default, got %s", projection.FilingStatus)
	}
	if !utils.DereferencePtr(projection.FilingStatusDefaulted) {
		t.Fatalf("defaulted status must be flagged")
	}
}

func TestBuildProjection_SkipsFiledYearsExcludedDocs(t *testing.T) {
	filed := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewTrue(),
		IncomeDocuments: []models.IncomeDocument{grossDoc(50000, false, 0)},
	}
	if projection := buildProjection(filed, projectionRuleset(), time.Now().UTC()); projection != nil {
		t.Fatalf("filed years must not be projected")
	}

	excluded := grossDoc(50000, false, 0)
	excluded.IsExcluded = utils.NewTrue()
	onlyExcluded := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{excluded},
	}
	if projection := buildProjection(onlyExcluded, projectionRuleset(), time.Now().UTC()); projection != nil {
		t.Fatalf("a year with only excluded documents must not be projected")
	}

	included := grossDoc(30000, false, 0)
	mixed := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewFalse(),
		IncomeDocuments: []models.IncomeDocument{excluded, included},
	}
	projection := buildProjection(mixed, projectionRuleset(), time.Now().UTC())
	if projection == nil || !projection.TotalIncome.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("excluded documents must not contribute, got %+v", projection)
	}
}
