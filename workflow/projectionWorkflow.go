package workflow

import (
	"fmt"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

var (
	// Self-employment tax: combined social security + medicare rate, and the
	// half of it that is deductible before AGI.
	selfEmploymentTaxRate      = decimal.NewFromFloat(0.153)
	selfEmploymentAgiDeduction = decimal.NewFromFloat(0.0765)
)

// buildProjection estimates the liability of one unfiled year from its
// non-excluded income documents. Returns nil when the year does not qualify
// (return already filed, or nothing to project from); the recompute deletes
// any stale projection row in that case. Steps that lack reference data leave
// their fields null and push the status to Unavailable with a reason; a null
// is "could not compute", never zero.
func buildProjection(year *models.TaxYear, ruleset *models.Ruleset, now time.Time) *models.TaxProjection {
	if utils.DereferencePtr(year.ReturnFiled) {
		return nil
	}

	totalIncome := decimal.Zero
	seIncome := decimal.Zero
	totalWithholding := decimal.Zero
	included := 0
	for i := range year.IncomeDocuments {
		doc := &year.IncomeDocuments[i]
		if utils.DereferencePtr(doc.IsExcluded) {
			continue
		}
		included++
		if doc.GrossAmount != nil {
			totalIncome = totalIncome.Add(*doc.GrossAmount)
			if utils.DereferencePtr(doc.IsSelfEmployment) {
				seIncome = seIncome.Add(*doc.GrossAmount)
			}
		}
		if doc.FederalWithholding != nil {
			totalWithholding = totalWithholding.Add(*doc.FederalWithholding)
		}
	}
	if included == 0 {
		return nil
	}

	projection := models.TaxProjection{
		CaseId:                year.CaseId,
		TaxYearId:             year.ID,
		Year:                  year.Year,
		Status:                models.ProjectionStatusComputed,
		FilingStatus:          year.FilingStatus,
		FilingStatusDefaulted: utils.NewFalse(),
		TotalIncome:           &totalIncome,
		SelfEmploymentIncome:  &seIncome,
		TotalWithholding:      &totalWithholding,
		ComputedAt:            now,
	}

	// Transcripts for unfiled years rarely carry a status; default to single
	// and say so rather than refusing to project.
	if projection.FilingStatus == models.FilingStatusUnknown || projection.FilingStatus == "" {
		projection.FilingStatus = models.FilingStatusSingle
		projection.FilingStatusDefaulted = utils.NewTrue()
	}

	seTax := seIncome.Mul(selfEmploymentTaxRate)
	projection.SelfEmploymentTax = &seTax

	estimatedAGI := totalIncome.Sub(seIncome.Mul(selfEmploymentAgiDeduction))
	projection.EstimatedAGI = &estimatedAGI

	deduction, ok := ruleset.StandardDeduction(year.Year, projection.FilingStatus)
	if !ok {
		reason := fmt.Sprintf("no standard deduction for year %d filing status %s", year.Year, projection.FilingStatus)
		projection.Status = models.ProjectionStatusUnavailable
		projection.UnavailableReason = &reason
		return &projection
	}

	taxableIncome := estimatedAGI.Sub(deduction)
	if taxableIncome.IsNegative() {
		taxableIncome = decimal.Zero
	}
	projection.TaxableIncome = &taxableIncome

	brackets, ok := ruleset.Brackets(year.Year, projection.FilingStatus)
	if !ok {
		reason := fmt.Sprintf("no tax brackets for year %d filing status %s", year.Year, projection.FilingStatus)
		projection.Status = models.ProjectionStatusUnavailable
		projection.UnavailableReason = &reason
		return &projection
	}

	incomeTax := marginalTax(taxableIncome, brackets)
	projection.IncomeTax = &incomeTax

	totalTax := incomeTax.Add(seTax)
	projection.TotalTax = &totalTax

	projectedBalance := totalTax.Sub(totalWithholding)
	projection.ProjectedBalance = &projectedBalance

	return &projection
}

// marginalTax accumulates tax bracket by bracket: each step taxes the slice of
// income between its floor and the next floor at its own rate. Never a flat
// top-rate multiply.
func marginalTax(taxable decimal.Decimal, brackets []models.BracketStep) decimal.Decimal {
	tax := decimal.Zero
	for i, step := range brackets {
		if taxable.LessThanOrEqual(step.Floor) {
			break
		}
		ceiling := taxable
		if i+1 < len(brackets) && brackets[i+1].Floor.LessThan(taxable) {
			ceiling = brackets[i+1].Floor
		}
		tax = tax.Add(ceiling.Sub(step.Floor).Mul(step.Rate))
	}
	return tax
}
