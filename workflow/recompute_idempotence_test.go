package workflow

import (
	"reflect"
	"testing"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// The gold rebuild is a pure function of (silver rows, ruleset, asOf): running
// it twice over the same inputs must produce identical tolling events, CSED
// dates, projections, and resolution figures, with no drift and no duplicate
// events.
func TestRecomputePipeline_Idempotent(t *testing.T) {
	balance := decimal.NewFromInt(9600)
	year := &models.TaxYear{
		Year:            2023,
		FilingStatus:    models.FilingStatusSingle,
		ReturnFiled:     utils.NewTrue(),
		ReturnFiledDate: date(2024, time.April, 15),
		CurrentBalance:  &balance,
		ActivityEvents: []models.AccountActivityEvent{
			csedEvent("520", date(2024, time.June, 1)),
			csedEvent("521", date(2024, time.September, 1)),
			csedEvent("196", date(2024, time.October, 1)),
		},
		IncomeDocuments: []models.IncomeDocument{
			grossDoc(50000, false, 4000),
			grossDoc(12000, true, 0),
		},
	}
	ruleset := tollingRuleset()
	ruleset.TaxBrackets = projectionRuleset().TaxBrackets
	ruleset.StandardDeductions = projectionRuleset().StandardDeductions
	asOf := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	run := func() ([]models.TollingEvent, csedResult, *models.TaxProjection, *models.ResolutionOption) {
		events := buildTollingEvents(year, ruleset)
		csed := computeCsed(year, events)
		projection := buildProjection(year, ruleset, asOf)
		resolution := buildResolutionOption(1, resolutionProfile(5000, 4200),
			computeBalance(year), csed.AdjustedCsed, ruleset, asOf)
		return events, csed, projection, resolution
	}

	events1, csed1, projection1, resolution1 := run()
	events2, csed2, projection2, resolution2 := run()

	if len(events1) != 2 {
		t.Fatalf("expected 2 tolling events (one pair, one flat), got %d", len(events1))
	}
	if !reflect.DeepEqual(events1, events2) {
		t.Fatalf("tolling events differ between runs:\n%+v\n%+v", events1, events2)
	}
	if !reflect.DeepEqual(csed1, csed2) {
		t.Fatalf("CSED results differ between runs:\n%+v\n%+v", csed1, csed2)
	}
	if !reflect.DeepEqual(projection1, projection2) {
		t.Fatalf("projections differ between runs:\n%+v\n%+v", projection1, projection2)
	}
	if !reflect.DeepEqual(resolution1, resolution2) {
		t.Fatalf("resolution options differ between runs:\n%+v\n%+v", resolution1, resolution2)
	}
}
