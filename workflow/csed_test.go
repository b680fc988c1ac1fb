package workflow

import (
	"testing"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func codeRule(code string, category models.TollingCategory, role models.IntervalRole, days int) models.TransactionCodeRule {
	return models.TransactionCodeRule{
		Code:            code,
		TransactionType: "test",
		AffectsCsed:     utils.NewTrue(),
		TollingCategory: category,
		IntervalRole:    role,
		ExtensionDays:   days,
	}
}

func tollingRuleset() *models.Ruleset {
	return &models.Ruleset{
		RuleVersion: "test",
		TransactionCodes: map[string]models.TransactionCodeRule{
			"520": codeRule("520", models.TollingCategoryBankruptcy, models.IntervalRoleOpen, 180),
			"521": codeRule("521", models.TollingCategoryBankruptcy, models.IntervalRoleClose, 180),
			"480": codeRule("480", models.TollingCategoryOIC, models.IntervalRoleOpen, 30),
			"481": codeRule("481", models.TollingCategoryOIC, models.IntervalRoleClose, 30),
			"196": codeRule("196", models.TollingCategoryPenalty, models.IntervalRoleNone, 30),
		},
	}
}

func csedEvent(code string, at *time.Time) models.AccountActivityEvent {
	return models.AccountActivityEvent{
		Code:         code,
		ActivityDate: at,
		AffectsCsed:  utils.NewTrue(),
	}
}

func TestComputeCsed_NoTolling(t *testing.T) {
	year := &models.TaxYear{
		Year:            2013,
		ReturnFiled:     utils.NewTrue(),
		ReturnFiledDate: date(2014, time.April, 15),
	}
	result := computeCsed(year, nil)

	want := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	if result.BaseCsed == nil || !result.BaseCsed.Equal(want) {
		t.Fatalf("expected base CSED %s, got %v", want, result.BaseCsed)
	}
	if result.AdjustedCsed == nil || !result.AdjustedCsed.Equal(want) {
		t.Fatalf("expected adjusted CSED %s, got %v", want, result.AdjustedCsed)
	}
	if result.Status != models.CsedStatusBaseSet {
		t.Fatalf("expected status BaseSet, got %s", result.Status)
	}
}

func TestComputeCsed_BankruptcyInterval(t *testing.T) {
	year := &models.TaxYear{
		Year:            2013,
		ReturnFiled:     utils.NewTrue(),
		ReturnFiledDate: date(2014, time.April, 15),
		ActivityEvents: []models.AccountActivityEvent{
			csedEvent("520", date(2018, time.January, 1)),
			csedEvent("521", date(2018, time.April, 1)),
		},
	}
	events := buildTollingEvents(year, tollingRuleset())
	if len(events) != 1 {
		t.Fatalf("expected one paired tolling event, got %d", len(events))
	}
	if events[0].Status != models.TollingEventStatusClosed {
		t.Fatalf("expected closed interval, got %s", events[0].Status)
	}
	if events[0].IntervalDays != 90 {
		t.Fatalf("expected 90 interval days, got %d", events[0].IntervalDays)
	}
	// Bankruptcy extends by the suspension interval plus 180 fixed days.
	if events[0].ExtensionDays != 270 {
		t.Fatalf("expected 270 extension days, got %d", events[0].ExtensionDays)
	}

	result := computeCsed(year, events)
	base := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	want := base.AddDate(0, 0, 270)
	if result.AdjustedCsed == nil || !result.AdjustedCsed.Equal(want) {
		t.Fatalf("expected adjusted CSED %s, got %v", want, result.AdjustedCsed)
	}
	if result.Status != models.CsedStatusFinal {
		t.Fatalf("expected status Final, got %s", result.Status)
	}
}

func TestComputeCsed_OpenIntervalContributesZero(t *testing.T) {
	year := &models.TaxYear{
		Year:            2013,
		ReturnFiled:     utils.NewTrue(),
		ReturnFiledDate: date(2014, time.April, 15),
		ActivityEvents: []models.AccountActivityEvent{
			csedEvent("480", date(2020, time.June, 1)),
		},
	}
	events := buildTollingEvents(year, tollingRuleset())
	if len(events) != 1 || events[0].Status != models.TollingEventStatusOpen {
		t.Fatalf("expected one open tolling event, got %v", events)
	}
	if events[0].ExtensionDays != 0 {
		t.Fatalf("open interval must contribute zero days, got %d", events[0].ExtensionDays)
	}

	result := computeCsed(year, events)
	base := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	if result.AdjustedCsed == nil || !result.AdjustedCsed.Equal(base) {
		t.Fatalf("adjusted must equal base while the interval is open, got %v", result.AdjustedCsed)
	}
	if result.Status != models.CsedStatusTolled {
		t.Fatalf("expected status Tolled, got %s", result.Status)
	}
}

func TestBuildTollingEvents_FlatPenalty(t *testing.T) {
	year := &models.TaxYear{
		Year:            2013,
		ReturnFiled:     utils.NewTrue(),
		ReturnFiledDate: date(2014, time.April, 15),
		ActivityEvents: []models.AccountActivityEvent{
			csedEvent("196", date(2016, time.March, 1)),
			csedEvent("196", date(2017, time.March, 1)),
		},
	}
	events := buildTollingEvents(year, tollingRuleset())
	if len(events) != 2 {
		t.Fatalf("expected one applied event per occurrence, got %d", len(events))
	}
	for _, event := range events {
		if event.Status != models.TollingEventStatusApplied || event.ExtensionDays != 30 {
			t.Fatalf("expected flat 30-day applied event, got %+v", event)
		}
	}
}

func TestComputeCsed_NotFiled(t *testing.T) {
	year := &models.TaxYear{Year: 2019, ReturnFiled: utils.NewFalse()}
	result := computeCsed(year, nil)
	if result.Status != models.CsedStatusNotFiled {
		t.Fatalf("expected NotFiled, got %s", result.Status)
	}
	if result.BaseCsed != nil || result.AdjustedCsed != nil {
		t.Fatalf("NotFiled must leave both dates null")
	}
}

func TestEffectiveFiledDate_Code150Fallback(t *testing.T) {
	year := &models.TaxYear{
		Year:        2015,
		ReturnFiled: utils.NewTrue(),
		ActivityEvents: []models.AccountActivityEvent{
			{Code: "670", ActivityDate: date(2017, time.May, 1)},
			{Code: "150", ActivityDate: date(2016, time.April, 18)},
		},
	}
	got := effectiveFiledDate(year)
	if got == nil || !got.Equal(*date(2016, time.April, 18)) {
		t.Fatalf("expected code-150 event date fallback, got %v", got)
	}
}

func TestComputeBalance(t *testing.T) {
	reported := decimal.NewFromInt(12000)
	amount1 := decimal.NewFromInt(5000)
	amount2 := decimal.NewFromInt(-1500)
	ignored := decimal.NewFromInt(999)

	withReported := &models.TaxYear{CurrentBalance: &reported}
	if got := computeBalance(withReported); !got.Equal(reported) {
		t.Fatalf("reported balance must win, got %s", got)
	}

	summed := &models.TaxYear{
		ActivityEvents: []models.AccountActivityEvent{
			{Code: "150", Amount: &amount1, AffectsBalance: utils.NewTrue()},
			{Code: "670", Amount: &amount2, AffectsBalance: utils.NewTrue()},
			{Code: "971", Amount: &ignored, AffectsBalance: utils.NewFalse()},
		},
	}
	if got := computeBalance(summed); !got.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("expected 3500 from balance-affecting events, got %s", got)
	}
}
