package workflow

import (
	"testing"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// emptyRuleset has no expense standards, so every greater-of category falls
// back to the reported actual and the worksheet total is exactly what the
// profile states.
func emptyRuleset() *models.Ruleset {
	return &models.Ruleset{
		RuleVersion:      "test",
		ExpenseStandards: map[string]decimal.Decimal{},
	}
}

func resolutionProfile(monthlyWages int64, foodExpense int64) *models.InterviewProfile {
	return &models.InterviewProfile{
		TaxpayerWages: decimal.NewFromInt(monthlyWages),
		ExpenseFood:   decimal.NewFromInt(foodExpense),
	}
}

func TestBuildResolutionOption_InstallmentAgreementBoundary(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	csed := asOf.AddDate(2, 0, 0) // 24 months out

	option := buildResolutionOption(1, resolutionProfile(5000, 4200),
		decimal.NewFromInt(9600), &csed, emptyRuleset(), asOf)

	if option.Status != models.ProjectionStatusComputed {
		t.Fatalf("expected Computed, got %s", option.Status)
	}
	if !option.DisposableIncome.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected disposable 800, got %s", option.DisposableIncome)
	}
	if option.IAPayoffMonths == nil || *option.IAPayoffMonths != 12 {
		t.Fatalf("expected payoff in 12 months, got %v", option.IAPayoffMonths)
	}
	if option.IAMonthsUntilCsed == nil || *option.IAMonthsUntilCsed != 24 {
		t.Fatalf("expected 24 months until CSED, got %v", option.IAMonthsUntilCsed)
	}
	if !utils.DereferencePtr(option.IAEligible) {
		t.Fatalf("12-month payoff inside a 24-month window must be IA eligible")
	}
}

func TestBuildResolutionOption_PayoffBeyondCsedIneligible(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	csed := asOf.AddDate(0, 6, 0)

	option := buildResolutionOption(1, resolutionProfile(5000, 4200),
		decimal.NewFromInt(9600), &csed, emptyRuleset(), asOf)

	if utils.DereferencePtr(option.IAEligible) {
		t.Fatalf("12-month payoff against a 6-month window must not be IA eligible")
	}
}

func TestBuildResolutionOption_CncBoundary(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	csed := asOf.AddDate(2, 0, 0)

	// Income exactly equals allowable expenses: disposable is zero.
	option := buildResolutionOption(1, resolutionProfile(4200, 4200),
		decimal.NewFromInt(9600), &csed, emptyRuleset(), asOf)

	if !option.DisposableIncome.Equal(decimal.Zero) {
		t.Fatalf("expected zero disposable, got %s", option.DisposableIncome)
	}
	if !utils.DereferencePtr(option.CNCEligible) {
		t.Fatalf("zero disposable must be CNC eligible")
	}
	if utils.DereferencePtr(option.IAEligible) {
		t.Fatalf("zero disposable cannot fund an installment agreement")
	}
	if option.IAMonthlyPayment != nil {
		t.Fatalf("no payment to propose at zero disposable, got %s", option.IAMonthlyPayment)
	}
}

func TestBuildResolutionOption_GreaterOfStandard(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	ruleset := &models.Ruleset{
		RuleVersion: "test",
		ExpenseStandards: map[string]decimal.Decimal{
			// (locality|household_size|category)
			"national|1|food": decimal.NewFromInt(458),
		},
	}

	profile := resolutionProfile(5000, 100) // actual food far below the standard
	option := buildResolutionOption(1, profile, decimal.NewFromInt(1000), nil, ruleset, asOf)

	// The food line allows the published 458, not the reported 100.
	if !option.AllowableExpenses.Equal(decimal.NewFromInt(458)) {
		t.Fatalf("expected allowable 458 via greater-of, got %s", option.AllowableExpenses)
	}

	profile = resolutionProfile(5000, 900) // actual above the standard
	option = buildResolutionOption(1, profile, decimal.NewFromInt(1000), nil, ruleset, asOf)
	if !option.AllowableExpenses.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected allowable 900 via greater-of, got %s", option.AllowableExpenses)
	}
}

func TestBuildResolutionOption_OfferInCompromise(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	profile := resolutionProfile(4200, 4200) // zero disposable
	profile.CheckingAccounts = decimal.NewFromInt(5000)
	profile.CashLoans = decimal.NewFromInt(1000)

	option := buildResolutionOption(1, profile, decimal.NewFromInt(50000), nil, emptyRuleset(), asOf)

	// QSV = (5,000 − 1,000) × 0.80; FIV = 0 at zero disposable.
	if !option.OICQuickSaleValue.Equal(decimal.NewFromInt(3200)) {
		t.Fatalf("expected quick-sale value 3200, got %s", option.OICQuickSaleValue)
	}
	if !option.OICFutureIncome.Equal(decimal.Zero) {
		t.Fatalf("expected zero future income, got %s", option.OICFutureIncome)
	}
	if !option.OICCollectionValue.Equal(decimal.NewFromInt(3200)) {
		t.Fatalf("expected RCP 3200, got %s", option.OICCollectionValue)
	}
	if !option.OICRecommendedOffer.Equal(decimal.NewFromFloat(2880)) {
		t.Fatalf("expected offer 2880, got %s", option.OICRecommendedOffer)
	}
	// RCP 3,200 < 80% of 50,000 and disposable ≥ 0.
	if !utils.DereferencePtr(option.OICEligible) {
		t.Fatalf("expected OIC eligible")
	}
}

func TestBuildResolutionOption_NoProfileIsUnavailable(t *testing.T) {
	asOf := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	option := buildResolutionOption(1, nil, decimal.NewFromInt(1000), nil, emptyRuleset(), asOf)

	if option.Status != models.ProjectionStatusUnavailable {
		t.Fatalf("expected Unavailable without a profile, got %s", option.Status)
	}
	if option.UnavailableReason == nil {
		t.Fatalf("unavailable resolution must carry a reason")
	}
	if utils.DereferencePtr(option.IAEligible) || utils.DereferencePtr(option.OICEligible) || utils.DereferencePtr(option.CNCEligible) {
		t.Fatalf("no program is eligible without a profile")
	}
}

func TestWholeMonthsBetween(t *testing.T) {
	from := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		to   time.Time
		want int
	}{
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), 24},
		{time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC), 6},
		{time.Date(2024, time.July, 14, 0, 0, 0, 0, time.UTC), 5},
		{time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := wholeMonthsBetween(from, tc.to); got != tc.want {
			t.Fatalf("%s: expected %d months, got %d", tc.to, tc.want, got)
		}
	}
}
