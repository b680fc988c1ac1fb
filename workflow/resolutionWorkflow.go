package workflow

import (
	"encoding/json"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// buildResolutionOption evaluates the three resolution programs for one case.
// The disposable-income worksheet comes from the interview profile and the
// published expense standards; the debt side comes from the recompute's
// per-year balances and statute dates. All three programs are evaluated
// independently and reported together.
func buildResolutionOption(caseId int, profile *models.InterviewProfile, totalDebt decimal.Decimal, earliestCsed *time.Time, ruleset *models.Ruleset, asOf time.Time) *models.ResolutionOption {
	option := models.ResolutionOption{
		CaseId:      caseId,
		Status:      models.ProjectionStatusComputed,
		TotalDebt:   &totalDebt,
		EvaluatedAt: asOf,
		IAEligible:  utils.NewFalse(),
		OICEligible: utils.NewFalse(),
		CNCEligible: utils.NewFalse(),
	}

	if profile == nil {
		reason := "no interview profile on file"
		option.Status = models.ProjectionStatusUnavailable
		option.UnavailableReason = &reason
		return &option
	}

	lines := allowableExpenseLines(profile, ruleset)
	allowableTotal := decimal.Zero
	for _, line := range lines {
		allowableTotal = allowableTotal.Add(line.Allowed)
	}
	detailJSON, _ := json.Marshal(lines)

	monthlyIncome := profile.TotalMonthlyIncome()
	disposable := monthlyIncome.Sub(allowableTotal)

	option.MonthlyIncome = &monthlyIncome
	option.AllowableExpenses = &allowableTotal
	option.DisposableIncome = &disposable
	option.AllowableDetailJSON = detailJSON

	// Installment agreement: the payment is the full disposable income, and
	// the plan must retire the debt before the earliest statute date of the
	// still-owing years.
	monthsUntilCsed := 0
	if earliestCsed != nil {
		monthsUntilCsed = wholeMonthsBetween(asOf, *earliestCsed)
	}
	option.IAMonthsUntilCsed = &monthsUntilCsed
	if disposable.IsPositive() {
		payment := disposable
		payoffMonths := int(utils.CalculatePayoffMonths(totalDebt, payment))
		option.IAMonthlyPayment = &payment
		option.IAPayoffMonths = &payoffMonths
		option.IAEligible = utils.NewBool(payoffMonths < monthsUntilCsed)
	}

	// Offer in compromise: reasonable collection potential against the debt.
	quickSale := utils.CalculateQuickSaleValue(profile.TotalAssets(), profile.TotalLiabilities())
	futureIncome := utils.CalculateFutureIncomeValue(disposable)
	collectionValue := quickSale.Add(futureIncome)
	recommendedOffer := utils.CalculateOfferAmount(collectionValue)
	option.OICQuickSaleValue = &quickSale
	option.OICFutureIncome = &futureIncome
	option.OICCollectionValue = &collectionValue
	option.OICRecommendedOffer = &recommendedOffer
	option.OICEligible = utils.NewBool(
		collectionValue.LessThan(totalDebt.Mul(utils.OfferDebtRatioCeiling)) &&
			!disposable.IsNegative())

	// Currently not collectible: nothing left after allowable expenses.
	option.CNCEligible = utils.NewBool(disposable.LessThanOrEqual(decimal.Zero))

	return &option
}

// allowableExpenseLines builds the canonical worksheet. Greater-of categories
// allow max(published standard, reported actual); actual-only categories allow
// exactly what the taxpayer reported. A standard the tables never seeded
// degrades to the actual amount.
func allowableExpenseLines(profile *models.InterviewProfile, ruleset *models.Ruleset) []models.AllowableExpenseLine {
	size := profile.HouseholdSize()

	greaterOf := func(category string, actual decimal.Decimal, standard decimal.Decimal, ok bool) models.AllowableExpenseLine {
		if !ok {
			standard = decimal.Zero
		}
		allowed := actual
		if standard.GreaterThan(allowed) {
			allowed = standard
		}
		return models.AllowableExpenseLine{
			Category:      category,
			Actual:        actual,
			Standard:      standard,
			Allowed:       allowed,
			GreaterOfRule: true,
		}
	}
	actualOnly := func(category string, actual decimal.Decimal) models.AllowableExpenseLine {
		return models.AllowableExpenseLine{
			Category: category,
			Actual:   actual,
			Allowed:  actual,
		}
	}

	national := func(category string) (decimal.Decimal, bool) {
		return ruleset.NationalStandard(category, size)
	}

	foodStd, foodOk := national(models.ExpenseCategoryFood)
	housekeepingStd, housekeepingOk := national(models.ExpenseCategoryHousekeeping)
	apparelStd, apparelOk := national(models.ExpenseCategoryApparel)
	personalStd, personalOk := national(models.ExpenseCategoryPersonalCare)
	miscStd, miscOk := national(models.ExpenseCategoryMisc)
	housingStd, housingOk := ruleset.HousingStandard(profile.State, profile.County, size)
	transportStd, transportOk := ruleset.TransportationStandard(size)

	return []models.AllowableExpenseLine{
		greaterOf(models.ExpenseCategoryFood, profile.ExpenseFood, foodStd, foodOk),
		greaterOf(models.ExpenseCategoryHousekeeping, profile.ExpenseHousekeeping, housekeepingStd, housekeepingOk),
		greaterOf(models.ExpenseCategoryApparel, profile.ExpenseApparel, apparelStd, apparelOk),
		greaterOf(models.ExpenseCategoryPersonalCare, profile.ExpensePersonalCare, personalStd, personalOk),
		greaterOf(models.ExpenseCategoryMisc, profile.ExpenseMisc, miscStd, miscOk),
		greaterOf(models.ExpenseCategoryHousing, profile.ActualHousing(), housingStd, housingOk),
		greaterOf(models.ExpenseCategoryTransportation, profile.ActualTransportation(), transportStd, transportOk),
		actualOnly("public_transportation", profile.ExpensePublicTransportation),
		actualOnly("health_insurance", profile.ActualHealthInsurance()),
		actualOnly("taxes", profile.ExpenseTaxes),
		actualOnly("court_payments", profile.ExpenseCourtPayments),
		actualOnly("child_care", profile.ExpenseChildCare),
		actualOnly("life_insurance", profile.ActualLifeInsurance()),
		actualOnly("secured_debt", profile.ActualSecuredDebt()),
	}
}

// wholeMonthsBetween counts complete calendar months from one date to a later
// one; a partial trailing month does not count. Never negative.
func wholeMonthsBetween(from time.Time, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
