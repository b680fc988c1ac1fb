package utils

import (
	"github.com/shopspring/decimal"
)

// Offer-in-compromise parameters. The reasonable collection potential is
// quick-sale equity plus future income over a fixed look-forward window.
var (
	QuickSaleMultiplier   = decimal.NewFromFloat(0.80)
	FutureIncomeMonths    = decimal.NewFromInt(24)
	OfferAmountMultiplier = decimal.NewFromFloat(0.90)
	OfferDebtRatioCeiling = decimal.NewFromFloat(0.80)
)

// CalculatePayoffMonths returns how many whole months it takes to retire the
// balance at the given monthly payment, rounding partial months up.
// A non-positive payment returns 0; the caller decides eligibility.
func CalculatePayoffMonths(balance decimal.Decimal, monthlyPayment decimal.Decimal) int64 {
	if monthlyPayment.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	if balance.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return balance.Div(monthlyPayment).Ceil().IntPart()
}

// CalculateQuickSaleValue discounts net equity to what assets fetch in a
// forced sale. Underwater equity counts as zero, not negative.
func CalculateQuickSaleValue(assetValue decimal.Decimal, liabilities decimal.Decimal) decimal.Decimal {
	equity := assetValue.Sub(liabilities)
	if equity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return equity.Mul(QuickSaleMultiplier)
}

// CalculateFutureIncomeValue projects disposable income over the offer
// look-forward window. Negative disposable income contributes nothing.
func CalculateFutureIncomeValue(monthlyDisposable decimal.Decimal) decimal.Decimal {
	if monthlyDisposable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return monthlyDisposable.Mul(FutureIncomeMonths)
}

// CalculateOfferAmount converts reasonable collection potential into the
// amount actually put on the table.
func CalculateOfferAmount(reasonableCollectionPotential decimal.Decimal) decimal.Decimal {
	return reasonableCollectionPotential.Mul(OfferAmountMultiplier).Round(2)
}
