package workflow

import (
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// extractInterview maps the household questionnaire payload onto the one
// InterviewProfile row of the case. The payload is sectioned
// (employment/household/assets/income/expenses/irs_standards) with camelCase
// keys; a missing section extracts as zeros, never as an error.
func extractInterview(tx *gorm.DB, caseRecord *models.Case, doc *models.RawDocument, payload map[string]any) error {
	employment := section(payload, "employment")
	household := section(payload, "household")
	assets := section(payload, "assets")
	income := section(payload, "income")
	expenses := section(payload, "expenses")
	irsStandards := section(payload, "irs_standards")

	profile := models.InterviewProfile{
		CaseId: caseRecord.ID,

		TaxpayerEmployer:      sectionString(employment, "clientEmployer"),
		TaxpayerEmployedSince: resolveDate(employment, "clientStartWorkingDate"),
		TaxpayerGrossIncome:   sectionDecimal(employment, "clientGrossIncome"),
		TaxpayerNetIncome:     sectionDecimal(employment, "clientNetIncome"),
		TaxpayerPayFrequency:  sectionString(employment, "clientFrequentlyPaid"),
		TaxpayerMonthlyIncome: sectionDecimal(employment, "clientMonthlyIncome"),
		SpouseEmployer:        sectionString(employment, "spouseEmployer"),
		SpouseEmployedSince:   resolveDate(employment, "spouseStartWorkingDate"),
		SpouseGrossIncome:     sectionDecimal(employment, "spouseGrossIncome"),
		SpouseNetIncome:       sectionDecimal(employment, "spouseNetIncome"),
		SpousePayFrequency:    sectionString(employment, "spouseFrequentlyPaid"),
		SpouseMonthlyIncome:   sectionDecimal(employment, "spouseMonthlyIncome"),

		HouseholdMembers:  sectionInt(household, "clientHouseMembers"),
		MembersUnder65:    sectionInt(household, "under65"),
		MembersOver65:     sectionInt(household, "over65"),
		State:             sectionString(household, "state"),
		County:            sectionString(household, "county"),
		OccupancyStatus:   sectionString(household, "clientOccupancyStatus"),
		LengthOfResidency: sectionString(household, "clientLengthofresidency"),
		NextTaxReturn:     sectionString(household, "clientNextTaxReturn"),

		CheckingAccounts: sectionDecimal(assets, "checkingAccounts"),
		CashOnHand:       sectionDecimal(assets, "cashOnHand"),
		Investments:      sectionDecimal(assets, "investments"),
		LifeInsurance:    sectionDecimal(assets, "lifeInsurance"),
		Retirement:       sectionDecimal(assets, "retirement"),
		RealEstateValue:  sectionDecimal(assets, "realEstateValue"),
		Vehicle1Value:    sectionDecimal(assets, "vehicle1Value"),
		Vehicle2Value:    sectionDecimal(assets, "vehicle2Value"),
		Vehicle3Value:    sectionDecimal(assets, "vehicle3Value"),
		Vehicle4Value:    sectionDecimal(assets, "vehicle4Value"),

		CheckingLoans:  sectionDecimal(assets, "checkingLoans"),
		CashLoans:      sectionDecimal(assets, "cashLoans"),
		RealEstateLoan: sectionDecimal(assets, "realEstateLoan"),
		Vehicle1Loan:   sectionDecimal(assets, "vehicle1Loan"),
		Vehicle2Loan:   sectionDecimal(assets, "vehicle2Loan"),
		Vehicle3Loan:   sectionDecimal(assets, "vehicle3Loan"),
		Vehicle4Loan:   sectionDecimal(assets, "vehicle4Loan"),

		TaxpayerWages:          sectionDecimal(income, "clientWages"),
		TaxpayerSocialSecurity: sectionDecimal(income, "clientSocialSecurity"),
		TaxpayerPension:        sectionDecimal(income, "clientPension"),
		SpouseWages:            sectionDecimal(income, "spouseWages"),
		SpouseSocialSecurity:   sectionDecimal(income, "spouseSocialSecurity"),
		SpousePension:          sectionDecimal(income, "spousePension"),
		DividendsInterest:      sectionDecimal(income, "dividendsInterest"),
		RentalGross:            sectionDecimal(income, "rentalGross"),
		RentalExpenses:         sectionDecimal(income, "rentalExpenses"),
		Distributions:          sectionDecimal(income, "distributions"),
		Alimony:                sectionDecimal(income, "alimony"),
		ChildSupport:           sectionDecimal(income, "childSupport"),
		OtherIncome:            sectionDecimal(income, "otherIncome"),
		AdditionalIncome1:      sectionDecimal(income, "additional1"),
		AdditionalIncome2:      sectionDecimal(income, "additional2"),

		ExpenseFood:                 sectionDecimal(expenses, "food"),
		ExpenseHousekeeping:         sectionDecimal(expenses, "housekeeping"),
		ExpenseApparel:              sectionDecimal(expenses, "apparel"),
		ExpensePersonalCare:         sectionDecimal(expenses, "personalCare"),
		ExpenseMisc:                 sectionDecimal(expenses, "misc"),
		ExpenseMortgage1:            sectionDecimal(expenses, "mortgageLien1"),
		ExpenseMortgage2:            sectionDecimal(expenses, "mortgageLien2"),
		ExpenseRent:                 sectionDecimal(expenses, "rent"),
		ExpenseHomeInsurance:        sectionDecimal(expenses, "insurance"),
		ExpensePropertyTax:          sectionDecimal(expenses, "propertyTax"),
		ExpenseGas:                  sectionDecimal(expenses, "gas"),
		ExpenseElectricity:          sectionDecimal(expenses, "electricity"),
		ExpenseWater:                sectionDecimal(expenses, "water"),
		ExpenseSewer:                sectionDecimal(expenses, "sewer"),
		ExpenseCable:                sectionDecimal(expenses, "cable"),
		ExpenseTrash:                sectionDecimal(expenses, "trash"),
		ExpensePhone:                sectionDecimal(expenses, "phone"),
		ExpenseTransportation:       sectionDecimal(expenses, "transportation"),
		ExpensePublicTransportation: sectionDecimal(expenses, "publicTransportation"),
		ExpenseAutoInsurance:        sectionDecimal(expenses, "autoInsurance"),
		ExpenseAutoPayment1:         sectionDecimal(expenses, "autoPayment1"),
		ExpenseAutoPayment2:         sectionDecimal(expenses, "autoPayment2"),
		ExpenseHealthInsurance:      sectionDecimal(expenses, "healthInsurance"),
		ExpensePrescriptions:        sectionDecimal(expenses, "prescriptions"),
		ExpenseCopays:               sectionDecimal(expenses, "copays"),
		ExpenseTaxes:                sectionDecimal(expenses, "taxes"),
		ExpenseCourtPayments:        sectionDecimal(expenses, "courtPayments"),
		ExpenseChildCare:            sectionDecimal(expenses, "childCare"),
		ExpenseWholeLifeInsurance:   sectionDecimal(expenses, "wholeLifeInsurance"),
		ExpenseTermLifeInsurance:    sectionDecimal(expenses, "termLifeInsurance"),

		ReportedStandardFood:           sectionDecimal(irsStandards, "food"),
		ReportedStandardHousekeeping:   sectionDecimal(irsStandards, "housekeeping"),
		ReportedStandardApparel:        sectionDecimal(irsStandards, "apparel"),
		ReportedStandardPersonalCare:   sectionDecimal(irsStandards, "personalCare"),
		ReportedStandardMisc:           sectionDecimal(irsStandards, "misc"),
		ReportedStandardHousing:        sectionDecimal(irsStandards, "housing"),
		ReportedStandardTransportation: sectionDecimal(irsStandards, "transportation"),
		ReportedStandardTotalMonthly:   sectionDecimal(irsStandards, "totalMonthly"),
	}

	_, err := models.UpsertInterviewProfile(tx, &profile)
	return err
}

// section returns the named sub-object, or an empty map so lookups on a
// missing section resolve to zero values.
func section(payload map[string]any, name string) map[string]any {
	if value, ok := lookupPath(payload, name); ok {
		if obj, ok := asObject(value); ok {
			return obj
		}
	}
	return map[string]any{}
}

func sectionString(obj map[string]any, key string) string {
	return utils.DereferencePtr(resolveString(obj, key))
}

func sectionDecimal(obj map[string]any, key string) decimal.Decimal {
	if d := resolveDecimal(obj, key); d != nil {
		return *d
	}
	return decimal.Zero
}

func sectionInt(obj map[string]any, key string) int {
	if d := resolveDecimal(obj, key); d != nil {
		return int(d.IntPart())
	}
	return 0
}
