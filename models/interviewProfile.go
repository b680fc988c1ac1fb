package models

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InterviewProfile is the household financial questionnaire, one row per
// case. Missing sections extract as zero values, not errors, so every column
// here defaults to its zero.
type InterviewProfile struct {
	ID     int `gorm:"primary_key" json:"id"`
	CaseId int `gorm:"not null;uniqueIndex" json:"case_id"`

	// Employment
	TaxpayerEmployer      string          `gorm:"size:255" json:"taxpayer_employer"`
	TaxpayerEmployedSince *time.Time      `json:"taxpayer_employed_since"`
	TaxpayerGrossIncome   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_gross_income"`
	TaxpayerNetIncome     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_net_income"`
	TaxpayerPayFrequency  string          `gorm:"size:32" json:"taxpayer_pay_frequency"`
	TaxpayerMonthlyIncome decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_monthly_income"`
	SpouseEmployer        string          `gorm:"size:255" json:"spouse_employer"`
	SpouseEmployedSince   *time.Time      `json:"spouse_employed_since"`
	SpouseGrossIncome     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_gross_income"`
	SpouseNetIncome       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_net_income"`
	SpousePayFrequency    string          `gorm:"size:32" json:"spouse_pay_frequency"`
	SpouseMonthlyIncome   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_monthly_income"`

	// Household
	HouseholdMembers  int    `gorm:"default:0" json:"household_members"`
	MembersUnder65    int    `gorm:"default:0" json:"members_under_65"`
	MembersOver65     int    `gorm:"default:0" json:"members_over_65"`
	State             string `gorm:"size:32" json:"state"`
	County            string `gorm:"size:64" json:"county"`
	OccupancyStatus   string `gorm:"size:32" json:"occupancy_status"`
	LengthOfResidency string `gorm:"size:64" json:"length_of_residency"`
	NextTaxReturn     string `gorm:"size:64" json:"next_tax_return"`

	// Assets
	CheckingAccounts decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"checking_accounts"`
	CashOnHand       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_on_hand"`
	Investments      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"investments"`
	LifeInsurance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"life_insurance"`
	Retirement       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"retirement"`
	RealEstateValue  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"real_estate_value"`
	Vehicle1Value    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle1_value"`
	Vehicle2Value    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle2_value"`
	Vehicle3Value    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle3_value"`
	Vehicle4Value    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle4_value"`

	// Liabilities
	CheckingLoans  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"checking_loans"`
	CashLoans      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_loans"`
	RealEstateLoan decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"real_estate_loan"`
	Vehicle1Loan   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle1_loan"`
	Vehicle2Loan   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle2_loan"`
	Vehicle3Loan   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle3_loan"`
	Vehicle4Loan   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle4_loan"`

	// Income sources (monthly)
	TaxpayerWages          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_wages"`
	TaxpayerSocialSecurity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_social_security"`
	TaxpayerPension        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxpayer_pension"`
	SpouseWages            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_wages"`
	SpouseSocialSecurity   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_social_security"`
	SpousePension          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spouse_pension"`
	DividendsInterest      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"dividends_interest"`
	RentalGross            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rental_gross"`
	RentalExpenses         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rental_expenses"`
	Distributions          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"distributions"`
	Alimony                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"alimony"`
	ChildSupport           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"child_support"`
	OtherIncome            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"other_income"`
	AdditionalIncome1      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"additional_income1"`
	AdditionalIncome2      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"additional_income2"`

	// Monthly expenses as reported
	ExpenseFood                 decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_food"`
	ExpenseHousekeeping         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_housekeeping"`
	ExpenseApparel              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_apparel"`
	ExpensePersonalCare         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_personal_care"`
	ExpenseMisc                 decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_misc"`
	ExpenseMortgage1            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_mortgage1"`
	ExpenseMortgage2            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_mortgage2"`
	ExpenseRent                 decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_rent"`
	ExpenseHomeInsurance        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_home_insurance"`
	ExpensePropertyTax          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_property_tax"`
	ExpenseGas                  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_gas"`
	ExpenseElectricity          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_electricity"`
	ExpenseWater                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_water"`
	ExpenseSewer                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_sewer"`
	ExpenseCable                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_cable"`
	ExpenseTrash                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_trash"`
	ExpensePhone                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_phone"`
	ExpenseTransportation       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_transportation"`
	ExpensePublicTransportation decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_public_transportation"`
	ExpenseAutoInsurance        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_auto_insurance"`
	ExpenseAutoPayment1         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_auto_payment1"`
	ExpenseAutoPayment2         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_auto_payment2"`
	ExpenseHealthInsurance      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_health_insurance"`
	ExpensePrescriptions        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_prescriptions"`
	ExpenseCopays               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_copays"`
	ExpenseTaxes                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_taxes"`
	ExpenseCourtPayments        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_court_payments"`
	ExpenseChildCare            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_child_care"`
	ExpenseWholeLifeInsurance   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_whole_life_insurance"`
	ExpenseTermLifeInsurance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expense_term_life_insurance"`

	// IRS standards as the interview reported them (snapshot only; the
	// resolution engine uses the expense_standards table, not these)
	ReportedStandardFood           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_food"`
	ReportedStandardHousekeeping   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_housekeeping"`
	ReportedStandardApparel        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_apparel"`
	ReportedStandardPersonalCare   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_personal_care"`
	ReportedStandardMisc           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_misc"`
	ReportedStandardHousing        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_housing"`
	ReportedStandardTransportation decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_transportation"`
	ReportedStandardTotalMonthly   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reported_standard_total_monthly"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p InterviewProfile) GetCaseId() int {
	return p.CaseId
}

func (p InterviewProfile) GetId() int {
	return p.ID
}

// HouseholdSize picks the head count for expense-standard lookups: the stated
// member count, else the age-bucket sum, floor of one.
func (p *InterviewProfile) HouseholdSize() int {
	if p.HouseholdMembers > 0 {
		return p.HouseholdMembers
	}
	if n := p.MembersUnder65 + p.MembersOver65; n > 0 {
		return n
	}
	return 1
}

func (p *InterviewProfile) TotalMonthlyIncome() decimal.Decimal {
	rentalNet := p.RentalGross.Sub(p.RentalExpenses)
	if rentalNet.IsNegative() {
		rentalNet = decimal.Zero
	}
	return p.TaxpayerWages.
		Add(p.TaxpayerSocialSecurity).
		Add(p.TaxpayerPension).
		Add(p.SpouseWages).
		Add(p.SpouseSocialSecurity).
		Add(p.SpousePension).
		Add(p.DividendsInterest).
		Add(rentalNet).
		Add(p.Distributions).
		Add(p.Alimony).
		Add(p.ChildSupport).
		Add(p.OtherIncome).
		Add(p.AdditionalIncome1).
		Add(p.AdditionalIncome2)
}

func (p *InterviewProfile) TotalAssets() decimal.Decimal {
	return p.CheckingAccounts.
		Add(p.CashOnHand).
		Add(p.Investments).
		Add(p.LifeInsurance).
		Add(p.Retirement).
		Add(p.RealEstateValue).
		Add(p.Vehicle1Value).
		Add(p.Vehicle2Value).
		Add(p.Vehicle3Value).
		Add(p.Vehicle4Value)
}

func (p *InterviewProfile) TotalLiabilities() decimal.Decimal {
	return p.CheckingLoans.
		Add(p.CashLoans).
		Add(p.RealEstateLoan).
		Add(p.Vehicle1Loan).
		Add(p.Vehicle2Loan).
		Add(p.Vehicle3Loan).
		Add(p.Vehicle4Loan)
}

// ActualHousing folds mortgages, rent, insurance, property tax and every
// utility line into the housing-and-utilities expense category.
func (p *InterviewProfile) ActualHousing() decimal.Decimal {
	return p.ExpenseMortgage1.
		Add(p.ExpenseMortgage2).
		Add(p.ExpenseRent).
		Add(p.ExpenseHomeInsurance).
		Add(p.ExpensePropertyTax).
		Add(p.ExpenseGas).
		Add(p.ExpenseElectricity).
		Add(p.ExpenseWater).
		Add(p.ExpenseSewer).
		Add(p.ExpenseCable).
		Add(p.ExpenseTrash).
		Add(p.ExpensePhone)
}

func (p *InterviewProfile) ActualTransportation() decimal.Decimal {
	return p.ExpenseTransportation.Add(p.ExpenseAutoInsurance)
}

func (p *InterviewProfile) ActualHealthInsurance() decimal.Decimal {
	return p.ExpenseHealthInsurance.Add(p.ExpensePrescriptions).Add(p.ExpenseCopays)
}

func (p *InterviewProfile) ActualLifeInsurance() decimal.Decimal {
	return p.ExpenseWholeLifeInsurance.Add(p.ExpenseTermLifeInsurance)
}

func (p *InterviewProfile) ActualSecuredDebt() decimal.Decimal {
	return p.ExpenseAutoPayment1.Add(p.ExpenseAutoPayment2)
}

// UpsertInterviewProfile writes the one profile row of a case, last writer
// wins across the whole field set.
func UpsertInterviewProfile(tx *gorm.DB, profile *InterviewProfile) (*InterviewProfile, error) {
	if profile.CaseId == 0 {
		return nil, errors.New("case id is required")
	}

	var existing InterviewProfile
	err := tx.Where("case_id = ?", profile.CaseId).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	}

	if err := tx.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func GetInterviewProfile(ctx context.Context, caseId int) (*InterviewProfile, error) {
	db := config.GetDB()
	var result InterviewProfile
	err := db.WithContext(ctx).Where("case_id = ?", caseId).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
