package profile

import (
	"fmt"

	"finadvisor/pkg/errors"
)

// Merge returns a copy of base with every field set in override applied on top.
// Slices replace wholesale; a nil base yields a copy of override.
func Merge(base, override *ClientProfile) *ClientProfile {
	out := &ClientProfile{}
	if base != nil {
		*out = *base
	}
	if override == nil {
		return out
	}

	mergeInt(&out.CurrentAge, override.CurrentAge)
	mergeInt(&out.RetirementAge, override.RetirementAge)
	mergeInt(&out.YearsUntilRetirement, override.YearsUntilRetirement)
	mergeInt(&out.LifeExpectancy, override.LifeExpectancy)
	mergeFloat(&out.TargetRetirementIncome, override.TargetRetirementIncome)
	mergeFloat(&out.Income, override.Income)
	mergeFloat(&out.MonthlyIncome, override.MonthlyIncome)
	mergeFloat(&out.CurrentSavings, override.CurrentSavings)
	mergeFloat(&out.AnnualContribution, override.AnnualContribution)
	mergeFloat(&out.AnnualWithdrawal, override.AnnualWithdrawal)
	mergeFloat(&out.EmergencyFund, override.EmergencyFund)
	mergeFloat(&out.SocialSecurityBenefit, override.SocialSecurityBenefit)
	mergeInt(&out.FullRetirementAge, override.FullRetirementAge)
	mergeInt(&out.ClaimingAge, override.ClaimingAge)
	mergeFloat(&out.PensionIncome, override.PensionIncome)
	mergeFloat(&out.MonthlyPayment, override.MonthlyPayment)
	mergeInt(&out.HouseholdSize, override.HouseholdSize)

	if override.HealthStatus != "" {
		out.HealthStatus = override.HealthStatus
	}
	if override.MaritalStatus != "" {
		out.MaritalStatus = override.MaritalStatus
	}
	if override.EmployerType != "" {
		out.EmployerType = override.EmployerType
	}
	if override.Accounts != nil {
		out.Accounts = override.Accounts
	}
	if override.HistoricalReturns != nil {
		out.HistoricalReturns = override.HistoricalReturns
	}
	if override.Debts != nil {
		out.Debts = override.Debts
	}
	if override.StudentLoan != nil {
		out.StudentLoan = override.StudentLoan
	}
	if override.Expenses != nil {
		out.Expenses = override.Expenses
	}
	if override.Goals != nil {
		out.Goals = override.Goals
	}

	return out
}

const (
	// MaxAge bounds every age and year-count field
	MaxAge = 120

	// MaxLoanTermYears bounds student_loan.term_years
	MaxLoanTermYears = 50
)

// Validate enforces the non-negativity invariant on every numeric field and
// keeps ages, horizons and loan terms inside the ranges the calculators model
func (p *ClientProfile) Validate() error {
	var errs errors.MultiError

	checkInt := func(field string, v *int) {
		if v != nil && *v < 0 {
			errs.Add(errors.NewValidationError(field, "must be non-negative", *v))
		}
	}
	checkFloat := func(field string, v *float64) {
		if v != nil && *v < 0 {
			errs.Add(errors.NewValidationError(field, "must be non-negative", *v))
		}
	}
	checkValue := func(field string, v float64) {
		if v < 0 {
			errs.Add(errors.NewValidationError(field, "must be non-negative", v))
		}
	}
	checkRange := func(field string, v *int, limit int) {
		switch {
		case v == nil:
		case *v < 0:
			errs.Add(errors.NewValidationError(field, "must be non-negative", *v))
		case *v > limit:
			errs.Add(errors.NewValidationError(field, fmt.Sprintf("must be at most %d", limit), *v))
		}
	}

	checkRange("current_age", p.CurrentAge, MaxAge)
	checkRange("retirement_age", p.RetirementAge, MaxAge)
	checkRange("years_until_retirement", p.YearsUntilRetirement, MaxAge)
	checkRange("life_expectancy", p.LifeExpectancy, MaxAge)
	checkFloat("target_retirement_income", p.TargetRetirementIncome)
	checkFloat("income", p.Income)
	checkFloat("monthly_income", p.MonthlyIncome)
	checkFloat("current_savings", p.CurrentSavings)
	checkFloat("annual_contribution", p.AnnualContribution)
	checkFloat("annual_withdrawal", p.AnnualWithdrawal)
	checkFloat("emergency_fund", p.EmergencyFund)
	checkFloat("social_security_benefit", p.SocialSecurityBenefit)
	checkRange("full_retirement_age", p.FullRetirementAge, MaxAge)
	checkRange("claiming_age", p.ClaimingAge, MaxAge)
	checkFloat("pension_income", p.PensionIncome)
	checkFloat("monthly_payment", p.MonthlyPayment)
	checkInt("household_size", p.HouseholdSize)

	for i, a := range p.Accounts {
		checkValue(fmt.Sprintf("accounts[%d].balance", i), a.Balance)
		checkValue(fmt.Sprintf("accounts[%d].annual_contribution", i), a.AnnualContribution)
		for j, pos := range a.Positions {
			checkValue(fmt.Sprintf("accounts[%d].positions[%d].quantity", i, j), pos.Quantity)
			checkValue(fmt.Sprintf("accounts[%d].positions[%d].price", i, j), pos.Price)
		}
	}
	for i, d := range p.Debts {
		checkValue(fmt.Sprintf("debts[%d].balance", i), d.Balance)
		checkValue(fmt.Sprintf("debts[%d].interest_rate", i), d.InterestRate)
		checkValue(fmt.Sprintf("debts[%d].minimum_payment", i), d.MinimumPayment)
	}
	if p.StudentLoan != nil {
		checkValue("student_loan.balance", p.StudentLoan.Balance)
		checkValue("student_loan.interest_rate", p.StudentLoan.InterestRate)
		checkRange("student_loan.term_years", &p.StudentLoan.TermYears, MaxLoanTermYears)
	}
	if p.Expenses != nil {
		for _, k := range SortedKeys(p.Expenses.Fixed) {
			checkValue("expenses.fixed."+k, p.Expenses.Fixed[k])
		}
		for _, k := range SortedKeys(p.Expenses.Variable) {
			checkValue("expenses.variable."+k, p.Expenses.Variable[k])
		}
	}
	for i, g := range p.Goals {
		checkValue(fmt.Sprintf("goals[%d].target_amount", i), g.TargetAmount)
		checkValue(fmt.Sprintf("goals[%d].current_amount", i), g.CurrentAmount)
		checkValue(fmt.Sprintf("goals[%d].monthly_contribution", i), g.MonthlyContribution)
	}

	return errs.ToError()
}

// InvalidFields lists the fields named by the validation errors in err, in check order
func InvalidFields(err error) []string {
	var fields []string
	collect := func(e error) {
		var ve *errors.ValidationError
		if errors.As(e, &ve) {
			fields = append(fields, ve.Field)
		}
	}

	var multi *errors.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			collect(e)
		}
		return fields
	}
	if err != nil {
		collect(err)
	}
	return fields
}

func mergeInt(dst **int, v *int) {
	if v != nil {
		n := *v
		*dst = &n
	}
}

func mergeFloat(dst **float64, v *float64) {
	if v != nil {
		n := *v
		*dst = &n
	}
}

// IntPtr and FloatPtr build optional fields in fixtures and request decoding
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
