package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientProfile is the read-only financial context a question is answered against.
// Scalars are pointers so that "not provided" is distinguishable from zero.
// Rates are expressed in percent (18.5 means 18.5%).
type ClientProfile struct {
	CurrentAge             *int     `json:"current_age,omitempty"`
	RetirementAge          *int     `json:"retirement_age,omitempty"`
	YearsUntilRetirement   *int     `json:"years_until_retirement,omitempty"`
	LifeExpectancy         *int     `json:"life_expectancy,omitempty"`
	TargetRetirementIncome *float64 `json:"target_retirement_income,omitempty"`

	Income             *float64 `json:"income,omitempty"`
	MonthlyIncome      *float64 `json:"monthly_income,omitempty"`
	CurrentSavings     *float64 `json:"current_savings,omitempty"`
	AnnualContribution *float64 `json:"annual_contribution,omitempty"`
	AnnualWithdrawal   *float64 `json:"annual_withdrawal,omitempty"`
	EmergencyFund      *float64 `json:"emergency_fund,omitempty"`
	Accounts           []Account `json:"accounts,omitempty"`
	HistoricalReturns  []float64 `json:"historical_returns,omitempty"`

	SocialSecurityBenefit *float64 `json:"social_security_benefit,omitempty"`
	FullRetirementAge     *int     `json:"full_retirement_age,omitempty"`
	ClaimingAge           *int     `json:"claiming_age,omitempty"`
	PensionIncome         *float64 `json:"pension_income,omitempty"`
	HealthStatus          string   `json:"health_status,omitempty"`
	MaritalStatus         string   `json:"marital_status,omitempty"`

	Debts          []Debt       `json:"debts,omitempty"`
	MonthlyPayment *float64     `json:"monthly_payment,omitempty"`
	StudentLoan    *StudentLoan `json:"student_loan,omitempty"`
	HouseholdSize  *int         `json:"household_size,omitempty"`
	EmployerType   string       `json:"employer_type,omitempty"`
	Expenses       *Expenses    `json:"expenses,omitempty"`

	Goals []Goal `json:"goals,omitempty"`
}

// Account is a savings or investment account
type Account struct {
	Name               string     `json:"name"`
	Type               string     `json:"type"` // 401k, 403b, ira, roth_ira, hsa, taxable
	Balance            float64    `json:"balance"`
	AnnualContribution float64    `json:"annual_contribution,omitempty"`
	Positions          []Position `json:"positions,omitempty"`
}

// Position is a holding inside an account
type Position struct {
	Symbol     string  `json:"symbol"`
	AssetClass string  `json:"asset_class"` // equity, bonds, real_estate, cash
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
}

// Value returns quantity × price
func (p Position) Value() float64 {
	return p.Quantity * p.Price
}

// Value returns the account value: positions when present, balance otherwise
func (a Account) Value() float64 {
	if len(a.Positions) == 0 {
		return a.Balance
	}
	var total float64
	for _, p := range a.Positions {
		total += p.Value()
	}
	return total
}

// Debt is a single liability in payoff order as supplied by the caller
type Debt struct {
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	InterestRate   float64 `json:"interest_rate"`
	MinimumPayment float64 `json:"minimum_payment"`
	Type           string  `json:"type,omitempty"` // credit_card, auto, student, mortgage, personal
}

// StudentLoan describes a student loan for amortization and income-driven repayment
type StudentLoan struct {
	Balance         float64 `json:"balance"`
	InterestRate    float64 `json:"interest_rate"`
	TermYears       int     `json:"term_years,omitempty"`
	LoanType        string  `json:"loan_type,omitempty"`      // federal, private
	RepaymentPlan   string  `json:"repayment_plan,omitempty"` // standard, save, paye, ibr, icr
	EmployerBenefit float64 `json:"employer_benefit,omitempty"`
}

// Expenses is the monthly expense breakdown; fixed lines are treated as needs
type Expenses struct {
	Fixed    map[string]float64 `json:"fixed,omitempty"`
	Variable map[string]float64 `json:"variable,omitempty"`
}

// Goal is a savings target
type Goal struct {
	Name                string  `json:"name"`
	TargetAmount        float64 `json:"target_amount"`
	CurrentAmount       float64 `json:"current_amount"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	Priority            int     `json:"priority,omitempty"`
}

// Stored wraps a profile persisted for a user
type Stored struct {
	UserID    uuid.UUID     `json:"user_id"`
	Profile   ClientProfile `json:"profile"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// YearsToRetirement returns years_until_retirement, or retirement_age - current_age
func (p *ClientProfile) YearsToRetirement() (int, bool) {
	if p.YearsUntilRetirement != nil {
		return max(*p.YearsUntilRetirement, 0), true
	}
	if p.RetirementAge != nil && p.CurrentAge != nil {
		return max(*p.RetirementAge-*p.CurrentAge, 0), true
	}
	return 0, false
}

// PortfolioBalance sums account values, falling back to current_savings
func (p *ClientProfile) PortfolioBalance() float64 {
	if len(p.Accounts) == 0 {
		return Float(p.CurrentSavings)
	}
	var total float64
	for _, a := range p.Accounts {
		total += a.Value()
	}
	return total
}

// HasPortfolio reports whether any balance information was supplied
func (p *ClientProfile) HasPortfolio() bool {
	return len(p.Accounts) > 0 || p.CurrentSavings != nil
}

// MonthlyGrossIncome returns monthly_income, or income / 12
func (p *ClientProfile) MonthlyGrossIncome() (float64, bool) {
	if p.MonthlyIncome != nil {
		return *p.MonthlyIncome, true
	}
	if p.Income != nil {
		return *p.Income / 12, true
	}
	return 0, false
}

// AnnualIncome returns income, or monthly_income × 12
func (p *ClientProfile) AnnualIncome() (float64, bool) {
	if p.Income != nil {
		return *p.Income, true
	}
	if p.MonthlyIncome != nil {
		return *p.MonthlyIncome * 12, true
	}
	return 0, false
}

// ContributionsByType sums annual contributions per normalized account type
func (p *ClientProfile) ContributionsByType() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range p.Accounts {
		out[NormalizeAccountType(a.Type)] += a.AnnualContribution
	}
	return out
}

// HasAccountType reports whether an account of the normalized type exists
func (p *ClientProfile) HasAccountType(accountType string) bool {
	for _, a := range p.Accounts {
		if NormalizeAccountType(a.Type) == accountType {
			return true
		}
	}
	return false
}

// TotalMinimumPayments sums minimum payments across debts
func (p *ClientProfile) TotalMinimumPayments() float64 {
	var total float64
	for _, d := range p.Debts {
		total += d.MinimumPayment
	}
	return total
}

// Total returns fixed plus variable monthly spending
func (e *Expenses) Total() float64 {
	if e == nil {
		return 0
	}
	return sumValues(e.Fixed) + sumValues(e.Variable)
}

// FixedTotal returns the sum of fixed lines
func (e *Expenses) FixedTotal() float64 {
	if e == nil {
		return 0
	}
	return sumValues(e.Fixed)
}

// VariableTotal returns the sum of variable lines
func (e *Expenses) VariableTotal() float64 {
	if e == nil {
		return 0
	}
	return sumValues(e.Variable)
}

// Line looks a category up in either section, case-insensitively
func (e *Expenses) Line(name string) float64 {
	if e == nil {
		return 0
	}
	name = strings.ToLower(name)
	var total float64
	for _, section := range []map[string]float64{e.Fixed, e.Variable} {
		for k, v := range section {
			if strings.ToLower(k) == name {
				total += v
			}
		}
	}
	return total
}

// SortedKeys returns map keys in lexical order for deterministic iteration
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeAccountType maps caller spellings onto 401k, 403b, ira, roth_ira, hsa, taxable
func NormalizeAccountType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.NewReplacer("(", "", ")", "", "-", "_", " ", "_").Replace(t)
	switch t {
	case "401k", "roth_401k":
		return "401k"
	case "403b":
		return "403b"
	case "ira", "traditional_ira":
		return "ira"
	case "roth", "roth_ira", "rothira":
		return "roth_ira"
	case "hsa", "health_savings":
		return "hsa"
	case "":
		return "taxable"
	default:
		return t
	}
}

// Float dereferences an optional amount, treating nil as zero
func Float(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Int dereferences an optional integer, treating nil as zero
func Int(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func sumValues(m map[string]float64) float64 {
	var total float64
	for _, k := range SortedKeys(m) {
		total += m[k]
	}
	return total
}
