package calculator

import (
	"math"
	"strings"
)

const (
	// DefaultLoanTermYears is the standard federal repayment term
	DefaultLoanTermYears = 10

	// MaxLoanTermMonths bounds an amortization schedule; longer terms are not applicable
	MaxLoanTermMonths = MaxPayoffMonths

	// Poverty guideline for the 48 contiguous states
	povertyGuidelineBase      = 15060
	povertyGuidelinePerPerson = 5380
)

// IDRPlan is an income-driven repayment plan
type IDRPlan struct {
	Name            string  `json:"name"`
	PovertyMultiple float64 `json:"poverty_multiple"`
	IncomeShare     float64 `json:"income_share"`
}

// IDRPlans lists supported plans in display order
func IDRPlans() []IDRPlan {
	return []IDRPlan{
		{Name: "save", PovertyMultiple: 2.25, IncomeShare: 0.10},
		{Name: "paye", PovertyMultiple: 1.50, IncomeShare: 0.10},
		{Name: "ibr", PovertyMultiple: 1.50, IncomeShare: 0.10},
		{Name: "icr", PovertyMultiple: 1.00, IncomeShare: 0.20},
	}
}

// PovertyGuideline returns the annual guideline for a household size
func PovertyGuideline(householdSize int) float64 {
	householdSize = max(householdSize, 1)
	return povertyGuidelineBase + povertyGuidelinePerPerson*float64(householdSize-1)
}

// IDREstimate is the payment under one income-driven plan
type IDREstimate struct {
	Plan                string  `json:"plan"`
	DiscretionaryIncome float64 `json:"discretionary_income"`
	MonthlyPayment      float64 `json:"monthly_payment"`
	SavingsVsStandard   float64 `json:"savings_vs_standard"`
}

// IncomeDrivenPayment is share × (income − multiple × poverty line) / 12, floored at zero
func IncomeDrivenPayment(plan IDRPlan, annualIncome float64, householdSize int) IDREstimate {
	discretionary := math.Max(annualIncome-plan.PovertyMultiple*PovertyGuideline(householdSize), 0)
	monthly := math.Max(plan.IncomeShare*discretionary/12, 0)
	return IDREstimate{
		Plan:                plan.Name,
		DiscretionaryIncome: roundMoney(discretionary),
		MonthlyPayment:      roundMoney(monthly),
	}
}

// AmortizationYear summarizes one year of a schedule
type AmortizationYear struct {
	Year          int     `json:"year"`
	PrincipalPaid float64 `json:"principal_paid"`
	InterestPaid  float64 `json:"interest_paid"`
	EndingBalance float64 `json:"ending_balance"`
}

// AmortizationSchedule is a fixed-payment schedule plus optional IDR estimates
type AmortizationSchedule struct {
	Status
	Principal      float64            `json:"principal"`
	AnnualRate     float64            `json:"annual_rate"`
	TermMonths     int                `json:"term_months"`
	MonthlyPayment float64            `json:"monthly_payment"`
	TotalPaid      float64            `json:"total_paid"`
	TotalInterest  float64            `json:"total_interest"`
	Years          []AmortizationYear `json:"years"`
	LoanType       string             `json:"loan_type,omitempty"`
	RepaymentPlan  string             `json:"repayment_plan,omitempty"`
	AnnualIncome   float64            `json:"annual_income,omitempty"`
	HouseholdSize  int                `json:"household_size,omitempty"`
	IDR            []IDREstimate      `json:"idr,omitempty"`
	LowestIDRPlan  string             `json:"lowest_idr_plan,omitempty"`
}

// IsFederal reports whether the loan is federal; unspecified loans are treated as federal
func (a *AmortizationSchedule) IsFederal() bool {
	return a.LoanType == "" || a.LoanType == "federal"
}

// LowestIDR returns the cheapest IDR estimate, if any were computed
func (a *AmortizationSchedule) LowestIDR() (IDREstimate, bool) {
	for _, e := range a.IDR {
		if e.Plan == a.LowestIDRPlan {
			return e, true
		}
	}
	return IDREstimate{}, false
}

// MonthlyPayment is the level payment P·r(1+r)^n / ((1+r)^n − 1); zero rate is P/n
func MonthlyPayment(principal, annualRatePct float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return principal / float64(months)
	}
	growth := math.Pow(1+r, float64(months))
	if math.IsInf(growth, 1) {
		// The level payment converges to interest only
		return principal * r
	}
	return principal * r * growth / (growth - 1)
}

// AmortizeYears is Amortize for a term stated in years
func AmortizeYears(principal, annualRatePct float64, years int) *AmortizationSchedule {
	if years > MaxLoanTermMonths/12 {
		return &AmortizationSchedule{
			Status:     notApplicable("a %d-year term is longer than the %d years that can be scheduled", years, MaxLoanTermMonths/12),
			Principal:  roundMoney(principal),
			AnnualRate: annualRatePct,
		}
	}
	return Amortize(principal, annualRatePct, years*12)
}

// Amortize builds the yearly schedule for a fixed-payment loan
func Amortize(principal, annualRatePct float64, termMonths int) *AmortizationSchedule {
	if termMonths <= 0 {
		termMonths = DefaultLoanTermYears * 12
	}

	out := &AmortizationSchedule{
		Principal:  roundMoney(principal),
		AnnualRate: annualRatePct,
		TermMonths: termMonths,
	}
	if principal < 0 || annualRatePct < 0 {
		out.Status = notApplicable("principal and rate must be non-negative")
		return out
	}
	if principal < BalanceTolerance {
		out.Status = notApplicable("loan is already paid off")
		return out
	}
	if termMonths > MaxLoanTermMonths {
		out.Status = notApplicable("a %d-month term is longer than the %d months that can be scheduled", termMonths, MaxLoanTermMonths)
		return out
	}

	payment := MonthlyPayment(principal, annualRatePct, termMonths)
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		out.Status = notApplicable("the monthly payment is undefined for this rate and term")
		return out
	}
	r := annualRatePct / 100 / 12
	balance := principal
	var totalPaid, totalInterest float64
	year := AmortizationYear{Year: 1}

	for month := 1; month <= termMonths; month++ {
		interest := balance * r
		principalPart := math.Min(payment-interest, balance)
		if month == termMonths {
			principalPart = balance
		}
		balance -= principalPart
		totalPaid += principalPart + interest
		totalInterest += interest

		year.PrincipalPaid += principalPart
		year.InterestPaid += interest
		if month%12 == 0 || month == termMonths {
			year.EndingBalance = roundMoney(math.Max(balance, 0))
			year.PrincipalPaid = roundMoney(year.PrincipalPaid)
			year.InterestPaid = roundMoney(year.InterestPaid)
			out.Years = append(out.Years, year)
			year = AmortizationYear{Year: year.Year + 1}
		}
	}

	out.MonthlyPayment = roundMoney(payment)
	out.TotalPaid = roundMoney(totalPaid)
	out.TotalInterest = roundMoney(totalInterest)
	return out
}

// WithIDR attaches income-driven estimates for every plan
func (a *AmortizationSchedule) WithIDR(annualIncome float64, householdSize int) *AmortizationSchedule {
	if !a.Applicable() || annualIncome < 0 {
		return a
	}
	a.AnnualIncome = roundMoney(annualIncome)
	a.HouseholdSize = max(householdSize, 1)

	lowest := math.Inf(1)
	for _, plan := range IDRPlans() {
		est := IncomeDrivenPayment(plan, annualIncome, a.HouseholdSize)
		est.SavingsVsStandard = roundMoney(a.MonthlyPayment - est.MonthlyPayment)
		a.IDR = append(a.IDR, est)
		if est.MonthlyPayment < lowest {
			lowest = est.MonthlyPayment
			a.LowestIDRPlan = est.Plan
		}
	}
	return a
}

func normalizePlan(plan string) string {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if plan == "" {
		return "standard"
	}
	return plan
}
