package calculator

import "math"

// DefaultAnnualContribution is assumed when a profile states no contributions
const DefaultAnnualContribution = 10000

// ReadinessInputs are the resolved figures behind a readiness projection
type ReadinessInputs struct {
	CurrentBalance       float64
	AnnualContribution   float64
	ContributionAssumed  bool
	ExpectedReturn       float64
	YearsToRetirement    int
	TargetIncome         float64
	SocialSecurityIncome float64
	PensionIncome        float64
	SafeWithdrawalRate   float64
}

// RetirementReadiness projects savings to retirement and compares the income
// they support with the target
type RetirementReadiness struct {
	Status
	YearsToRetirement    int     `json:"years_to_retirement"`
	CurrentPortfolio     float64 `json:"current_portfolio"`
	AnnualContribution   float64 `json:"annual_contribution"`
	ContributionAssumed  bool    `json:"contribution_assumed"`
	ExpectedReturn       float64 `json:"expected_return"`
	ProjectedBalance     float64 `json:"projected_balance"`
	SafeWithdrawalRate   float64 `json:"safe_withdrawal_rate"`
	PortfolioIncome      float64 `json:"portfolio_income"`
	SocialSecurityIncome float64 `json:"social_security_income"`
	PensionIncome        float64 `json:"pension_income"`
	TotalIncome          float64 `json:"total_income"`
	TargetIncome         float64 `json:"target_income"`
	IncomeGap            float64 `json:"income_gap"`
	FundedRatio          float64 `json:"funded_ratio"`
	RequiredPortfolio    float64 `json:"required_portfolio"`
	RequiredContribution float64 `json:"required_contribution"`
	ContributionGap      float64 `json:"contribution_gap"`
	OnTrack              bool    `json:"on_track"`
}

// GuaranteedIncome is Social Security plus pension
func (r *RetirementReadiness) GuaranteedIncome() float64 {
	return r.SocialSecurityIncome + r.PensionIncome
}

// ProjectBalance grows a balance with end-of-year contributions for n years
func ProjectBalance(balance, contribution, rate float64, years int) float64 {
	if years <= 0 {
		return balance
	}
	if rate == 0 {
		return balance + contribution*float64(years)
	}
	growth := math.Pow(1+rate, float64(years))
	return balance*growth + contribution*(growth-1)/rate
}

// RequiredContribution is the level annual contribution that reaches target
// in n years from balance; never negative
func RequiredContribution(target, balance, rate float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	var needed float64
	if rate == 0 {
		needed = (target - balance) / float64(years)
	} else {
		growth := math.Pow(1+rate, float64(years))
		needed = (target - balance*growth) / ((growth - 1) / rate)
	}
	return math.Max(needed, 0)
}

// ComputeReadiness evaluates whether projected savings plus guaranteed income
// meet the target. income_gap > 0 is a shortfall.
func ComputeReadiness(in ReadinessInputs) *RetirementReadiness {
	rate := in.SafeWithdrawalRate
	if rate <= 0 {
		rate = DefaultSafeWithdrawalRate
	}

	out := &RetirementReadiness{
		YearsToRetirement:    in.YearsToRetirement,
		CurrentPortfolio:     roundMoney(in.CurrentBalance),
		AnnualContribution:   roundMoney(in.AnnualContribution),
		ContributionAssumed:  in.ContributionAssumed,
		ExpectedReturn:       roundTo(in.ExpectedReturn, 6),
		SafeWithdrawalRate:   rate,
		SocialSecurityIncome: roundMoney(in.SocialSecurityIncome),
		PensionIncome:        roundMoney(in.PensionIncome),
		TargetIncome:         roundMoney(in.TargetIncome),
	}

	if in.CurrentBalance < 0 || in.AnnualContribution < 0 || in.TargetIncome < 0 {
		out.Status = notApplicable("balances, contributions and income targets must be non-negative")
		return out
	}

	projected := ProjectBalance(in.CurrentBalance, in.AnnualContribution, in.ExpectedReturn, in.YearsToRetirement)
	portfolioIncome := projected * rate
	total := portfolioIncome + in.SocialSecurityIncome + in.PensionIncome
	requiredPortfolio := math.Max(in.TargetIncome-in.SocialSecurityIncome-in.PensionIncome, 0) / rate
	required := RequiredContribution(requiredPortfolio, in.CurrentBalance, in.ExpectedReturn, in.YearsToRetirement)

	out.ProjectedBalance = roundMoney(projected)
	out.PortfolioIncome = roundMoney(portfolioIncome)
	out.TotalIncome = roundMoney(total)
	out.IncomeGap = roundMoney(in.TargetIncome - total)
	out.RequiredPortfolio = roundMoney(requiredPortfolio)
	out.RequiredContribution = roundMoney(required)
	out.ContributionGap = roundMoney(math.Max(required-in.AnnualContribution, 0))
	out.OnTrack = out.IncomeGap <= 0
	if in.TargetIncome > 0 {
		out.FundedRatio = roundTo(total/in.TargetIncome, 4)
	} else {
		out.FundedRatio = 1
	}
	return out
}
