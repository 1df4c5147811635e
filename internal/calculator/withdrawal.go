package calculator

import "fmt"

// DefaultSafeWithdrawalRate is the static 4% rule
const DefaultSafeWithdrawalRate = 0.04

// SafeWithdrawal applies a fixed withdrawal rate to the portfolio
type SafeWithdrawal struct {
	Status
	PortfolioValue float64 `json:"portfolio_value"`
	WithdrawalRate float64 `json:"withdrawal_rate"`
	AnnualAmount   float64 `json:"annual_amount"`
	MonthlyAmount  float64 `json:"monthly_amount"`
	Assumption     string  `json:"assumption"`
}

// ComputeSafeWithdrawal returns balance × rate. This is a static heuristic,
// independent of the Monte Carlo success probability.
func ComputeSafeWithdrawal(balance, rate float64, horizonYears int) *SafeWithdrawal {
	if rate <= 0 {
		rate = DefaultSafeWithdrawalRate
	}
	if horizonYears <= 0 {
		horizonYears = 30
	}

	out := &SafeWithdrawal{
		PortfolioValue: roundMoney(balance),
		WithdrawalRate: rate,
		Assumption: fmt.Sprintf(
			"static %.1f%% rule of thumb for a %d-year retirement; it ignores return sequence risk, which the Monte Carlo success probability measures",
			rate*100, horizonYears),
	}
	if balance < 0 {
		out.Status = notApplicable("balance cannot be negative")
		return out
	}

	annual := balance * rate
	out.AnnualAmount = roundMoney(annual)
	out.MonthlyAmount = roundMoney(annual / 12)
	return out
}
