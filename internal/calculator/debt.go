package calculator

import (
	"math"
	"sort"

	"finadvisor/internal/domain/profile"
)

const (
	// MaxPayoffMonths bounds every payoff simulation (50 years)
	MaxPayoffMonths = 600

	// DefaultAvalancheSpread is the rate spread, in percentage points, above
	// which Avalanche is recommended over Snowball
	DefaultAvalancheSpread = 3.0
)

// PayoffStrategy orders debts for extra payments
type PayoffStrategy string

const (
	StrategyAvalanche PayoffStrategy = "avalanche"
	StrategySnowball  PayoffStrategy = "snowball"
)

// StrategyOutcome is the simulated result of one payoff ordering
type StrategyOutcome struct {
	Strategy      PayoffStrategy `json:"strategy"`
	Months        int            `json:"months"`
	TotalInterest float64        `json:"total_interest"`
	TotalPaid     float64        `json:"total_paid"`
	PayoffOrder   []string       `json:"payoff_order"`
	Converged     bool           `json:"converged"`
}

// DebtStrategyComparison compares Avalanche (highest rate first) with
// Snowball (smallest balance first) under the same monthly budget
type DebtStrategyComparison struct {
	Status
	DebtCount       int             `json:"debt_count"`
	TotalBalance    float64         `json:"total_balance"`
	TotalMinimums   float64         `json:"total_minimums"`
	MonthlyPayment  float64         `json:"monthly_payment"`
	ExtraPayment    float64         `json:"extra_payment"`
	HighestRate     float64         `json:"highest_rate"`
	AverageRate     float64         `json:"average_rate"`
	RateSpread      float64         `json:"rate_spread"`
	SpreadThreshold float64         `json:"spread_threshold"`
	Avalanche       StrategyOutcome `json:"avalanche"`
	Snowball        StrategyOutcome `json:"snowball"`
	InterestSavings float64         `json:"interest_savings"`
	MonthsSaved     int             `json:"months_saved"`
	Recommended     PayoffStrategy  `json:"recommended"`
}

// Outcome returns the simulated outcome for the recommended strategy
func (d *DebtStrategyComparison) Outcome() StrategyOutcome {
	if d.Recommended == StrategyAvalanche {
		return d.Avalanche
	}
	return d.Snowball
}

// AvalancheOrder sorts by rate descending; ties keep input order
func AvalancheOrder(debts []profile.Debt) []profile.Debt {
	out := append([]profile.Debt(nil), debts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InterestRate > out[j].InterestRate
	})
	return out
}

// SnowballOrder sorts by balance ascending; ties keep input order
func SnowballOrder(debts []profile.Debt) []profile.Debt {
	out := append([]profile.Debt(nil), debts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance < out[j].Balance
	})
	return out
}

// RecommendStrategy prefers Avalanche when the spread strictly exceeds threshold
func RecommendStrategy(spread, threshold float64) PayoffStrategy {
	if spread > threshold {
		return StrategyAvalanche
	}
	return StrategySnowball
}

// CompareDebtStrategies simulates both orderings month by month. Each month
// interest accrues, every active debt receives its minimum, and whatever is
// left of the budget goes to debts in strategy order. A paid-off debt's
// minimum stays in the budget and rolls to the next debt.
func CompareDebtStrategies(debts []profile.Debt, monthlyPayment, spreadThreshold float64) *DebtStrategyComparison {
	if spreadThreshold < 0 {
		spreadThreshold = DefaultAvalancheSpread
	}

	active := make([]profile.Debt, 0, len(debts))
	for _, d := range debts {
		if d.Balance < 0 || d.InterestRate < 0 || d.MinimumPayment < 0 {
			return &DebtStrategyComparison{Status: notApplicable("debt %q has a negative balance, rate or minimum", d.Name)}
		}
		if d.Balance >= BalanceTolerance {
			active = append(active, d)
		}
	}

	out := &DebtStrategyComparison{
		DebtCount:       len(active),
		MonthlyPayment:  roundMoney(monthlyPayment),
		SpreadThreshold: spreadThreshold,
	}
	if len(active) == 0 {
		out.Status = notApplicable("no outstanding balances")
		return out
	}

	var totalBalance, totalMinimums, weightedRate float64
	lowest, highest := math.Inf(1), math.Inf(-1)
	for _, d := range active {
		totalBalance += d.Balance
		totalMinimums += d.MinimumPayment
		weightedRate += d.InterestRate * d.Balance
		lowest = math.Min(lowest, d.InterestRate)
		highest = math.Max(highest, d.InterestRate)
	}
	out.TotalBalance = roundMoney(totalBalance)
	out.TotalMinimums = roundMoney(totalMinimums)
	out.ExtraPayment = roundMoney(math.Max(monthlyPayment-totalMinimums, 0))
	out.HighestRate = highest
	out.AverageRate = roundTo(weightedRate/totalBalance, 2)
	out.RateSpread = roundTo(highest-lowest, 2)
	out.Recommended = RecommendStrategy(out.RateSpread, spreadThreshold)

	if monthlyPayment < totalMinimums-BalanceTolerance {
		out.Status = notApplicable("monthly payment of %.2f does not cover the %.2f in minimum payments", monthlyPayment, totalMinimums)
		return out
	}

	out.Avalanche = simulatePayoff(StrategyAvalanche, AvalancheOrder(active), monthlyPayment)
	out.Snowball = simulatePayoff(StrategySnowball, SnowballOrder(active), monthlyPayment)
	out.InterestSavings = roundMoney(out.Snowball.TotalInterest - out.Avalanche.TotalInterest)
	out.MonthsSaved = out.Snowball.Months - out.Avalanche.Months

	if !out.Avalanche.Converged || !out.Snowball.Converged {
		out.Status = notApplicable("debts are not paid off within %d months at this payment", MaxPayoffMonths)
	}
	return out
}

func simulatePayoff(strategy PayoffStrategy, ordered []profile.Debt, budget float64) StrategyOutcome {
	balances := make([]float64, len(ordered))
	for i, d := range ordered {
		balances[i] = d.Balance
	}

	outcome := StrategyOutcome{Strategy: strategy, PayoffOrder: make([]string, 0, len(ordered))}
	paid := make([]bool, len(ordered))
	var totalPaid, totalInterest float64
	remaining := len(ordered)

	for month := 1; month <= MaxPayoffMonths && remaining > 0; month++ {
		for i, d := range ordered {
			if balances[i] == 0 {
				continue
			}
			interest := balances[i] * d.InterestRate / 100 / 12
			balances[i] += interest
			totalInterest += interest
		}

		available := budget
		for i, d := range ordered {
			if balances[i] == 0 {
				continue
			}
			pay := math.Min(math.Min(d.MinimumPayment, balances[i]), available)
			balances[i] -= pay
			available -= pay
			totalPaid += pay
		}

		for i := range ordered {
			if available <= 0 {
				break
			}
			if balances[i] == 0 {
				continue
			}
			pay := math.Min(available, balances[i])
			balances[i] -= pay
			available -= pay
			totalPaid += pay
		}

		for i, d := range ordered {
			if balances[i] != 0 && balances[i] < BalanceTolerance {
				totalPaid += balances[i]
				balances[i] = 0
			}
			if balances[i] == 0 && !paid[i] {
				paid[i] = true
				outcome.PayoffOrder = append(outcome.PayoffOrder, d.Name)
				remaining--
			}
		}
		outcome.Months = month
	}

	outcome.Converged = remaining == 0
	outcome.TotalInterest = roundMoney(totalInterest)
	outcome.TotalPaid = roundMoney(totalPaid)
	return outcome
}
