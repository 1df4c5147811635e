package calculator

import (
	"math"

	"finadvisor/internal/domain/profile"
)

// Budget frameworks
const (
	Framework503020    = "50_30_20"
	FrameworkZeroBased = "zero_based"
)

// 50/30/20 target shares
const (
	NeedsShare   = 50.0
	WantsShare   = 30.0
	SavingsShare = 20.0
)

// BudgetLine is one category of a zero-based allocation; Percent is of the total allocated
type BudgetLine struct {
	Category string  `json:"category"`
	Section  string  `json:"section"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// BudgetAllocation partitions monthly income by the 50/30/20 rule and, when
// expenses are supplied, validates them as a zero-based allocation
type BudgetAllocation struct {
	Status
	Framework     string  `json:"framework"`
	MonthlyIncome float64 `json:"monthly_income"`

	NeedsTarget    float64 `json:"needs_target"`
	WantsTarget    float64 `json:"wants_target"`
	SavingsTarget  float64 `json:"savings_target"`
	NeedsPercent   float64 `json:"needs_percent"`
	WantsPercent   float64 `json:"wants_percent"`
	SavingsPercent float64 `json:"savings_percent"`

	HasExpenses          bool         `json:"has_expenses"`
	ActualNeeds          float64      `json:"actual_needs"`
	ActualWants          float64      `json:"actual_wants"`
	ActualNeedsPercent   float64      `json:"actual_needs_percent"`
	ActualWantsPercent   float64      `json:"actual_wants_percent"`
	ActualSavingsPercent float64      `json:"actual_savings_percent"`
	Lines                []BudgetLine `json:"lines,omitempty"`
	TotalAllocated       float64      `json:"total_allocated"`
	Remaining            float64      `json:"remaining"`
	Balanced             bool         `json:"balanced"`
}

// ComputeBudget builds the 50/30/20 targets and checks supplied expenses
// against income. Remaining = income − expenses; Balanced when |Remaining| < 0.01.
func ComputeBudget(monthlyIncome float64, expenses *profile.Expenses, framework string) *BudgetAllocation {
	if framework == "" {
		framework = Framework503020
	}
	out := &BudgetAllocation{
		Framework:      framework,
		MonthlyIncome:  roundMoney(monthlyIncome),
		NeedsPercent:   NeedsShare,
		WantsPercent:   WantsShare,
		SavingsPercent: SavingsShare,
	}

	if monthlyIncome < 0 {
		out.Status = notApplicable("income cannot be negative")
		return out
	}
	if monthlyIncome == 0 {
		out.Status = notApplicable("income is zero, so no share of income can be computed")
		return out
	}

	out.NeedsTarget = roundMoney(monthlyIncome * NeedsShare / 100)
	out.WantsTarget = roundMoney(monthlyIncome * WantsShare / 100)
	out.SavingsTarget = roundMoney(monthlyIncome - out.NeedsTarget - out.WantsTarget)

	if expenses == nil || expenses.Total() == 0 {
		out.Remaining = out.MonthlyIncome
		return out
	}
	out.HasExpenses = true

	var amounts []float64
	for _, section := range []struct {
		name  string
		items map[string]float64
	}{{"fixed", expenses.Fixed}, {"variable", expenses.Variable}} {
		for _, k := range profile.SortedKeys(section.items) {
			v := section.items[k]
			if v < 0 {
				return &BudgetAllocation{Framework: framework, Status: notApplicable("expense %q is negative", k)}
			}
			out.Lines = append(out.Lines, BudgetLine{Category: k, Section: section.name, Amount: roundMoney(v)})
			amounts = append(amounts, v)
		}
	}
	if shares := percentShares(amounts); shares != nil {
		for i := range out.Lines {
			out.Lines[i].Percent = shares[i]
		}
	}

	needs := expenses.FixedTotal()
	wants := expenses.VariableTotal()
	total := needs + wants
	remaining := monthlyIncome - total

	out.ActualNeeds = roundMoney(needs)
	out.ActualWants = roundMoney(wants)
	out.ActualNeedsPercent = roundTo(needs/monthlyIncome*100, 1)
	out.ActualWantsPercent = roundTo(wants/monthlyIncome*100, 1)
	out.ActualSavingsPercent = roundTo(math.Max(remaining, 0)/monthlyIncome*100, 1)
	out.TotalAllocated = roundMoney(total)
	out.Remaining = roundMoney(remaining)
	out.Balanced = math.Abs(remaining) < BalanceTolerance
	return out
}
