package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/domain/profile"
)

func TestAmortize(t *testing.T) {
	res := Amortize(30000, 6, 120)

	require.True(t, res.Applicable())
	assert.InDelta(t, 333.06, res.MonthlyPayment, 0.01)
	assert.Len(t, res.Years, 10)
	assert.Equal(t, 0.0, res.Years[len(res.Years)-1].EndingBalance)
	assert.InDelta(t, res.Principal+res.TotalInterest, res.TotalPaid, 0.01)
	assert.InDelta(t, 9967, res.TotalInterest, 5)
}

func TestAmortize_ZeroRateAndDefaults(t *testing.T) {
	res := Amortize(12000, 0, 0)

	require.True(t, res.Applicable())
	assert.Equal(t, DefaultLoanTermYears*12, res.TermMonths)
	assert.Equal(t, 100.0, res.MonthlyPayment)
	assert.Equal(t, 0.0, res.TotalInterest)
	assert.Equal(t, 12000.0, res.TotalPaid)

	assert.False(t, Amortize(0, 5, 120).Applicable())
	assert.False(t, Amortize(-100, 5, 120).Applicable())
}

func TestAmortize_TermBounds(t *testing.T) {
	atLimit := Amortize(30000, 5, MaxLoanTermMonths)
	require.True(t, atLimit.Applicable())
	assert.Len(t, atLimit.Years, MaxLoanTermMonths/12)
	assert.Greater(t, atLimit.MonthlyPayment, 0.0)

	tooLong := Amortize(30000, 5, MaxLoanTermMonths+1)
	assert.False(t, tooLong.Applicable())
	assert.Empty(t, tooLong.Years)
	assert.Zero(t, tooLong.MonthlyPayment)

	huge := AmortizeYears(30000, 5, 2_000_000).WithIDR(40000, 1)
	assert.False(t, huge.Applicable())
	assert.Contains(t, huge.Note, "2000000-year term")
	assert.Empty(t, huge.Years)
	assert.Empty(t, huge.IDR)

	standard := AmortizeYears(30000, 6, 10)
	require.True(t, standard.Applicable())
	assert.Equal(t, 120, standard.TermMonths)
	assert.InDelta(t, 333.06, standard.MonthlyPayment, 0.01)
}

func TestAmortize_NonFinitePayment(t *testing.T) {
	assert.False(t, Amortize(30000, math.NaN(), 120).Applicable())

	payment := MonthlyPayment(30000, 1e6, MaxLoanTermMonths)
	assert.False(t, math.IsNaN(payment))
	assert.InDelta(t, 30000*1e6/1200, payment, 1)
}

func TestIncomeDrivenPayment(t *testing.T) {
	tests := []struct {
		plan     string
		income   float64
		want     float64
		wantDisc float64
	}{
		{"save", 40000, 50.96, 6115},
		{"paye", 40000, 145.08, 17410},
		{"ibr", 40000, 145.08, 17410},
		{"icr", 40000, 415.67, 24940},
		{"save", 20000, 0, 0},
		{"icr", 20000, 82.33, 4940},
	}

	plans := make(map[string]IDRPlan)
	for _, p := range IDRPlans() {
		plans[p.Name] = p
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			est := IncomeDrivenPayment(plans[tt.plan], tt.income, 1)
			assert.Equal(t, tt.want, est.MonthlyPayment)
			assert.Equal(t, tt.wantDisc, est.DiscretionaryIncome)
			assert.GreaterOrEqual(t, est.MonthlyPayment, 0.0)
		})
	}
}

func TestPovertyGuideline(t *testing.T) {
	assert.Equal(t, 15060.0, PovertyGuideline(0))
	assert.Equal(t, 15060.0, PovertyGuideline(1))
	assert.Equal(t, 25820.0, PovertyGuideline(3))
}

func TestAmortizationSchedule_WithIDR(t *testing.T) {
	res := Amortize(30000, 6, 120).WithIDR(40000, 1)

	require.Len(t, res.IDR, len(IDRPlans()))
	assert.Equal(t, "save", res.LowestIDRPlan)
	lowest, ok := res.LowestIDR()
	require.True(t, ok)
	assert.InDelta(t, 333.06-50.96, lowest.SavingsVsStandard, 0.01)
	assert.True(t, res.IsFederal())
}

func TestComputeBudget_Rule503020(t *testing.T) {
	res := ComputeBudget(5000, nil, "")

	require.True(t, res.Applicable())
	assert.Equal(t, Framework503020, res.Framework)
	assert.Equal(t, 2500.0, res.NeedsTarget)
	assert.Equal(t, 1500.0, res.WantsTarget)
	assert.Equal(t, 1000.0, res.SavingsTarget)
	assert.InDelta(t, 100, res.NeedsPercent+res.WantsPercent+res.SavingsPercent, PercentEpsilon)
	assert.False(t, res.HasExpenses)
}

func TestComputeBudget_WithExpenses(t *testing.T) {
	expenses := &profile.Expenses{
		Fixed:    map[string]float64{"rent": 1500, "utilities": 200},
		Variable: map[string]float64{"dining": 400, "entertainment": 300},
	}

	res := ComputeBudget(5000, expenses, "")

	require.True(t, res.Applicable())
	assert.True(t, res.HasExpenses)
	assert.Equal(t, 1700.0, res.ActualNeeds)
	assert.Equal(t, 700.0, res.ActualWants)
	assert.Equal(t, 2400.0, res.TotalAllocated)
	assert.Equal(t, 2600.0, res.Remaining)
	assert.Equal(t, 34.0, res.ActualNeedsPercent)
	assert.Equal(t, 52.0, res.ActualSavingsPercent)
	assert.False(t, res.Balanced)

	require.Len(t, res.Lines, 4)
	assert.Equal(t, "rent", res.Lines[0].Category)
	assert.Equal(t, "dining", res.Lines[2].Category)

	var total float64
	for _, l := range res.Lines {
		total += l.Percent
	}
	assert.InDelta(t, 100.0, total, PercentEpsilon)
}

func TestComputeBudget_ZeroBasedBalanced(t *testing.T) {
	expenses := &profile.Expenses{
		Fixed:    map[string]float64{"rent": 2000},
		Variable: map[string]float64{"savings": 600.50, "other": 399.50},
	}

	res := ComputeBudget(3000, expenses, FrameworkZeroBased)
	assert.True(t, res.Balanced)
	assert.Equal(t, 0.0, res.Remaining)

	over := ComputeBudget(2500, expenses, FrameworkZeroBased)
	assert.False(t, over.Balanced)
	assert.Equal(t, -500.0, over.Remaining)
}

func TestComputeBudget_NotApplicable(t *testing.T) {
	assert.False(t, ComputeBudget(0, nil, "").Applicable())
	assert.False(t, ComputeBudget(-100, nil, "").Applicable())
	assert.False(t, ComputeBudget(1000, &profile.Expenses{Fixed: map[string]float64{"rent": -5, "food": 100}}, "").Applicable())
}

func TestComputeGoalTimeline(t *testing.T) {
	goals := []profile.Goal{
		{Name: "Vacation", TargetAmount: 3000, CurrentAmount: 0, MonthlyContribution: 0, Priority: 3},
		{Name: "Emergency fund", TargetAmount: 10000, CurrentAmount: 4000, MonthlyContribution: 500, Priority: 1},
		{Name: "Car", TargetAmount: 8000, CurrentAmount: 8000},
	}

	res := ComputeGoalTimeline(goals)
	require.True(t, res.Applicable())
	require.Len(t, res.Goals, 3)

	assert.Equal(t, "Emergency fund", res.Goals[0].Name)
	assert.Equal(t, 12, res.Goals[0].MonthsToGoal)
	assert.Equal(t, 40.0, res.Goals[0].PercentComplete)
	assert.True(t, res.Goals[0].Reachable)

	assert.Equal(t, "Vacation", res.Goals[1].Name)
	assert.False(t, res.Goals[1].Reachable)

	assert.Equal(t, "Car", res.Goals[2].Name)
	assert.Equal(t, 100.0, res.Goals[2].PercentComplete)

	assert.Equal(t, 1, res.UnfundedGoals)
	assert.Equal(t, 9000.0, res.TotalRemaining)
	assert.Equal(t, 500.0, res.TotalMonthlyContribution)
}
