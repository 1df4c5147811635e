package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
)

func mustEngine(t *testing.T, d advice.Domain) *Engine {
	t.Helper()
	e, ok := NewForDomain(d)
	require.True(t, ok)
	return e
}

func ruleIDs(recs []advice.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.RuleID
	}
	return ids
}

func TestDeriveStage(t *testing.T) {
	tests := []struct {
		name string
		p    *profile.ClientProfile
		want advice.LifeStage
	}{
		{"nil profile", nil, advice.StageUnknown},
		{"nothing known", &profile.ClientProfile{}, advice.StageUnknown},
		{"retired", &profile.ClientProfile{YearsUntilRetirement: profile.IntPtr(0)}, advice.StageInRetirement},
		{"five years out", &profile.ClientProfile{YearsUntilRetirement: profile.IntPtr(5)}, advice.StagePreRetirement},
		{"ten years out", &profile.ClientProfile{YearsUntilRetirement: profile.IntPtr(10)}, advice.StagePreRetirement},
		{"twenty years out", &profile.ClientProfile{YearsUntilRetirement: profile.IntPtr(20)}, advice.StageMidCareer},
		{"thirty years out", &profile.ClientProfile{YearsUntilRetirement: profile.IntPtr(30)}, advice.StageEarlyCareer},
		{"years win over age", &profile.ClientProfile{CurrentAge: profile.IntPtr(70), YearsUntilRetirement: profile.IntPtr(30)}, advice.StageEarlyCareer},
		{"age and retirement age", &profile.ClientProfile{CurrentAge: profile.IntPtr(60), RetirementAge: profile.IntPtr(67)}, advice.StagePreRetirement},
		{"age only 68", &profile.ClientProfile{CurrentAge: profile.IntPtr(68)}, advice.StageInRetirement},
		{"age only 58", &profile.ClientProfile{CurrentAge: profile.IntPtr(58)}, advice.StagePreRetirement},
		{"age only 40", &profile.ClientProfile{CurrentAge: profile.IntPtr(40)}, advice.StageMidCareer},
		{"age only 25", &profile.ClientProfile{CurrentAge: profile.IntPtr(25)}, advice.StageEarlyCareer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStage(tt.p))
		})
	}
}

func TestGenerate_NeverEmpty(t *testing.T) {
	for _, d := range advice.Domains() {
		e := mustEngine(t, d)
		for _, intent := range append(advice.Intents(d), advice.IntentGeneral) {
			recs := e.Generate(intent, nil, nil, nil)
			require.NotEmpty(t, recs, "%s/%s", d, intent)
			for _, r := range recs {
				assert.Equal(t, intent, r.Category)
				assert.NotEmpty(t, r.Action)
				assert.NotEmpty(t, r.Rationale)
			}
		}
	}
}

func TestGenerate_DefaultRecommendations(t *testing.T) {
	e := mustEngine(t, advice.DomainDebt)

	recs := e.Generate(advice.IntentSpendingReduction, &calculator.Results{}, &profile.ClientProfile{}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, RuleMoreInformation, recs[0].RuleID)

	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.ComputeBudget(5000, nil, "")))
	recs = e.Generate(advice.IntentSpendingReduction, results, &profile.ClientProfile{MonthlyIncome: profile.FloatPtr(5000)}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, RuleStayTheCourse, recs[0].RuleID)
}

func TestGenerate_OrderByPriorityThenDeclaration(t *testing.T) {
	always := func(*Facts) bool { return true }
	build := func(action string) func(*Facts) (string, string) {
		return func(*Facts) (string, string) { return action, "because" }
	}
	intent := []advice.Intent{advice.IntentDebtPayoffStrategy}

	e := New(Table{
		Domain: advice.DomainDebt,
		Rules: []Rule{
			{ID: "a", Intents: intent, Priority: advice.PriorityMedium, When: always, Build: build("a")},
			{ID: "b", Intents: intent, Priority: advice.PriorityCritical, When: always, Build: build("b")},
			{ID: "c", Intents: intent, Priority: advice.PriorityMedium, When: always, Build: build("c")},
			{ID: "d", Intents: []advice.Intent{advice.IntentBudgetCreation}, Priority: advice.PriorityCritical, When: always, Build: build("d")},
			{ID: "e", Intents: intent, Priority: advice.PriorityMedium, When: func(*Facts) bool { return false }, Build: build("e")},
			{ID: "f", Intents: intent, Priority: advice.PriorityHigh, When: always, Build: build("f")},
		},
	})

	recs := e.Generate(advice.IntentDebtPayoffStrategy, nil, nil, nil)
	assert.Equal(t, []string{"b", "f", "a", "c"}, ruleIDs(recs))

	for i := 0; i < 20; i++ {
		assert.Equal(t, recs, e.Generate(advice.IntentDebtPayoffStrategy, nil, nil, nil))
	}
}

func TestGenerate_AvalancheScenario(t *testing.T) {
	p := &profile.ClientProfile{
		Debts: []profile.Debt{
			{Name: "Credit Card", Balance: 5000, InterestRate: 18.5, MinimumPayment: 150},
			{Name: "Car Loan", Balance: 15000, InterestRate: 5.5, MinimumPayment: 300},
		},
		MonthlyPayment: profile.FloatPtr(500),
	}
	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.CompareDebtStrategies(p.Debts, 500, calculator.DefaultAvalancheSpread)))

	recs := mustEngine(t, advice.DomainDebt).Generate(advice.IntentDebtPayoffStrategy, results, p, nil)

	assert.Equal(t, []string{"debt.strategy", "debt.payment_headroom"}, ruleIDs(recs))
	assert.Contains(t, recs[0].Action, "avalanche")
	assert.Contains(t, recs[0].Rationale, "13.0 points")
	assert.Contains(t, recs[1].Action, "$675.00")
}

func TestGenerate_PaymentBelowMinimumsIsCritical(t *testing.T) {
	p := &profile.ClientProfile{
		Debts: []profile.Debt{
			{Name: "Card A", Balance: 3000, InterestRate: 24, MinimumPayment: 90},
			{Name: "Card B", Balance: 2000, InterestRate: 22, MinimumPayment: 60},
		},
		MonthlyPayment: profile.FloatPtr(150),
	}
	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.CompareDebtStrategies(p.Debts, 150, calculator.DefaultAvalancheSpread)))

	recs := mustEngine(t, advice.DomainDebt).Generate(advice.IntentDebtPayoffStrategy, results, p, nil)

	require.NotEmpty(t, recs)
	assert.Equal(t, "debt.payment_below_minimums", recs[0].RuleID)
	assert.Equal(t, advice.PriorityCritical, recs[0].Priority)
	assert.Contains(t, ruleIDs(recs), "debt.high_interest")
}

func TestGenerate_ConsolidationThresholds(t *testing.T) {
	e := mustEngine(t, advice.DomainDebt)
	debts := []profile.Debt{
		{Name: "Card", Balance: 4000, InterestRate: 19, MinimumPayment: 100},
		{Name: "Store card", Balance: 1500, InterestRate: 16, MinimumPayment: 50},
		{Name: "Personal loan", Balance: 6000, InterestRate: 9, MinimumPayment: 200},
	}

	recs := e.Generate(advice.IntentDebtConsolidation, nil, &profile.ClientProfile{Debts: debts}, nil)
	assert.Contains(t, ruleIDs(recs), "debt.consolidate")

	recs = e.Generate(advice.IntentDebtConsolidation, nil, &profile.ClientProfile{Debts: debts[:2]}, nil)
	assert.NotContains(t, ruleIDs(recs), "debt.consolidate")
}

func TestGenerate_RetirementLowSuccess(t *testing.T) {
	results := &calculator.Results{
		RetirementReadiness: &calculator.RetirementReadiness{
			YearsToRetirement:    20,
			TotalIncome:          30000,
			TargetIncome:         100000,
			IncomeGap:            70000,
			RequiredContribution: 45000,
			ContributionGap:      35000,
			AnnualContribution:   10000,
			ContributionAssumed:  true,
		},
		MonteCarloSuccess: &calculator.MonteCarloSuccess{
			SuccessProbability: 0.312,
			Trials:             1000,
			AnnualWithdrawal:   100000,
			Years:              30,
		},
	}
	p := &profile.ClientProfile{
		CurrentAge:             profile.IntPtr(45),
		YearsUntilRetirement:   profile.IntPtr(20),
		TargetRetirementIncome: profile.FloatPtr(100000),
	}

	recs := mustEngine(t, advice.DomainRetirement).Generate(advice.IntentRetirementReadiness, results, p, nil)

	assert.Equal(t, []string{"montecarlo.critical", "readiness.income_gap"}, ruleIDs(recs))
	assert.Contains(t, recs[0].Rationale, "31.2%")
	assert.Contains(t, recs[1].Action, "$35,000.00")
	assert.Contains(t, recs[1].Rationale, "assumed")
}

func TestGenerate_SocialSecurityEarlyClaim(t *testing.T) {
	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.ComputeSocialSecurity(24000, 62, 67)))

	p := &profile.ClientProfile{HealthStatus: "Poor", MaritalStatus: "married"}
	recs := mustEngine(t, advice.DomainRetirement).Generate(advice.IntentSocialSecurity, results, p, nil)

	assert.Equal(t, []string{"ss.early_claim", "ss.health", "ss.spousal"}, ruleIDs(recs))
	assert.Contains(t, recs[0].Rationale, "30.0%")
	assert.Contains(t, recs[1].Rationale, "80.4")
}

func TestGenerate_StudentLoanIDR(t *testing.T) {
	schedule := calculator.Amortize(30000, 5, 120)
	schedule.RepaymentPlan = "standard"
	schedule.WithIDR(40000, 1)
	results := &calculator.Results{}
	require.NoError(t, results.Set(schedule))

	p := &profile.ClientProfile{
		Income:       profile.FloatPtr(40000),
		StudentLoan:  &profile.StudentLoan{Balance: 30000, InterestRate: 5},
		EmployerType: "Non-Profit",
	}
	recs := mustEngine(t, advice.DomainDebt).Generate(advice.IntentStudentLoanManagement, results, p, nil)

	assert.Equal(t, []string{"student.idr", "student.pslf", "student.ask_employer"}, ruleIDs(recs))
	assert.Contains(t, recs[0].Action, "SAVE")
}

func TestGenerate_BudgetDeficit(t *testing.T) {
	expenses := &profile.Expenses{
		Fixed:    map[string]float64{"rent": 2500, "utilities": 400},
		Variable: map[string]float64{"dining_out": 900, "subscriptions": 120},
	}
	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.ComputeBudget(3500, expenses, "")))
	p := &profile.ClientProfile{MonthlyIncome: profile.FloatPtr(3500), Expenses: expenses}

	e := mustEngine(t, advice.DomainDebt)

	budget := e.Generate(advice.IntentBudgetCreation, results, p, nil)
	assert.Equal(t, "budget.deficit", budget[0].RuleID)
	assert.Contains(t, budget[0].Action, "$420.00")
	assert.Contains(t, ruleIDs(budget), "budget.needs_high")

	spending := e.Generate(advice.IntentSpendingReduction, results, p, nil)
	assert.Equal(t, []string{"budget.deficit", "spending.subscriptions", "spending.dining", "spending.utilities"}, ruleIDs(spending))
}

func TestGenerate_GoalFundingGap(t *testing.T) {
	goals := []profile.Goal{
		{Name: "Emergency fund", TargetAmount: 10000, CurrentAmount: 4000, MonthlyContribution: 500, Priority: 1},
		{Name: "Vacation", TargetAmount: 3000, CurrentAmount: 0},
	}
	results := &calculator.Results{}
	require.NoError(t, results.Set(calculator.ComputeGoalTimeline(goals)))

	recs := mustEngine(t, advice.DomainGoal).Generate(advice.IntentGoalManagement, results, &profile.ClientProfile{Goals: goals},
		map[string]string{"goal_action": "prioritize"})

	assert.Equal(t, []string{"goal.funding_gap", "goal.focus", "goal.prioritize"}, ruleIDs(recs))
	assert.Contains(t, recs[0].Action, "Vacation")
	assert.True(t, strings.HasPrefix(recs[1].Action, "Focus on Emergency fund"))
	assert.Contains(t, recs[1].Rationale, "12 months")
}

func TestTableFor_RuleIntentsBelongToDomain(t *testing.T) {
	for _, d := range advice.Domains() {
		table, ok := TableFor(d)
		require.True(t, ok)

		seen := make(map[string]bool)
		for _, r := range table.Rules {
			assert.False(t, seen[r.ID], "duplicate rule id %s", r.ID)
			seen[r.ID] = true
			require.NotEmpty(t, r.Intents, r.ID)
			for _, i := range r.Intents {
				assert.True(t, i.Belongs(d), "%s lists %s outside %s", r.ID, i, d)
			}
		}
	}

	_, ok := TableFor(advice.Domain("crypto"))
	assert.False(t, ok)
}
