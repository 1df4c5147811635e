package agent

import (
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
)

func required(k calculator.Kind) calculator.Step { return calculator.Step{Kind: k, Required: true} }

func optional(k calculator.Kind) calculator.Step { return calculator.Step{Kind: k} }

// plans maps each intent to the calculators it runs, in order. GENERAL and
// intents without an entry run nothing.
var plans = map[advice.Intent][]calculator.Step{
	advice.IntentRetirementReadiness: {
		required(calculator.KindRetirementReadiness),
		required(calculator.KindMonteCarloSuccess),
		optional(calculator.KindPortfolioValue),
		optional(calculator.KindAssetAllocation),
	},
	advice.IntentSavingsStrategy: {
		required(calculator.KindRetirementReadiness),
		required(calculator.KindContributionLimits),
		optional(calculator.KindMonteCarloSuccess),
	},
	advice.IntentWithdrawalPlanning: {
		required(calculator.KindSafeWithdrawal),
		optional(calculator.KindMonteCarloSuccess),
		optional(calculator.KindRMD),
		optional(calculator.KindPortfolioValue),
	},
	advice.IntentSocialSecurity: {
		required(calculator.KindSocialSecurityBenefit),
	},
	advice.IntentRetirementIncome: {
		required(calculator.KindRetirementReadiness),
		optional(calculator.KindSafeWithdrawal),
		optional(calculator.KindSocialSecurityBenefit),
	},
	advice.IntentInvestmentAllocation: {
		required(calculator.KindPortfolioValue),
		required(calculator.KindAssetAllocation),
	},
	advice.IntentTaxOptimization: {
		required(calculator.KindContributionLimits),
		optional(calculator.KindRMD),
	},
	advice.IntentHealthcareCosts: {
		required(calculator.KindContributionLimits),
	},
	advice.IntentEstatePlanning: {
		optional(calculator.KindPortfolioValue),
	},
	advice.IntentLifestyleAdjustments: {
		optional(calculator.KindSafeWithdrawal),
		optional(calculator.KindRetirementReadiness),
	},

	advice.IntentDebtPayoffStrategy: {
		required(calculator.KindDebtStrategyComparison),
	},
	advice.IntentDebtConsolidation: {
		required(calculator.KindDebtStrategyComparison),
	},
	advice.IntentStudentLoanManagement: {
		required(calculator.KindAmortizationSchedule),
	},
	advice.IntentBudgetCreation: {
		required(calculator.KindBudgetAllocation),
	},
	advice.IntentSpendingReduction: {
		required(calculator.KindBudgetAllocation),
	},

	advice.IntentRetirementTracking: {
		required(calculator.KindRetirementReadiness),
		optional(calculator.KindMonteCarloSuccess),
		optional(calculator.KindContributionLimits),
	},
	advice.IntentSavingsOptimization: {
		required(calculator.KindContributionLimits),
		optional(calculator.KindRetirementReadiness),
	},
	advice.IntentGoalManagement: {
		optional(calculator.KindGoalTimeline),
	},
}

// Plan returns a copy of the calculators run for intent
func Plan(intent advice.Intent) []calculator.Step {
	steps := plans[intent]
	out := make([]calculator.Step, len(steps))
	copy(out, steps)
	return out
}

// Kinds lists the calculator kinds in a plan, for audit rows
func Kinds(steps []calculator.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, string(s.Kind))
	}
	return out
}
