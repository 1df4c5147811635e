package advice

import (
	"strings"

	"finadvisor/pkg/errors"
)

// Domain identifies one pipeline configuration
type Domain string

const (
	DomainRetirement Domain = "retirement"
	DomainDebt       Domain = "debt"
	DomainGoal       Domain = "goal"
)

// Domains lists every domain in routing tie-break order
func Domains() []Domain {
	return []Domain{DomainRetirement, DomainDebt, DomainGoal}
}

// Valid checks if domain is known
func (d Domain) Valid() bool {
	switch d {
	case DomainRetirement, DomainDebt, DomainGoal:
		return true
	}
	return false
}

// String returns string representation
func (d Domain) String() string {
	return string(d)
}

// ParseDomain accepts the canonical names and a few aliases
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retirement", "retirement_planning":
		return DomainRetirement, nil
	case "debt", "debt_management":
		return DomainDebt, nil
	case "goal", "goals", "goal_planning":
		return DomainGoal, nil
	}
	return "", errors.NewValidationError("domain", "unknown domain", s)
}

// Intent is the classified purpose of a question
type Intent string

// Shared fallback
const IntentGeneral Intent = "GENERAL"

// Retirement intents
const (
	IntentRetirementReadiness  Intent = "RETIREMENT_READINESS"
	IntentSavingsStrategy      Intent = "SAVINGS_STRATEGY"
	IntentWithdrawalPlanning   Intent = "WITHDRAWAL_PLANNING"
	IntentSocialSecurity       Intent = "SOCIAL_SECURITY"
	IntentRetirementIncome     Intent = "RETIREMENT_INCOME"
	IntentInvestmentAllocation Intent = "INVESTMENT_ALLOCATION"
	IntentTaxOptimization      Intent = "TAX_OPTIMIZATION"
	IntentHealthcareCosts      Intent = "HEALTHCARE_COSTS"
	IntentEstatePlanning       Intent = "ESTATE_PLANNING"
	IntentLifestyleAdjustments Intent = "LIFESTYLE_ADJUSTMENTS"
)

// Debt intents
const (
	IntentDebtPayoffStrategy    Intent = "DEBT_PAYOFF_STRATEGY"
	IntentDebtConsolidation     Intent = "DEBT_CONSOLIDATION"
	IntentStudentLoanManagement Intent = "STUDENT_LOAN_MANAGEMENT"
	IntentBudgetCreation        Intent = "BUDGET_CREATION"
	IntentSpendingReduction     Intent = "SPENDING_REDUCTION"
)

// Goal-planning intents
const (
	IntentRetirementTracking  Intent = "RETIREMENT_TRACKING"
	IntentSavingsOptimization Intent = "SAVINGS_OPTIMIZATION"
	IntentGoalManagement      Intent = "GOAL_MANAGEMENT"
)

// Intents returns the domain's intents in tie-break priority order, GENERAL excluded.
// Earlier entries are the more actionable defaults.
func Intents(d Domain) []Intent {
	switch d {
	case DomainRetirement:
		return []Intent{
			IntentRetirementReadiness,
			IntentSavingsStrategy,
			IntentWithdrawalPlanning,
			IntentSocialSecurity,
			IntentRetirementIncome,
			IntentInvestmentAllocation,
			IntentTaxOptimization,
			IntentHealthcareCosts,
			IntentEstatePlanning,
			IntentLifestyleAdjustments,
		}
	case DomainDebt:
		return []Intent{
			IntentDebtPayoffStrategy,
			IntentDebtConsolidation,
			IntentStudentLoanManagement,
			IntentBudgetCreation,
			IntentSpendingReduction,
		}
	case DomainGoal:
		return []Intent{
			IntentRetirementTracking,
			IntentSavingsOptimization,
			IntentGoalManagement,
		}
	}
	return nil
}

// Belongs reports whether the intent is GENERAL or one of the domain's intents
func (i Intent) Belongs(d Domain) bool {
	if i == IntentGeneral {
		return d.Valid()
	}
	for _, candidate := range Intents(d) {
		if candidate == i {
			return true
		}
	}
	return false
}

// String returns string representation
func (i Intent) String() string {
	return string(i)
}

// Slug is the lower-case form used for template ids and metric labels
func (i Intent) Slug() string {
	return strings.ToLower(string(i))
}

// Title renders "RETIREMENT_READINESS" as "Retirement readiness"
func (i Intent) Title() string {
	words := strings.Split(i.Slug(), "_")
	if len(words) == 0 || words[0] == "" {
		return ""
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}
