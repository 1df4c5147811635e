package classifier

import "finadvisor/internal/domain/advice"

// IntentKeywords binds an intent to its ordered triggers
type IntentKeywords struct {
	Intent   advice.Intent
	Triggers []string
}

// Table is the immutable keyword configuration for one domain. Entries are
// listed in tie-break priority order.
type Table struct {
	Domain  advice.Domain
	Entries []IntentKeywords
}

// TableFor returns the built-in table for a domain
func TableFor(d advice.Domain) (Table, bool) {
	switch d {
	case advice.DomainRetirement:
		return RetirementTable(), true
	case advice.DomainDebt:
		return DebtTable(), true
	case advice.DomainGoal:
		return GoalTable(), true
	}
	return Table{}, false
}

// RetirementTable covers the ten retirement-planning intents
func RetirementTable() Table {
	return Table{
		Domain: advice.DomainRetirement,
		Entries: []IntentKeywords{
			{advice.IntentRetirementReadiness, []string{
				"ready to retire", "retirement readiness", "on track", "on track for retirement",
				"enough to retire", "can i retire", "retirement goal", "retire early", "am i ready",
			}},
			{advice.IntentSavingsStrategy, []string{
				"save for retirement", "retirement savings", "how much to save", "how much should i save",
				"contribution", "contribute", "401k", "401(k)", "403b", "403(b)", "ira", "roth", "catch-up",
				"maximize savings", "savings rate", "retirement account",
			}},
			{advice.IntentWithdrawalPlanning, []string{
				"withdrawal", "withdraw", "withdraw from retirement", "4% rule", "safe withdrawal",
				"spending in retirement", "drawdown strategy", "rmd", "required minimum distribution",
				"run out of money", "make my money last",
			}},
			{advice.IntentSocialSecurity, []string{
				"social security", "ssa", "benefits", "claiming strategy", "when to claim",
				"full retirement age", "delayed credits", "spousal benefits", "survivor benefits",
			}},
			{advice.IntentRetirementIncome, []string{
				"retirement income", "income in retirement", "pension", "annuity", "income sources",
				"retirement paycheck", "guaranteed income",
			}},
			{advice.IntentInvestmentAllocation, []string{
				"asset allocation", "portfolio allocation", "investment mix", "stocks vs bonds",
				"stocks and bonds", "equity allocation", "bond allocation", "diversification", "diversify",
				"rebalance", "target date fund", "portfolio",
			}},
			{advice.IntentTaxOptimization, []string{
				"tax", "taxes", "taxable", "tax-free", "tax bracket", "tax efficient", "roth conversion",
				"tax-deferred", "capital gains", "tax planning",
			}},
			{advice.IntentHealthcareCosts, []string{
				"healthcare", "health care", "medicare", "medicaid", "health insurance", "long-term care",
				"hsa", "health savings", "medical costs",
			}},
			{advice.IntentEstatePlanning, []string{
				"estate", "inheritance", "beneficiary", "beneficiaries", "a will", "my will", "living trust",
				"trust fund", "estate tax", "gift tax", "legacy", "passing on wealth", "heirs",
			}},
			{advice.IntentLifestyleAdjustments, []string{
				"lifestyle", "retirement lifestyle", "spending habits", "retirement activities",
				"purpose in retirement", "retirement transition", "downsize", "relocate",
			}},
		},
	}
}

// DebtTable covers the five debt-management intents
func DebtTable() Table {
	return Table{
		Domain: advice.DomainDebt,
		Entries: []IntentKeywords{
			{advice.IntentDebtPayoffStrategy, []string{
				"pay off debt", "pay off my debt", "debt payoff", "payoff strategy", "debt strategy",
				"avalanche", "snowball", "which debt", "prioritize debt", "debt free", "debt-free",
				"eliminate debt", "get out of debt", "pay off",
			}},
			{advice.IntentDebtConsolidation, []string{
				"consolidate debt", "consolidate", "debt consolidation", "consolidation loan",
				"combine debt", "balance transfer", "debt refinance", "single payment",
			}},
			{advice.IntentStudentLoanManagement, []string{
				"student loan", "student loans", "student debt", "federal loan", "private loan",
				"income-driven", "idr", "save plan", "paye", "ibr", "repaye", "pslf", "public service",
				"loan forgiveness", "refinance student", "employer student loan", "student loan benefit",
			}},
			{advice.IntentBudgetCreation, []string{
				"create budget", "create a budget", "make budget", "make a budget", "budget", "budgeting",
				"50/30/20", "zero-based", "zero based", "envelope system", "budget framework",
				"monthly budget", "budget plan",
			}},
			{advice.IntentSpendingReduction, []string{
				"reduce spending", "cut expenses", "cut back", "save money", "spending less", "spend less",
				"reduce costs", "lower expenses", "spending reduction", "spending habits", "overspending",
				"subscriptions",
			}},
		},
	}
}

// GoalTable covers the three goal-planning intents
func GoalTable() Table {
	return Table{
		Domain: advice.DomainGoal,
		Entries: []IntentKeywords{
			{advice.IntentRetirementTracking, []string{
				"on track", "track for retirement", "retirement track", "contributing enough",
				"401k", "401(k)", "403b", "403(b)", "retirement account", "retirement savings",
				"retirement goal", "retirement readiness", "retirement plan", "retirement projection",
			}},
			{advice.IntentSavingsOptimization, []string{
				"save more", "save for retirement", "saving more", "how much", "should i put",
				"contribute", "contribution", "hsa", "health savings", "health savings account",
				"maximize", "optimize savings", "increase savings", "savings rate", "contribution rate",
				"contribution limit",
			}},
			{advice.IntentGoalManagement, []string{
				"set a goal", "set goal", "financial goal", "create goal", "which goal", "focus on",
				"prioritize", "goal priority", "reach my goal", "achieve goal", "goal faster",
				"reach goal faster", "multiple goals", "goal planning", "goal setting", "my goals",
			}},
		},
	}
}
