package rules

import (
	"fmt"
	"strings"

	"finadvisor/internal/calculator"
	"finadvisor/internal/classifier"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/pkg/templates"
)

// Debt thresholds; rates are in percent
const (
	HighInterestRate           = 20.0
	ConsolidationMinDebts      = 3
	ConsolidationTriggerRate   = 15.0
	ConsolidationAverageRate   = 12.0
	PaymentHeadroomFactor      = 1.2
	PaymentTargetFactor        = 1.5
	IDRIncomeThreshold         = 50000
	EmployerBenefitTaxFreeCap  = 5250
	RefinanceRateThreshold     = 6.0
	TightBudgetShare           = 0.10
	SubscriptionLimit          = 50
	DiningShareOfIncome        = 0.10
	UtilitiesShareOfIncome     = 0.05
	VariableSpendShareOfIncome = 0.30
)

var (
	payoffIntents   = []advice.Intent{advice.IntentDebtPayoffStrategy, advice.IntentDebtConsolidation}
	studentIntents  = []advice.Intent{advice.IntentStudentLoanManagement}
	budgetIntents   = []advice.Intent{advice.IntentBudgetCreation}
	spendingIntents = []advice.Intent{advice.IntentSpendingReduction}

	publicSectors = map[string]bool{
		"government":     true,
		"nonprofit":      true,
		"non_profit":     true,
		"public_service": true,
		"education":      true,
	}
)

// DebtTable holds the debt-management rules
func DebtTable() Table {
	return Table{
		Domain: advice.DomainDebt,
		Rules: []Rule{
			{
				ID:       "debt.payment_below_minimums",
				Intents:  payoffIntents,
				Priority: advice.PriorityCritical,
				When: func(f *Facts) bool {
					p := f.Profile
					return len(p.Debts) > 0 && p.MonthlyPayment != nil && *p.MonthlyPayment <= p.TotalMinimumPayments()
				},
				Build: func(f *Facts) (string, string) {
					minimums := f.Profile.TotalMinimumPayments()
					return fmt.Sprintf("Raise your monthly debt payment above the %s in minimums", templates.Money(minimums)),
						fmt.Sprintf("Paying %s a month covers only the minimums, so balances shrink slowly and interest keeps compounding.",
							templates.Money(*f.Profile.MonthlyPayment))
				},
			},
			{
				ID:       "debt.strategy",
				Intents:  payoffIntents,
				Priority: advice.PriorityHigh,
				When:     func(f *Facts) bool { return f.debts() != nil },
				Build: func(f *Facts) (string, string) {
					d := f.debts()
					if d.Recommended == calculator.StrategyAvalanche {
						return "Use the avalanche method: put every extra dollar toward the highest-rate debt first",
							fmt.Sprintf("Rates differ by %.1f points, above the %.1f-point threshold. Avalanche is debt-free in %d months with %s of interest and saves %s over snowball.",
								d.RateSpread, d.SpreadThreshold, d.Avalanche.Months, templates.Money(d.Avalanche.TotalInterest),
								templates.Money(d.InterestSavings))
					}
					return "Use the snowball method: clear the smallest balance first for quick wins",
						fmt.Sprintf("Rates differ by only %.1f points, within the %.1f-point threshold. Snowball is debt-free in %d months and costs %s more interest than avalanche.",
							d.RateSpread, d.SpreadThreshold, d.Snowball.Months, templates.Money(d.InterestSavings))
				},
			},
			{
				ID:       "debt.payment_headroom",
				Intents:  payoffIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					p := f.Profile
					if len(p.Debts) == 0 || p.MonthlyPayment == nil {
						return false
					}
					minimums := p.TotalMinimumPayments()
					return *p.MonthlyPayment > minimums && *p.MonthlyPayment < minimums*PaymentHeadroomFactor
				},
				Build: func(f *Facts) (string, string) {
					minimums := f.Profile.TotalMinimumPayments()
					return fmt.Sprintf("Work toward paying %s a month", templates.Money(minimums*PaymentTargetFactor)),
						fmt.Sprintf("Your %s payment leaves only %s above the minimums for extra principal.",
							templates.Money(*f.Profile.MonthlyPayment), templates.Money(*f.Profile.MonthlyPayment-minimums))
				},
			},
			{
				ID:       "debt.high_interest",
				Intents:  payoffIntents,
				Priority: advice.PriorityHigh,
				When:     func(f *Facts) bool { return len(debtsAbove(f.Profile.Debts, HighInterestRate)) > 0 },
				Build: func(f *Facts) (string, string) {
					names := debtsAbove(f.Profile.Debts, HighInterestRate)
					return fmt.Sprintf("Attack %s first", templates.HumanList(names)),
						fmt.Sprintf("Rates above %.0f%% cost more than almost any investment earns; a 0%% balance transfer may help if you qualify.", HighInterestRate)
				},
			},
			{
				ID:       "debt.consolidate",
				Intents:  payoffIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					debts := f.Profile.Debts
					return len(debts) >= ConsolidationMinDebts &&
						len(debtsAbove(debts, ConsolidationTriggerRate)) > 0 &&
						averageRate(debts) > ConsolidationAverageRate
				},
				Build: func(f *Facts) (string, string) {
					debts := f.Profile.Debts
					return "Consider consolidating into a single lower-rate loan",
						fmt.Sprintf("You carry %d debts averaging %.1f%%; one payment below that rate cuts interest and simplifies payoff.",
							len(debts), averageRate(debts))
				},
			},
			{
				ID:       "consolidation.compare",
				Intents:  []advice.Intent{advice.IntentDebtConsolidation},
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.debts() != nil },
				Build: func(f *Facts) (string, string) {
					d := f.debts()
					return fmt.Sprintf("Only accept a consolidation offer below %.2f%% including fees", d.AverageRate),
						fmt.Sprintf("That is the balance-weighted rate on your %s of debt today.", templates.Money(d.TotalBalance))
				},
			},
			{
				ID:       "student.idr",
				Intents:  studentIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					l := f.loan()
					if l == nil || !l.IsFederal() || l.RepaymentPlan != "standard" {
						return false
					}
					income, ok := f.Profile.AnnualIncome()
					return ok && income < IDRIncomeThreshold
				},
				Build: func(f *Facts) (string, string) {
					l := f.loan()
					if best, ok := l.LowestIDR(); ok {
						return fmt.Sprintf("Apply for the %s income-driven repayment plan", strings.ToUpper(best.Plan)),
							fmt.Sprintf("%s would cost %s a month instead of %s on the standard plan, saving %s a month.",
								strings.ToUpper(best.Plan), templates.Money(best.MonthlyPayment), templates.Money(l.MonthlyPayment),
								templates.Money(best.SavingsVsStandard))
					}
					return "Apply for an income-driven repayment plan such as SAVE, PAYE or IBR",
						"At your income an IDR plan ties the payment to discretionary income instead of the balance."
				},
			},
			{
				ID:       "student.pslf",
				Intents:  studentIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					l := f.loan()
					if l == nil || !l.IsFederal() {
						return false
					}
					return publicSectors[sector(f.Profile)] || f.Entities[classifier.EntityPlan] == "pslf"
				},
				Build: func(*Facts) (string, string) {
					return "Enroll in Public Service Loan Forgiveness and certify your employment every year",
						"PSLF forgives the remaining federal balance after 120 qualifying payments made on an IDR or standard 10-year plan."
				},
			},
			{
				ID:       "student.employer_benefit",
				Intents:  studentIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					return f.Profile.StudentLoan != nil && f.Profile.StudentLoan.EmployerBenefit > 0
				},
				Build: func(f *Facts) (string, string) {
					benefit := f.Profile.StudentLoan.EmployerBenefit
					return fmt.Sprintf("Claim the full %s employer student loan benefit", templates.Money(benefit)),
						fmt.Sprintf("Employer payments up to %s a year are tax-free; point them at your highest-rate loan.",
							templates.Money(EmployerBenefitTaxFreeCap))
				},
			},
			{
				ID:       "student.ask_employer",
				Intents:  studentIntents,
				Priority: advice.PriorityLow,
				When: func(f *Facts) bool {
					return f.Profile.StudentLoan == nil || f.Profile.StudentLoan.EmployerBenefit <= 0
				},
				Build: func(*Facts) (string, string) {
					return "Ask HR whether your employer offers student loan assistance",
						fmt.Sprintf("Many employers now help with repayment, and up to %s a year is tax-free.", templates.Money(EmployerBenefitTaxFreeCap))
				},
			},
			{
				ID:       "student.refinance",
				Intents:  studentIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					l := f.loan()
					return l != nil && l.AnnualRate > RefinanceRateThreshold
				},
				Build: func(f *Facts) (string, string) {
					l := f.loan()
					if l.IsFederal() {
						return "Consider refinancing only with caution",
							fmt.Sprintf("A private loan could beat your %.2f%% rate, but you would give up IDR, PSLF and deferment.", l.AnnualRate)
					}
					return "Shop for a lower refinance rate",
						fmt.Sprintf("At %.2f%% on %s, each point lower saves real money over a %d-month term.",
							l.AnnualRate, templates.Money(l.Principal), l.TermMonths)
				},
			},
			{
				ID:       "budget.deficit",
				Intents:  []advice.Intent{advice.IntentBudgetCreation, advice.IntentSpendingReduction},
				Priority: advice.PriorityCritical,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && b.HasExpenses && b.Remaining < 0
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return fmt.Sprintf("Cut %s a month: expenses exceed income", templates.Money(-b.Remaining)),
						fmt.Sprintf("You spend %s against %s of monthly income.", templates.Money(b.TotalAllocated), templates.Money(b.MonthlyIncome))
				},
			},
			{
				ID:       "budget.tight",
				Intents:  budgetIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && b.HasExpenses && b.Remaining >= 0 && b.Remaining < b.MonthlyIncome*TightBudgetShare
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return "Build a buffer: your budget is very tight",
						fmt.Sprintf("Only %s of %s is left each month, under 10%% of income.", templates.Money(b.Remaining), templates.Money(b.MonthlyIncome))
				},
			},
			{
				ID:       "budget.needs_high",
				Intents:  budgetIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && b.Framework == calculator.Framework503020 && b.HasExpenses && b.ActualNeeds > b.NeedsTarget
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return fmt.Sprintf("Bring needs down toward %s a month", templates.Money(b.NeedsTarget)),
						fmt.Sprintf("Needs take %s of income against a 50%% target.", templates.Percent(b.ActualNeedsPercent))
				},
			},
			{
				ID:       "budget.savings_low",
				Intents:  budgetIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && b.Framework == calculator.Framework503020 && b.HasExpenses && b.ActualSavingsPercent < calculator.SavingsShare
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return fmt.Sprintf("Direct %s a month to savings and debt payoff", templates.Money(b.SavingsTarget)),
						fmt.Sprintf("Only %s of income is left for savings and debt against a 20%% target.", templates.Percent(b.ActualSavingsPercent))
				},
			},
			{
				ID:       "budget.zero_based",
				Intents:  budgetIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && b.Framework == calculator.FrameworkZeroBased && b.HasExpenses && !b.Balanced && b.Remaining > 0
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return fmt.Sprintf("Assign the remaining %s to a goal so every dollar has a job", templates.Money(b.Remaining)),
						fmt.Sprintf("A zero-based budget allocates all %s of income; %s is still unassigned.",
							templates.Money(b.MonthlyIncome), templates.Money(b.Remaining))
				},
			},
			{
				ID:       "budget.targets",
				Intents:  budgetIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					b := f.budget()
					return b != nil && !b.HasExpenses
				},
				Build: func(f *Facts) (string, string) {
					b := f.budget()
					return fmt.Sprintf("Split your income into %s for needs, %s for wants and %s for savings",
							templates.Money(b.NeedsTarget), templates.Money(b.WantsTarget), templates.Money(b.SavingsTarget)),
						fmt.Sprintf("That is the 50/30/20 split of %s a month; share your expenses for a line-by-line review.", templates.Money(b.MonthlyIncome))
				},
			},
			{
				ID:       "spending.subscriptions",
				Intents:  spendingIntents,
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Profile.Expenses.Line("subscriptions") > SubscriptionLimit },
				Build: func(f *Facts) (string, string) {
					amount := f.Profile.Expenses.Line("subscriptions")
					return "Review and cancel unused subscriptions",
						fmt.Sprintf("You spend %s a month (%s a year) on subscriptions.", templates.Money(amount), templates.Money(amount*12))
				},
			},
			{
				ID:       "spending.dining",
				Intents:  spendingIntents,
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return overShare(f, f.Profile.Expenses.Line("dining_out"), DiningShareOfIncome) },
				Build: func(f *Facts) (string, string) {
					amount := f.Profile.Expenses.Line("dining_out")
					income, _ := f.monthlyIncome()
					return "Cook at home more and set a dining-out limit",
						fmt.Sprintf("Dining out costs %s a month, %s of income.", templates.Money(amount), templates.Percent(amount/income*100))
				},
			},
			{
				ID:       "spending.insurance",
				Intents:  spendingIntents,
				Priority: advice.PriorityLow,
				When:     func(f *Facts) bool { return f.Profile.Expenses.Line("insurance") > 0 },
				Build: func(f *Facts) (string, string) {
					return "Shop around for insurance every year",
						fmt.Sprintf("Quotes vary widely; you pay %s a month today.", templates.Money(f.Profile.Expenses.Line("insurance")))
				},
			},
			{
				ID:       "spending.utilities",
				Intents:  spendingIntents,
				Priority: advice.PriorityLow,
				When:     func(f *Facts) bool { return overShare(f, f.Profile.Expenses.Line("utilities"), UtilitiesShareOfIncome) },
				Build: func(f *Facts) (string, string) {
					amount := f.Profile.Expenses.Line("utilities")
					income, _ := f.monthlyIncome()
					return "Trim utility costs with efficiency changes and provider comparisons",
						fmt.Sprintf("Utilities take %s, %s of income.", templates.Money(amount), templates.Percent(amount/income*100))
				},
			},
			{
				ID:       "spending.variable",
				Intents:  spendingIntents,
				Priority: advice.PriorityHigh,
				When:     func(f *Facts) bool { return overShare(f, f.Profile.Expenses.VariableTotal(), VariableSpendShareOfIncome) },
				Build: func(f *Facts) (string, string) {
					amount := f.Profile.Expenses.VariableTotal()
					income, _ := f.monthlyIncome()
					return "Review lifestyle spending for high-impact cuts",
						fmt.Sprintf("Variable expenses of %s are %s of income.", templates.Money(amount), templates.Percent(amount/income*100))
				},
			},
		},
	}
}

func debtsAbove(debts []profile.Debt, rate float64) []string {
	var names []string
	for _, d := range debts {
		if d.InterestRate > rate && d.Balance > 0 {
			names = append(names, d.Name)
		}
	}
	return names
}

// averageRate is the simple mean of the stated rates
func averageRate(debts []profile.Debt) float64 {
	if len(debts) == 0 {
		return 0
	}
	var total float64
	for _, d := range debts {
		total += d.InterestRate
	}
	return total / float64(len(debts))
}

func sector(p *profile.ClientProfile) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(p.EmployerType)))
}

func overShare(f *Facts, amount, share float64) bool {
	income, ok := f.monthlyIncome()
	return ok && income > 0 && amount > income*share
}
