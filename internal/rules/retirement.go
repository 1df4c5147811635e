package rules

import (
	"fmt"
	"math"
	"strings"

	"finadvisor/internal/calculator"
	"finadvisor/internal/classifier"
	"finadvisor/internal/domain/advice"
	"finadvisor/pkg/templates"
)

// Success-probability bands
const (
	CriticalSuccess = 0.50
	TargetSuccess   = 0.70
	StrongSuccess   = 0.90
)

// Allocation and Social Security thresholds
const (
	EquityCeiling        = 90.0
	EquityFloor          = 20.0
	ShortLifeExpectancy  = 75
	RMDConversionHorizon = 10
)

var (
	readinessIntents  = []advice.Intent{advice.IntentRetirementReadiness}
	simulationIntents = []advice.Intent{
		advice.IntentRetirementReadiness,
		advice.IntentSavingsStrategy,
		advice.IntentWithdrawalPlanning,
		advice.IntentRetirementIncome,
	}
	savingsIntents    = []advice.Intent{advice.IntentSavingsStrategy}
	rothIntents       = []advice.Intent{advice.IntentSavingsStrategy, advice.IntentTaxOptimization}
	ssIntents         = []advice.Intent{advice.IntentSocialSecurity}
	withdrawalIntents = []advice.Intent{advice.IntentWithdrawalPlanning, advice.IntentRetirementIncome}
	rmdIntents        = []advice.Intent{advice.IntentWithdrawalPlanning, advice.IntentTaxOptimization}
	allocationIntents = []advice.Intent{advice.IntentInvestmentAllocation, advice.IntentRetirementReadiness}
)

// RetirementTable holds the retirement-planning rules
func RetirementTable() Table {
	return Table{
		Domain: advice.DomainRetirement,
		Rules: []Rule{
			{
				ID:       "readiness.on_track",
				Intents:  []advice.Intent{advice.IntentRetirementReadiness, advice.IntentRetirementIncome},
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && r.OnTrack
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return fmt.Sprintf("Keep contributing %s a year; you are on track for retirement", templates.Money(r.AnnualContribution)),
						fmt.Sprintf("A projected balance of %s in %d years supports %s a year against your %s target (%s funded).",
							templates.Money(r.ProjectedBalance), r.YearsToRetirement, templates.Money(r.TotalIncome),
							templates.Money(r.TargetIncome), templates.Ratio(r.FundedRatio))
				},
			},
			{
				ID:       "readiness.income_gap",
				Intents:  []advice.Intent{advice.IntentRetirementReadiness, advice.IntentSavingsStrategy, advice.IntentRetirementIncome},
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && !r.OnTrack
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					action := "Close your retirement income gap by saving more or retiring later"
					if r.ContributionGap > 0 {
						action = fmt.Sprintf("Increase annual retirement contributions by %s", templates.Money(r.ContributionGap))
					}
					rationale := fmt.Sprintf("Projected income of %s a year falls %s short of your %s target; reaching it takes about %s a year in contributions.",
						templates.Money(r.TotalIncome), templates.Money(r.IncomeGap), templates.Money(r.TargetIncome),
						templates.Money(r.RequiredContribution))
					if r.ContributionAssumed {
						rationale += fmt.Sprintf(" Current contributions were assumed to be %s a year.", templates.Money(r.AnnualContribution))
					}
					return action, rationale
				},
			},
			{
				ID:       "montecarlo.critical",
				Intents:  simulationIntents,
				Priority: advice.PriorityCritical,
				When: func(f *Facts) bool {
					m := f.monteCarlo()
					return m != nil && m.SuccessProbability < CriticalSuccess
				},
				Build: func(f *Facts) (string, string) {
					m := f.monteCarlo()
					return "Make significant changes now: raise savings by at least 20% or plan to work 3 to 5 years longer",
						simulationRationale(m)
				},
			},
			{
				ID:       "montecarlo.moderate",
				Intents:  simulationIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					m := f.monteCarlo()
					return m != nil && m.SuccessProbability >= CriticalSuccess && m.SuccessProbability < TargetSuccess
				},
				Build: func(f *Facts) (string, string) {
					m := f.monteCarlo()
					return "Increase contributions by 10 to 15% to raise your odds of success", simulationRationale(m)
				},
			},
			{
				ID:       "montecarlo.strong",
				Intents:  readinessIntents,
				Priority: advice.PriorityLow,
				When: func(f *Facts) bool {
					m := f.monteCarlo()
					return m != nil && m.SuccessProbability >= StrongSuccess
				},
				Build: func(f *Facts) (string, string) {
					m := f.monteCarlo()
					return "Review your plan annually and rebalance to stay on course", simulationRationale(m)
				},
			},
			{
				ID:       "limits.maximize",
				Intents:  []advice.Intent{advice.IntentSavingsStrategy, advice.IntentTaxOptimization},
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					l := f.limits()
					return l != nil && l.TotalRemaining > 0
				},
				Build: func(f *Facts) (string, string) {
					l := f.limits()
					k, _ := l.Limit("401k")
					ira, _ := l.Limit("ira")
					return fmt.Sprintf("Use the %s of tax-advantaged contribution room left this year", templates.Money(l.TotalRemaining)),
						fmt.Sprintf("This year's limits are %s for a 401(k) or 403(b) and %s for an IRA, catch-up included where eligible.",
							templates.Money(k.Limit), templates.Money(ira.Limit))
				},
			},
			{
				ID:       "limits.catch_up",
				Intents:  savingsIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					l := f.limits()
					return l != nil && l.CatchUpEligible
				},
				Build: func(f *Facts) (string, string) {
					return fmt.Sprintf("Add catch-up contributions of %s to your 401(k) and %s to your IRA",
							templates.Money(calculator.CatchUp401k), templates.Money(calculator.CatchUpIRA)),
						fmt.Sprintf("At %d you qualify for catch-up contributions, which matter most in your final working years.", f.Results.ContributionLimits.Age)
				},
			},
			{
				ID:       "savings.roth",
				Intents:  rothIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					income, ok := f.Profile.AnnualIncome()
					return ok && income < calculator.RothIncomeCeiling
				},
				Build: func(f *Facts) (string, string) {
					income, _ := f.Profile.AnnualIncome()
					return "Favor Roth 401(k) or Roth IRA contributions",
						fmt.Sprintf("At %s of income, paying tax now buys tax-free growth and withdrawals later.", templates.Money(income))
				},
			},
			{
				ID:       "savings.traditional",
				Intents:  rothIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					income, ok := f.Profile.AnnualIncome()
					return ok && income >= calculator.RothIncomeCeiling
				},
				Build: func(f *Facts) (string, string) {
					income, _ := f.Profile.AnnualIncome()
					return "Favor traditional pre-tax 401(k) contributions",
						fmt.Sprintf("At %s of income the deduction is worth more today; keep some Roth savings for tax diversification.", templates.Money(income))
				},
			},
			{
				ID:       "stage.early_career",
				Intents:  []advice.Intent{advice.IntentInvestmentAllocation, advice.IntentSavingsStrategy, advice.IntentRetirementReadiness},
				Priority: advice.PriorityLow,
				When:     func(f *Facts) bool { return f.Stage == advice.StageEarlyCareer },
				Build: func(f *Facts) (string, string) {
					return "Keep a growth-oriented allocation while retirement is decades away",
						"A long horizon lets equities recover from downturns; automate contributions and raise them with each pay increase."
				},
			},
			{
				ID:       "stage.pre_retirement",
				Intents:  []advice.Intent{advice.IntentInvestmentAllocation, advice.IntentRetirementReadiness, advice.IntentWithdrawalPlanning},
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Stage == advice.StagePreRetirement },
				Build: func(f *Facts) (string, string) {
					years, _ := f.Profile.YearsToRetirement()
					return "Start a glide path that shifts gradually from stocks to bonds",
						fmt.Sprintf("With %d years to go, a large market drop would leave little time to recover.", years)
				},
			},
			{
				ID:       "stage.in_retirement",
				Intents:  []advice.Intent{advice.IntentWithdrawalPlanning, advice.IntentInvestmentAllocation, advice.IntentRetirementIncome, advice.IntentRetirementReadiness},
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Stage == advice.StageInRetirement },
				Build: func(f *Facts) (string, string) {
					return "Hold one to two years of spending in cash",
						"A cash buffer avoids selling investments after a market drop early in retirement (sequence-of-returns risk)."
				},
			},
			{
				ID:       "ss.early_claim",
				Intents:  ssIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					s := f.socialSecurity()
					return s != nil && s.ClaimingAge < s.FullRetirementAge
				},
				Build: func(f *Facts) (string, string) {
					s := f.socialSecurity()
					return fmt.Sprintf("Consider delaying Social Security past age %d if you can afford to wait", s.ClaimingAge),
						fmt.Sprintf("Claiming at %d permanently reduces your benefit by %s to %s a month; waiting until 70 pays %s a year.",
							s.ClaimingAge, templates.Percent(math.Abs(s.AdjustmentPercent)), templates.Money(s.MonthlyBenefit),
							templates.Money(s.BenefitAt70))
				},
			},
			{
				ID:       "ss.delayed_claim",
				Intents:  ssIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					s := f.socialSecurity()
					return s != nil && s.ClaimingAge > s.FullRetirementAge
				},
				Build: func(f *Facts) (string, string) {
					s := f.socialSecurity()
					return fmt.Sprintf("Bridge the years to age %d with other savings so you can delay your claim", s.ClaimingAge),
						fmt.Sprintf("Delaying to %d raises your benefit by %s to %s a month. Credits stop at 70.",
							s.ClaimingAge, templates.Percent(s.AdjustmentPercent), templates.Money(s.MonthlyBenefit))
				},
			},
			{
				ID:       "ss.full_retirement_age",
				Intents:  ssIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					s := f.socialSecurity()
					return s != nil && s.ClaimingAge == s.FullRetirementAge
				},
				Build: func(f *Facts) (string, string) {
					s := f.socialSecurity()
					return fmt.Sprintf("Compare claiming at %d with delaying to 70", s.FullRetirementAge),
						fmt.Sprintf("Your full benefit is %s a year; each year of delay adds 8%% until 70, when it reaches %s.",
							templates.Money(s.BenefitAtFRA), templates.Money(s.BenefitAt70))
				},
			},
			{
				ID:       "ss.health",
				Intents:  ssIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					if strings.EqualFold(f.Profile.HealthStatus, "poor") {
						return true
					}
					return f.Profile.LifeExpectancy != nil && *f.Profile.LifeExpectancy < ShortLifeExpectancy
				},
				Build: func(f *Facts) (string, string) {
					rationale := "With health concerns or a shorter life expectancy, claiming earlier can pay more over your lifetime."
					if s := f.socialSecurity(); s != nil && s.BreakEvenAge > 0 {
						rationale = fmt.Sprintf("Delaying from 62 to 70 only pays off if you live past about %.1f; with health concerns, earlier claiming can pay more.", s.BreakEvenAge)
					}
					return "Weigh claiming earlier given your health outlook", rationale
				},
			},
			{
				ID:       "ss.spousal",
				Intents:  ssIntents,
				Priority: advice.PriorityLow,
				When: func(f *Facts) bool {
					return f.Entities[classifier.EntityBenefitType] == "spousal" || strings.EqualFold(f.Profile.MaritalStatus, "married")
				},
				Build: func(f *Facts) (string, string) {
					return "Coordinate claiming ages with your spouse",
						"A spouse can receive up to 50% of the other's full benefit, so the order you claim in changes household income."
				},
			},
			{
				ID:       "ss.survivor",
				Intents:  ssIntents,
				Priority: advice.PriorityLow,
				When: func(f *Facts) bool {
					return f.Entities[classifier.EntityBenefitType] == "survivor"
				},
				Build: func(f *Facts) (string, string) {
					return "Have the higher earner delay to maximize the survivor benefit",
						"A surviving spouse keeps the larger of the two benefits, including any delayed credits."
				},
			},
			{
				ID:       "withdrawal.safe_rate",
				Intents:  withdrawalIntents,
				Priority: advice.PriorityHigh,
				When:     func(f *Facts) bool { return f.safeWithdrawal() != nil },
				Build: func(f *Facts) (string, string) {
					w := f.safeWithdrawal()
					return fmt.Sprintf("Plan first-year withdrawals of about %s (%s a month), adjusted for inflation",
							templates.Money(w.AnnualAmount), templates.Money(w.MonthlyAmount)),
						fmt.Sprintf("%s of %s; this static rule is separate from the simulated success probability.",
							templates.Rate(w.WithdrawalRate), templates.Money(w.PortfolioValue))
				},
			},
			{
				ID:       "withdrawal.rmd_due",
				Intents:  rmdIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.Results.RMD
					return r != nil && r.Applicable()
				},
				Build: func(f *Facts) (string, string) {
					r := f.Results.RMD
					return fmt.Sprintf("Take your required minimum distribution of %s this year", templates.Money(r.Amount)),
						fmt.Sprintf("At %d your tax-deferred balance of %s divided by %.1f sets the minimum; missing it triggers a penalty.",
							r.Age, templates.Money(r.Balance), r.Divisor)
				},
			},
			{
				ID:       "withdrawal.rmd_upcoming",
				Intents:  rmdIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					r := f.Results.RMD
					return r != nil && !r.Applicable() && r.YearsUntilRMD > 0 && r.YearsUntilRMD <= RMDConversionHorizon
				},
				Build: func(f *Facts) (string, string) {
					r := f.Results.RMD
					return "Consider Roth conversions before required distributions begin",
						fmt.Sprintf("RMDs start at %d, in %d %s; converting now shrinks them.",
							r.StartAge, r.YearsUntilRMD, templates.Plural(r.YearsUntilRMD, "year", "years"))
				},
			},
			{
				ID:       "withdrawal.tax_order",
				Intents:  rmdIntents,
				Priority: advice.PriorityMedium,
				When:     func(*Facts) bool { return true },
				Build: func(*Facts) (string, string) {
					return "Withdraw from taxable accounts first, then tax-deferred accounts, and Roth accounts last",
						"This order keeps tax-free growth working longest and smooths your tax bracket from year to year."
				},
			},
			{
				ID:       "tax.roth_conversion",
				Intents:  []advice.Intent{advice.IntentTaxOptimization},
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					return f.Entities[classifier.EntityTopic] == "roth_conversion" || f.Stage == advice.StagePreRetirement
				},
				Build: func(f *Facts) (string, string) {
					return "Convert traditional balances to Roth in lower-income years",
						"Years between retirement and required distributions often have the lowest tax brackets of your life."
				},
			},
			{
				ID:       "healthcare.hsa_open",
				Intents:  []advice.Intent{advice.IntentHealthcareCosts},
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					l := f.limits()
					if l == nil {
						return false
					}
					hsa, ok := l.Limit("hsa")
					return ok && !hsa.HasAccount
				},
				Build: func(f *Facts) (string, string) {
					return "Open an HSA if you have a high-deductible health plan",
						fmt.Sprintf("HSA contributions up to %s a year go in, grow and come out for medical costs tax-free.", templates.Money(calculator.LimitHSA))
				},
			},
			{
				ID:       "healthcare.hsa_maximize",
				Intents:  []advice.Intent{advice.IntentHealthcareCosts},
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					l := f.limits()
					if l == nil {
						return false
					}
					hsa, ok := l.Limit("hsa")
					return ok && hsa.HasAccount && hsa.Remaining > 0
				},
				Build: func(f *Facts) (string, string) {
					hsa, _ := f.limits().Limit("hsa")
					return fmt.Sprintf("Add the remaining %s to your HSA this year", templates.Money(hsa.Remaining)),
						fmt.Sprintf("You have used %s of the %s limit; unused HSA money carries over into retirement.",
							templates.Percent(hsa.PercentOfLimit), templates.Money(hsa.Limit))
				},
			},
			{
				ID:       "healthcare.medicare",
				Intents:  []advice.Intent{advice.IntentHealthcareCosts},
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					return f.stageIn(advice.StagePreRetirement, advice.StageInRetirement)
				},
				Build: func(*Facts) (string, string) {
					return "Enroll in Medicare during the seven-month window around your 65th birthday",
						"Late enrollment carries permanent premium penalties, and coverage before 65 has to be bridged separately."
				},
			},
			{
				ID:       "healthcare.long_term_care",
				Intents:  []advice.Intent{advice.IntentHealthcareCosts},
				Priority: advice.PriorityLow,
				When:     func(*Facts) bool { return true },
				Build: func(*Facts) (string, string) {
					return "Budget for long-term care in your retirement plan",
						"Medicare does not cover most long-term care; premiums are lowest when bought in your 50s."
				},
			},
			{
				ID:       "estate.beneficiaries",
				Intents:  []advice.Intent{advice.IntentEstatePlanning},
				Priority: advice.PriorityHigh,
				When:     func(*Facts) bool { return true },
				Build: func(f *Facts) (string, string) {
					rationale := "Beneficiary designations on retirement accounts and policies override a will."
					if n := len(f.Profile.Accounts); n > 0 {
						rationale = fmt.Sprintf("Beneficiary designations on your %d %s (%s) override a will.",
							n, templates.Plural(n, "account", "accounts"), templates.Money(f.Profile.PortfolioBalance()))
					}
					return "Review the beneficiary designation on every account", rationale
				},
			},
			{
				ID:       "estate.documents",
				Intents:  []advice.Intent{advice.IntentEstatePlanning},
				Priority: advice.PriorityMedium,
				When:     func(*Facts) bool { return true },
				Build: func(*Facts) (string, string) {
					return "Put a will, powers of attorney and a healthcare directive in place",
						"These documents decide who manages your money and care if you cannot, and who inherits."
				},
			},
			{
				ID:       "allocation.equity_heavy",
				Intents:  allocationIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					a := f.allocation()
					return a != nil && !a.Defaulted && a.EquityPercent > EquityCeiling &&
						f.stageIn(advice.StagePreRetirement, advice.StageInRetirement)
				},
				Build: func(f *Facts) (string, string) {
					a := f.allocation()
					return "Reduce equity exposure as retirement approaches",
						fmt.Sprintf("%s of your portfolio is in equities; a bear market now could cut it sharply with little time to recover.",
							templates.Percent(a.EquityPercent))
				},
			},
			{
				ID:       "allocation.equity_light",
				Intents:  allocationIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					a := f.allocation()
					return a != nil && !a.Defaulted && a.EquityPercent < EquityFloor &&
						f.stageIn(advice.StageEarlyCareer, advice.StageMidCareer, advice.StagePreRetirement)
				},
				Build: func(f *Facts) (string, string) {
					a := f.allocation()
					return "Add equities so growth keeps ahead of inflation",
						fmt.Sprintf("Only %s is in equities, which caps the expected return at %s.",
							templates.Percent(a.EquityPercent), templates.Rate(a.ExpectedReturn))
				},
			},
			{
				ID:       "allocation.rebalance",
				Intents:  []advice.Intent{advice.IntentInvestmentAllocation},
				Priority: advice.PriorityLow,
				When:     func(f *Facts) bool { return f.allocation() != nil },
				Build: func(f *Facts) (string, string) {
					a := f.allocation()
					rationale := fmt.Sprintf("Your mix has an expected return of %s with %s volatility.",
						templates.Rate(a.ExpectedReturn), templates.Rate(a.Volatility))
					if a.Defaulted {
						rationale = fmt.Sprintf("No holdings were provided, so a 60/40 mix was assumed: %s expected return with %s volatility.",
							templates.Rate(a.ExpectedReturn), templates.Rate(a.Volatility))
					}
					return "Rebalance back to your target mix once a year", rationale
				},
			},
			{
				ID:       "income.guaranteed",
				Intents:  []advice.Intent{advice.IntentRetirementIncome},
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.readiness() != nil },
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return "Cover essential expenses with guaranteed income such as Social Security, a pension or an annuity",
						fmt.Sprintf("Guaranteed sources supply %s of your %s target; the portfolio must fund the rest.",
							templates.Money(r.GuaranteedIncome()), templates.Money(r.TargetIncome))
				},
			},
			{
				ID:       "lifestyle.spending",
				Intents:  []advice.Intent{advice.IntentLifestyleAdjustments},
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.safeWithdrawal() != nil },
				Build: func(f *Facts) (string, string) {
					w := f.safeWithdrawal()
					return fmt.Sprintf("Keep planned lifestyle spending near %s a month from your portfolio", templates.Money(w.MonthlyAmount)),
						fmt.Sprintf("That is what a %s withdrawal from %s supports.", templates.Rate(w.WithdrawalRate), templates.Money(w.PortfolioValue))
				},
			},
			{
				ID:       "lifestyle.trial_run",
				Intents:  []advice.Intent{advice.IntentLifestyleAdjustments},
				Priority: advice.PriorityLow,
				When:     func(*Facts) bool { return true },
				Build: func(*Facts) (string, string) {
					return "Live on your planned retirement budget for six months before you retire",
						"A trial run shows whether downsizing, relocating or part-time work belongs in the plan."
				},
			},
		},
	}
}

func simulationRationale(m *calculator.MonteCarloSuccess) string {
	return fmt.Sprintf("%s of %d simulated market paths sustain %s a year for %d years.",
		templates.Percent(m.SuccessPercent()), m.Trials, templates.Money(m.AnnualWithdrawal), m.Years)
}
