package rules

import (
	"fmt"

	"finadvisor/internal/calculator"
	"finadvisor/internal/classifier"
	"finadvisor/internal/domain/advice"
	"finadvisor/pkg/templates"
)

// Target401kShare is the share of the 401(k) limit below which more is suggested
const Target401kShare = 80.0

var (
	trackingIntents = []advice.Intent{advice.IntentRetirementTracking}
	optimizeIntents = []advice.Intent{advice.IntentSavingsOptimization}
	goalIntents     = []advice.Intent{advice.IntentGoalManagement}
)

// GoalTable holds the goal-planning rules
func GoalTable() Table {
	return Table{
		Domain: advice.DomainGoal,
		Rules: []Rule{
			{
				ID:       "tracking.on_track",
				Intents:  trackingIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && r.OnTrack
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return "Keep your current contributions; you are on track for retirement",
						fmt.Sprintf("Projected income of %s a year meets your %s goal.", templates.Money(r.TotalIncome), templates.Money(r.TargetIncome))
				},
			},
			{
				ID:       "tracking.behind",
				Intents:  trackingIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && !r.OnTrack
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return fmt.Sprintf("Close a projected income gap of %s a year", templates.Money(r.IncomeGap)),
						fmt.Sprintf("Projected income of %s a year falls short of your %s goal; capture any employer match first.",
							templates.Money(r.TotalIncome), templates.Money(r.TargetIncome))
				},
			},
			{
				ID:       "tracking.success_low",
				Intents:  trackingIntents,
				Priority: advice.PriorityCritical,
				When: func(f *Facts) bool {
					m := f.monteCarlo()
					return m != nil && m.SuccessProbability < CriticalSuccess
				},
				Build: func(f *Facts) (string, string) {
					return "Make significant changes to your retirement plan now", simulationRationale(f.monteCarlo())
				},
			},
			{
				ID:       "tracking.success_moderate",
				Intents:  trackingIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					m := f.monteCarlo()
					return m != nil && m.SuccessProbability >= CriticalSuccess && m.SuccessProbability < TargetSuccess
				},
				Build: func(f *Facts) (string, string) {
					return "Raise contributions by 10 to 15% to improve your odds", simulationRationale(f.monteCarlo())
				},
			},
			{
				ID:       "tracking.401k_below_target",
				Intents:  []advice.Intent{advice.IntentRetirementTracking, advice.IntentSavingsOptimization},
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					l := f.limits()
					if l == nil {
						return false
					}
					k, ok := l.Limit("401k")
					return ok && k.HasAccount && k.PercentOfLimit < Target401kShare
				},
				Build: func(f *Facts) (string, string) {
					k, _ := f.limits().Limit("401k")
					return fmt.Sprintf("Raise 401(k) contributions toward the %s limit", templates.Money(k.Limit)),
						fmt.Sprintf("You contribute %s, %s of the maximum; the remaining %s lowers taxable income.",
							templates.Money(k.Contributed), templates.Percent(k.PercentOfLimit), templates.Money(k.Remaining))
				},
			},
			{
				ID:       "savings.hsa_open",
				Intents:  optimizeIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					hsa, ok := hsaLimit(f)
					return ok && !hsa.HasAccount && f.Entities[classifier.EntityAccountType] == "hsa"
				},
				Build: func(*Facts) (string, string) {
					return "Open an HSA if you have a high-deductible health plan",
						"An HSA is triple tax-advantaged: deductible contributions, tax-free growth and tax-free medical withdrawals."
				},
			},
			{
				ID:       "savings.hsa_maximize",
				Intents:  optimizeIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					hsa, ok := hsaLimit(f)
					return ok && hsa.HasAccount && hsa.Remaining > 0
				},
				Build: func(f *Facts) (string, string) {
					hsa, _ := hsaLimit(f)
					return fmt.Sprintf("Contribute the remaining %s to your HSA", templates.Money(hsa.Remaining)),
						fmt.Sprintf("The HSA limit is %s; invested HSA money doubles as a retirement healthcare fund.", templates.Money(hsa.Limit))
				},
			},
			{
				ID:       "savings.gap",
				Intents:  optimizeIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && r.ContributionGap > 0
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return fmt.Sprintf("Increase annual savings by %s", templates.Money(r.ContributionGap)),
						fmt.Sprintf("Reaching %s by retirement takes %s a year; you save %s.",
							templates.Money(r.RequiredPortfolio), templates.Money(r.RequiredContribution), templates.Money(r.AnnualContribution))
				},
			},
			{
				ID:       "savings.rate_ok",
				Intents:  optimizeIntents,
				Priority: advice.PriorityLow,
				When: func(f *Facts) bool {
					r := f.readiness()
					return r != nil && r.ContributionGap <= 0
				},
				Build: func(f *Facts) (string, string) {
					r := f.readiness()
					return "Automate a 1% contribution increase with each raise",
						fmt.Sprintf("Your %s a year already covers the %s needed.", templates.Money(r.AnnualContribution), templates.Money(r.RequiredContribution))
				},
			},
			{
				ID:       "goal.funding_gap",
				Intents:  goalIntents,
				Priority: advice.PriorityHigh,
				When: func(f *Facts) bool {
					g := f.goals()
					return g != nil && g.UnfundedGoals > 0
				},
				Build: func(f *Facts) (string, string) {
					g := f.goals()
					names := make([]string, 0, g.UnfundedGoals)
					for _, p := range g.Goals {
						if !p.Reachable {
							names = append(names, p.Name)
						}
					}
					return fmt.Sprintf("Set up a monthly contribution for %s", templates.HumanList(names)),
						fmt.Sprintf("%d %s no monthly contribution, so %s never reached.", g.UnfundedGoals,
							templates.Plural(g.UnfundedGoals, "goal has", "goals have"), templates.Plural(g.UnfundedGoals, "it is", "they are"))
				},
			},
			{
				ID:       "goal.focus",
				Intents:  goalIntents,
				Priority: advice.PriorityMedium,
				When: func(f *Facts) bool {
					g := f.goals()
					_, ok := firstOpenGoal(g)
					return ok
				},
				Build: func(f *Facts) (string, string) {
					first, _ := firstOpenGoal(f.goals())
					rationale := fmt.Sprintf("%s still needs %s; it is %s complete.",
						first.Name, templates.Money(first.Remaining), templates.Percent(first.PercentComplete))
					if first.Reachable {
						rationale = fmt.Sprintf("%s still needs %s and is reached in %d months at %s a month.",
							first.Name, templates.Money(first.Remaining), first.MonthsToGoal, templates.Money(first.MonthlyContribution))
					}
					return fmt.Sprintf("Focus on %s first", first.Name), rationale
				},
			},
			{
				ID:       "goal.prioritize",
				Intents:  goalIntents,
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Entities[classifier.EntityGoalAction] == "prioritize" },
				Build: func(*Facts) (string, string) {
					return "Rank goals by urgency and impact: emergency fund and high-interest debt come before long-term goals",
						"Funding the most urgent goal first protects the others from setbacks."
				},
			},
			{
				ID:       "goal.accelerate",
				Intents:  goalIntents,
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Entities[classifier.EntityGoalAction] == "accelerate" },
				Build: func(f *Facts) (string, string) {
					rationale := "Automated transfers and windfalls such as bonuses or refunds shorten the timeline most."
					if g := f.goals(); g != nil && g.TotalMonthlyContribution > 0 {
						rationale = fmt.Sprintf("You put %s a month toward %s left; every extra dollar shortens the timeline.",
							templates.Money(g.TotalMonthlyContribution), templates.Money(g.TotalRemaining))
					}
					return "Automate transfers and send windfalls straight to your top goal", rationale
				},
			},
			{
				ID:       "goal.create",
				Intents:  goalIntents,
				Priority: advice.PriorityMedium,
				When:     func(f *Facts) bool { return f.Entities[classifier.EntityGoalAction] == "create" },
				Build: func(*Facts) (string, string) {
					return "Write the goal down with a target amount, a deadline and a monthly contribution",
						"Specific, measurable goals with a date are far more likely to be reached."
				},
			},
		},
	}
}

func hsaLimit(f *Facts) (calculator.ContributionLimit, bool) {
	l := f.limits()
	if l == nil {
		return calculator.ContributionLimit{}, false
	}
	return l.Limit("hsa")
}

func firstOpenGoal(g *calculator.GoalTimeline) (calculator.GoalProgress, bool) {
	if g == nil {
		return calculator.GoalProgress{}, false
	}
	for _, p := range g.Goals {
		if p.Remaining > 0 {
			return p, true
		}
	}
	return calculator.GoalProgress{}, false
}
