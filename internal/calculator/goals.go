package calculator

import (
	"math"
	"sort"

	"finadvisor/internal/domain/profile"
)

// GoalProgress tracks one savings goal at its current contribution
type GoalProgress struct {
	Name                string  `json:"name"`
	Priority            int     `json:"priority,omitempty"`
	Target              float64 `json:"target"`
	Current             float64 `json:"current"`
	Remaining           float64 `json:"remaining"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	PercentComplete     float64 `json:"percent_complete"`
	MonthsToGoal        int     `json:"months_to_goal"`
	Reachable           bool    `json:"reachable"`
}

// GoalTimeline orders goals by priority, then by input order
type GoalTimeline struct {
	Status
	Goals                    []GoalProgress `json:"goals"`
	TotalRemaining           float64        `json:"total_remaining"`
	TotalMonthlyContribution float64        `json:"total_monthly_contribution"`
	UnfundedGoals            int            `json:"unfunded_goals"`
}

// ComputeGoalTimeline estimates months to each goal without investment growth
func ComputeGoalTimeline(goals []profile.Goal) *GoalTimeline {
	out := &GoalTimeline{Goals: make([]GoalProgress, 0, len(goals))}

	for _, g := range goals {
		if g.TargetAmount < 0 || g.CurrentAmount < 0 || g.MonthlyContribution < 0 {
			return &GoalTimeline{Status: notApplicable("goal %q has negative amounts", g.Name)}
		}

		remaining := math.Max(g.TargetAmount-g.CurrentAmount, 0)
		gp := GoalProgress{
			Name:                g.Name,
			Priority:            g.Priority,
			Target:              roundMoney(g.TargetAmount),
			Current:             roundMoney(g.CurrentAmount),
			Remaining:           roundMoney(remaining),
			MonthlyContribution: roundMoney(g.MonthlyContribution),
		}
		if g.TargetAmount > 0 {
			gp.PercentComplete = roundTo(math.Min(g.CurrentAmount/g.TargetAmount, 1)*100, 1)
		} else {
			gp.PercentComplete = 100
		}

		switch {
		case remaining == 0:
			gp.Reachable = true
		case g.MonthlyContribution > 0:
			gp.Reachable = true
			gp.MonthsToGoal = int(math.Ceil(remaining / g.MonthlyContribution))
		default:
			out.UnfundedGoals++
		}

		out.TotalRemaining += remaining
		out.TotalMonthlyContribution += g.MonthlyContribution
		out.Goals = append(out.Goals, gp)
	}

	sort.SliceStable(out.Goals, func(i, j int) bool {
		pi, pj := out.Goals[i].Priority, out.Goals[j].Priority
		if pi == 0 {
			pi = math.MaxInt
		}
		if pj == 0 {
			pj = math.MaxInt
		}
		return pi < pj
	})

	out.TotalRemaining = roundMoney(out.TotalRemaining)
	out.TotalMonthlyContribution = roundMoney(out.TotalMonthlyContribution)
	return out
}
