package rules

import (
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
)

// DeriveStage places a client on the career arc. Years until retirement win
// over age when both are known.
func DeriveStage(p *profile.ClientProfile) advice.LifeStage {
	if p == nil {
		return advice.StageUnknown
	}
	if years, ok := p.YearsToRetirement(); ok {
		switch {
		case years <= 0:
			return advice.StageInRetirement
		case years <= 10:
			return advice.StagePreRetirement
		case years <= 25:
			return advice.StageMidCareer
		default:
			return advice.StageEarlyCareer
		}
	}
	if p.CurrentAge != nil {
		switch age := *p.CurrentAge; {
		case age >= 65:
			return advice.StageInRetirement
		case age >= 55:
			return advice.StagePreRetirement
		case age >= 35:
			return advice.StageMidCareer
		default:
			return advice.StageEarlyCareer
		}
	}
	return advice.StageUnknown
}

// Accessors return nil unless the result is present and applicable

func (f *Facts) readiness() *calculator.RetirementReadiness {
	if r := f.Results.RetirementReadiness; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) monteCarlo() *calculator.MonteCarloSuccess {
	if r := f.Results.MonteCarloSuccess; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) allocation() *calculator.AssetAllocation {
	if r := f.Results.AssetAllocation; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) socialSecurity() *calculator.SocialSecurityBenefit {
	if r := f.Results.SocialSecurityBenefit; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) safeWithdrawal() *calculator.SafeWithdrawal {
	if r := f.Results.SafeWithdrawal; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) limits() *calculator.ContributionLimits {
	if r := f.Results.ContributionLimits; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) debts() *calculator.DebtStrategyComparison {
	if r := f.Results.DebtStrategyComparison; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) loan() *calculator.AmortizationSchedule {
	if r := f.Results.AmortizationSchedule; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) budget() *calculator.BudgetAllocation {
	if r := f.Results.BudgetAllocation; r != nil && r.Applicable() {
		return r
	}
	return nil
}

func (f *Facts) goals() *calculator.GoalTimeline {
	if r := f.Results.GoalTimeline; r != nil && r.Applicable() {
		return r
	}
	return nil
}

// monthlyIncome prefers the budget's figure so spending rules agree with it
func (f *Facts) monthlyIncome() (float64, bool) {
	if b := f.budget(); b != nil {
		return b.MonthlyIncome, true
	}
	return f.Profile.MonthlyGrossIncome()
}

func (f *Facts) stageIn(stages ...advice.LifeStage) bool {
	for _, s := range stages {
		if f.Stage == s {
			return true
		}
	}
	return false
}
