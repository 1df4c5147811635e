package calculator

import (
	"fmt"
	"strings"

	"finadvisor/pkg/errors"
)

// Kind names a calculator and the result variant it produces
type Kind string

const (
	KindPortfolioValue         Kind = "PortfolioValue"
	KindAssetAllocation        Kind = "AssetAllocation"
	KindMonteCarloSuccess      Kind = "MonteCarloSuccess"
	KindRMD                    Kind = "RMD"
	KindSafeWithdrawal         Kind = "SafeWithdrawal"
	KindSocialSecurityBenefit  Kind = "SocialSecurityBenefit"
	KindDebtStrategyComparison Kind = "DebtStrategyComparison"
	KindAmortizationSchedule   Kind = "AmortizationSchedule"
	KindBudgetAllocation       Kind = "BudgetAllocation"
	KindRetirementReadiness    Kind = "RetirementReadiness"
	KindContributionLimits     Kind = "ContributionLimits"
	KindGoalTimeline           Kind = "GoalTimeline"
)

// AllKinds lists every calculator in canonical order
func AllKinds() []Kind {
	return []Kind{
		KindPortfolioValue,
		KindAssetAllocation,
		KindRetirementReadiness,
		KindMonteCarloSuccess,
		KindRMD,
		KindSafeWithdrawal,
		KindSocialSecurityBenefit,
		KindContributionLimits,
		KindDebtStrategyComparison,
		KindAmortizationSchedule,
		KindBudgetAllocation,
		KindGoalTimeline,
	}
}

// Result is implemented by every calculation variant
type Result interface {
	Kind() Kind
	Applicable() bool
}

// Status is embedded in every variant. A numeric-domain problem (zero income,
// negative balance, age below a threshold) sets NotApplicable with a Note
// instead of failing.
type Status struct {
	NotApplicable bool   `json:"not_applicable,omitempty"`
	Note          string `json:"note,omitempty"`
}

// Applicable reports whether the figures in the variant are meaningful
func (s Status) Applicable() bool {
	return !s.NotApplicable
}

func notApplicable(format string, args ...interface{}) Status {
	return Status{NotApplicable: true, Note: fmt.Sprintf(format, args...)}
}

// InsufficientDataError names the profile fields a calculator needs but did not get
type InsufficientDataError struct {
	Calculator Kind
	Fields     []string
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	if e.Calculator == "" {
		return fmt.Sprintf("insufficient data: missing %s", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("insufficient data for %s: missing %s", e.Calculator, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is(err, errors.ErrInsufficientData) match
func (e *InsufficientDataError) Is(target error) bool {
	return target == errors.ErrInsufficientData
}

func missing(kind Kind, fields ...string) *InsufficientDataError {
	return &InsufficientDataError{Calculator: kind, Fields: fields}
}

// Results holds at most one result per calculator. It is the machine-readable
// calculation_results object returned alongside a response.
type Results struct {
	PortfolioValue         *PortfolioValue         `json:"portfolio_value,omitempty"`
	AssetAllocation        *AssetAllocation        `json:"asset_allocation,omitempty"`
	RetirementReadiness    *RetirementReadiness    `json:"retirement_readiness,omitempty"`
	MonteCarloSuccess      *MonteCarloSuccess      `json:"monte_carlo_success,omitempty"`
	RMD                    *RMD                    `json:"rmd,omitempty"`
	SafeWithdrawal         *SafeWithdrawal         `json:"safe_withdrawal,omitempty"`
	SocialSecurityBenefit  *SocialSecurityBenefit  `json:"social_security_benefit,omitempty"`
	ContributionLimits     *ContributionLimits     `json:"contribution_limits,omitempty"`
	DebtStrategyComparison *DebtStrategyComparison `json:"debt_strategy_comparison,omitempty"`
	AmortizationSchedule   *AmortizationSchedule   `json:"amortization_schedule,omitempty"`
	BudgetAllocation       *BudgetAllocation       `json:"budget_allocation,omitempty"`
	GoalTimeline           *GoalTimeline           `json:"goal_timeline,omitempty"`
}

// Set stores r under its kind, replacing any earlier result of that kind
func (rs *Results) Set(r Result) error {
	switch v := r.(type) {
	case *PortfolioValue:
		rs.PortfolioValue = v
	case *AssetAllocation:
		rs.AssetAllocation = v
	case *RetirementReadiness:
		rs.RetirementReadiness = v
	case *MonteCarloSuccess:
		rs.MonteCarloSuccess = v
	case *RMD:
		rs.RMD = v
	case *SafeWithdrawal:
		rs.SafeWithdrawal = v
	case *SocialSecurityBenefit:
		rs.SocialSecurityBenefit = v
	case *ContributionLimits:
		rs.ContributionLimits = v
	case *DebtStrategyComparison:
		rs.DebtStrategyComparison = v
	case *AmortizationSchedule:
		rs.AmortizationSchedule = v
	case *BudgetAllocation:
		rs.BudgetAllocation = v
	case *GoalTimeline:
		rs.GoalTimeline = v
	default:
		return errors.Wrapf(errors.ErrUnknownCalculator, "result type %T", r)
	}
	return nil
}

// Get returns the result of the given kind, if present
func (rs *Results) Get(kind Kind) (Result, bool) {
	if rs == nil {
		return nil, false
	}

	var r Result
	switch kind {
	case KindPortfolioValue:
		if rs.PortfolioValue != nil {
			r = rs.PortfolioValue
		}
	case KindAssetAllocation:
		if rs.AssetAllocation != nil {
			r = rs.AssetAllocation
		}
	case KindRetirementReadiness:
		if rs.RetirementReadiness != nil {
			r = rs.RetirementReadiness
		}
	case KindMonteCarloSuccess:
		if rs.MonteCarloSuccess != nil {
			r = rs.MonteCarloSuccess
		}
	case KindRMD:
		if rs.RMD != nil {
			r = rs.RMD
		}
	case KindSafeWithdrawal:
		if rs.SafeWithdrawal != nil {
			r = rs.SafeWithdrawal
		}
	case KindSocialSecurityBenefit:
		if rs.SocialSecurityBenefit != nil {
			r = rs.SocialSecurityBenefit
		}
	case KindContributionLimits:
		if rs.ContributionLimits != nil {
			r = rs.ContributionLimits
		}
	case KindDebtStrategyComparison:
		if rs.DebtStrategyComparison != nil {
			r = rs.DebtStrategyComparison
		}
	case KindAmortizationSchedule:
		if rs.AmortizationSchedule != nil {
			r = rs.AmortizationSchedule
		}
	case KindBudgetAllocation:
		if rs.BudgetAllocation != nil {
			r = rs.BudgetAllocation
		}
	case KindGoalTimeline:
		if rs.GoalTimeline != nil {
			r = rs.GoalTimeline
		}
	}
	return r, r != nil
}

// Kinds lists the kinds present, in canonical order
func (rs *Results) Kinds() []Kind {
	kinds := make([]Kind, 0)
	for _, k := range AllKinds() {
		if _, ok := rs.Get(k); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Len returns the number of results present
func (rs *Results) Len() int {
	return len(rs.Kinds())
}

// HasApplicable reports whether at least one result carries usable figures
func (rs *Results) HasApplicable() bool {
	for _, k := range rs.Kinds() {
		if r, _ := rs.Get(k); r.Applicable() {
			return true
		}
	}
	return false
}

func (*PortfolioValue) Kind() Kind         { return KindPortfolioValue }
func (*AssetAllocation) Kind() Kind        { return KindAssetAllocation }
func (*RetirementReadiness) Kind() Kind    { return KindRetirementReadiness }
func (*MonteCarloSuccess) Kind() Kind      { return KindMonteCarloSuccess }
func (*RMD) Kind() Kind                    { return KindRMD }
func (*SafeWithdrawal) Kind() Kind         { return KindSafeWithdrawal }
func (*SocialSecurityBenefit) Kind() Kind  { return KindSocialSecurityBenefit }
func (*ContributionLimits) Kind() Kind     { return KindContributionLimits }
func (*DebtStrategyComparison) Kind() Kind { return KindDebtStrategyComparison }
func (*AmortizationSchedule) Kind() Kind   { return KindAmortizationSchedule }
func (*BudgetAllocation) Kind() Kind       { return KindBudgetAllocation }
func (*GoalTimeline) Kind() Kind           { return KindGoalTimeline }
