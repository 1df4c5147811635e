package calculator

import (
	"context"

	"finadvisor/internal/domain/profile"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// Options are the tunable assumptions shared by every calculation
type Options struct {
	Trials              int
	Workers             int
	RetirementYears     int
	InflationRate       float64
	DefaultContribution float64
	SafeWithdrawalRate  float64
	AvalancheSpread     float64
	RMDStartAge         int
	ReturnWindow        int
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		Trials:              DefaultTrials,
		Workers:             4,
		RetirementYears:     30,
		InflationRate:       0.03,
		DefaultContribution: DefaultAnnualContribution,
		SafeWithdrawalRate:  DefaultSafeWithdrawalRate,
		AvalancheSpread:     DefaultAvalancheSpread,
		RMDStartAge:         DefaultRMDStartAge,
	}
}

// Input is everything a calculator may read for one request
type Input struct {
	Profile *profile.ClientProfile
	Seed    uint64

	// Entities extracted from the question (framework, account_type, ...)
	Entities map[string]string
}

// Step is one calculation in an intent's plan. A missing input on a required
// step stops the plan; an optional step is skipped.
type Step struct {
	Kind     Kind
	Required bool
}

// Engine dispatches calculations by kind
type Engine struct {
	opts        Options
	assumptions *AssumptionSet
	log         *logger.Logger
}

// NewEngine creates an engine. A nil assumption set uses the defaults.
func NewEngine(opts Options, assumptions *AssumptionSet) *Engine {
	if assumptions == nil {
		assumptions = NewAssumptionSet()
	}
	opts.Trials = ClampTrials(opts.Trials)
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.RetirementYears <= 0 {
		opts.RetirementYears = DefaultOptions().RetirementYears
	}
	if opts.SafeWithdrawalRate <= 0 {
		opts.SafeWithdrawalRate = DefaultSafeWithdrawalRate
	}
	if opts.DefaultContribution < 0 {
		opts.DefaultContribution = DefaultAnnualContribution
	}

	return &Engine{
		opts:        opts,
		assumptions: assumptions,
		log:         logger.Get().With("component", "calculator_engine"),
	}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// Assumptions returns the live assumption set
func (e *Engine) Assumptions() *AssumptionSet {
	return e.assumptions
}

// Run executes a plan. Missing fields from every required step are collected,
// deduplicated in plan order, and returned as one InsufficientDataError along
// with whatever results were produced.
func (e *Engine) Run(ctx context.Context, in Input, steps []Step) (*Results, error) {
	results := &Results{}
	var fields []string
	seen := make(map[string]bool)

	for _, step := range steps {
		r, err := e.Compute(ctx, step.Kind, in)
		if err != nil {
			var insufficient *InsufficientDataError
			if !errors.As(err, &insufficient) {
				return results, errors.Wrapf(err, "calculate %s", step.Kind)
			}
			if !step.Required {
				e.log.Debugw("Skipping optional calculation",
					"calculator", step.Kind,
					"missing", insufficient.Fields,
				)
				continue
			}
			for _, f := range insufficient.Fields {
				if !seen[f] {
					seen[f] = true
					fields = append(fields, f)
				}
			}
			continue
		}
		if err := results.Set(r); err != nil {
			return results, err
		}
	}

	if len(fields) > 0 {
		return results, &InsufficientDataError{Fields: fields}
	}
	return results, nil
}

// Compute runs a single calculator against the profile
func (e *Engine) Compute(ctx context.Context, kind Kind, in Input) (Result, error) {
	p := in.Profile
	if p == nil {
		p = &profile.ClientProfile{}
	}

	switch kind {
	case KindPortfolioValue:
		if !p.HasPortfolio() {
			return nil, missing(kind, "accounts")
		}
		return ComputePortfolioValue(p), nil

	case KindAssetAllocation:
		return ComputeAssetAllocation(p, e.assumptions), nil

	case KindRetirementReadiness:
		inputs, err := e.readinessInputs(p)
		if err != nil {
			return nil, err
		}
		return ComputeReadiness(inputs), nil

	case KindMonteCarloSuccess:
		params, err := e.SimulationParams(p, in.Seed)
		if err != nil {
			return nil, err
		}
		return Simulate(ctx, params)

	case KindRMD:
		if p.CurrentAge == nil {
			return nil, missing(kind, "current_age")
		}
		if !p.HasPortfolio() {
			return nil, missing(kind, "accounts")
		}
		return ComputeRMD(*p.CurrentAge, taxDeferredBalance(p), e.opts.RMDStartAge), nil

	case KindSafeWithdrawal:
		if !p.HasPortfolio() {
			return nil, missing(kind, "accounts")
		}
		return ComputeSafeWithdrawal(p.PortfolioBalance(), e.opts.SafeWithdrawalRate, e.retirementYears(p)), nil

	case KindSocialSecurityBenefit:
		if p.SocialSecurityBenefit == nil {
			return nil, missing(kind, "social_security_benefit")
		}
		return ComputeSocialSecurity(*p.SocialSecurityBenefit, claimingAge(p), profile.Int(p.FullRetirementAge)), nil

	case KindContributionLimits:
		accounts := make(map[string]bool)
		for _, a := range p.Accounts {
			accounts[profile.NormalizeAccountType(a.Type)] = true
		}
		return ComputeContributionLimits(LimitsInput{
			Age:           profile.Int(p.CurrentAge),
			AgeKnown:      p.CurrentAge != nil,
			Contributions: p.ContributionsByType(),
			Accounts:      accounts,
		}), nil

	case KindDebtStrategyComparison:
		var fields []string
		if len(p.Debts) == 0 {
			fields = append(fields, "debts")
		}
		if p.MonthlyPayment == nil {
			fields = append(fields, "monthly_payment")
		}
		if len(fields) > 0 {
			return nil, missing(kind, fields...)
		}
		return CompareDebtStrategies(p.Debts, *p.MonthlyPayment, e.opts.AvalancheSpread), nil

	case KindAmortizationSchedule:
		loan := p.StudentLoan
		if loan == nil {
			return nil, missing(kind, "student_loan")
		}
		schedule := AmortizeYears(loan.Balance, loan.InterestRate, loan.TermYears)
		schedule.LoanType = loan.LoanType
		schedule.RepaymentPlan = normalizePlan(loan.RepaymentPlan)
		if income, ok := p.AnnualIncome(); ok {
			schedule.WithIDR(income, max(profile.Int(p.HouseholdSize), 1))
		}
		return schedule, nil

	case KindBudgetAllocation:
		income, ok := p.MonthlyGrossIncome()
		if !ok {
			return nil, missing(kind, "monthly_income")
		}
		return ComputeBudget(income, p.Expenses, in.Entities["framework"]), nil

	case KindGoalTimeline:
		if len(p.Goals) == 0 {
			return nil, missing(kind, "goals")
		}
		return ComputeGoalTimeline(p.Goals), nil

	default:
		return nil, errors.Wrapf(errors.ErrUnknownCalculator, "%q", kind)
	}
}

// SimulationParams resolves Monte Carlo inputs from a profile. The starting
// balance is the projected balance at retirement; the withdrawal is the
// stated annual withdrawal, else the target income less guaranteed income.
func (e *Engine) SimulationParams(p *profile.ClientProfile, seed uint64) (SimulationParams, error) {
	dist := e.returnDistribution(p)

	balance := p.PortfolioBalance()
	if years, ok := p.YearsToRetirement(); ok && years > 0 {
		contribution, _ := e.annualContribution(p)
		balance = ProjectBalance(balance, contribution, dist.Mean, years)
	}

	var withdrawal float64
	switch {
	case p.AnnualWithdrawal != nil:
		withdrawal = *p.AnnualWithdrawal
	case p.TargetRetirementIncome != nil:
		withdrawal = *p.TargetRetirementIncome - e.guaranteedIncome(p)
		if withdrawal < 0 {
			withdrawal = 0
		}
	default:
		return SimulationParams{}, missing(KindMonteCarloSuccess, "target_retirement_income")
	}

	return SimulationParams{
		InitialBalance:   balance,
		AnnualWithdrawal: withdrawal,
		Years:            e.retirementYears(p),
		MeanReturn:       dist.Mean,
		StdDev:           dist.StdDev,
		InflationRate:    e.opts.InflationRate,
		Trials:           e.opts.Trials,
		Seed:             seed,
		Workers:          e.opts.Workers,
	}, nil
}

func (e *Engine) readinessInputs(p *profile.ClientProfile) (ReadinessInputs, error) {
	var fields []string
	years, ok := p.YearsToRetirement()
	if !ok {
		fields = append(fields, "years_until_retirement")
	}
	if p.TargetRetirementIncome == nil {
		fields = append(fields, "target_retirement_income")
	}
	if len(fields) > 0 {
		return ReadinessInputs{}, missing(KindRetirementReadiness, fields...)
	}

	contribution, assumed := e.annualContribution(p)
	ss := 0.0
	if p.SocialSecurityBenefit != nil {
		ss = ComputeSocialSecurity(*p.SocialSecurityBenefit, claimingAge(p), profile.Int(p.FullRetirementAge)).AnnualBenefit
	}

	return ReadinessInputs{
		CurrentBalance:       p.PortfolioBalance(),
		AnnualContribution:   contribution,
		ContributionAssumed:  assumed,
		ExpectedReturn:       e.returnDistribution(p).Mean,
		YearsToRetirement:    years,
		TargetIncome:         *p.TargetRetirementIncome,
		SocialSecurityIncome: ss,
		PensionIncome:        profile.Float(p.PensionIncome),
		SafeWithdrawalRate:   e.opts.SafeWithdrawalRate,
	}, nil
}

// annualContribution prefers the stated total, then per-account
// contributions, then the configured default
func (e *Engine) annualContribution(p *profile.ClientProfile) (float64, bool) {
	if p.AnnualContribution != nil {
		return *p.AnnualContribution, false
	}
	var total float64
	for _, a := range p.Accounts {
		total += a.AnnualContribution
	}
	if total > 0 {
		return total, false
	}
	return e.opts.DefaultContribution, true
}

// returnDistribution uses the profile's own history when it has enough
// observations, otherwise the blended asset-class assumptions
func (e *Engine) returnDistribution(p *profile.ClientProfile) ReturnAssumption {
	if len(p.HistoricalReturns) >= MinReturnObservations {
		decimals := make([]float64, len(p.HistoricalReturns))
		for i, r := range p.HistoricalReturns {
			decimals[i] = r / 100
		}
		if stats, err := ReturnStats(decimals, e.opts.ReturnWindow); err == nil {
			return stats
		}
	}
	alloc := ComputeAssetAllocation(p, e.assumptions)
	return ReturnAssumption{Mean: alloc.ExpectedReturn, StdDev: alloc.Volatility}
}

func (e *Engine) guaranteedIncome(p *profile.ClientProfile) float64 {
	income := profile.Float(p.PensionIncome)
	if p.SocialSecurityBenefit != nil {
		income += ComputeSocialSecurity(*p.SocialSecurityBenefit, claimingAge(p), profile.Int(p.FullRetirementAge)).AnnualBenefit
	}
	return income
}

// retirementYears is life expectancy less retirement age when both are
// known, otherwise the configured horizon
func (e *Engine) retirementYears(p *profile.ClientProfile) int {
	if p.LifeExpectancy != nil {
		retireAge := 0
		switch {
		case p.RetirementAge != nil:
			retireAge = *p.RetirementAge
		case p.CurrentAge != nil:
			years, _ := p.YearsToRetirement()
			retireAge = *p.CurrentAge + years
		}
		if retireAge > 0 && *p.LifeExpectancy > retireAge {
			return *p.LifeExpectancy - retireAge
		}
	}
	return e.opts.RetirementYears
}

// claimingAge is the stated claiming age, else the retirement age, else FRA
func claimingAge(p *profile.ClientProfile) int {
	switch {
	case p.ClaimingAge != nil:
		return *p.ClaimingAge
	case p.RetirementAge != nil:
		return *p.RetirementAge
	case p.CurrentAge != nil && p.YearsUntilRetirement != nil:
		return *p.CurrentAge + *p.YearsUntilRetirement
	}
	return profile.Int(p.FullRetirementAge)
}

// taxDeferredBalance sums pre-tax accounts, falling back to the whole portfolio
func taxDeferredBalance(p *profile.ClientProfile) float64 {
	var total float64
	var found bool
	for _, a := range p.Accounts {
		switch profile.NormalizeAccountType(a.Type) {
		case "401k", "403b", "ira":
			total += a.Value()
			found = true
		}
	}
	if !found {
		return p.PortfolioBalance()
	}
	return total
}
