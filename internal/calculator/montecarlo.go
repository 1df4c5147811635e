package calculator

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
)

const (
	// DefaultTrials is used when no trial count is configured
	DefaultTrials = 1000

	// MaxTrials bounds every simulation; larger requests are clamped
	MaxTrials = 10000

	// MaxYears bounds the simulated horizon; longer horizons are not applicable
	MaxYears = 100

	// trialBatchSize is the unit of parallel work. It is fixed so that the
	// set of trials, and therefore the result, does not depend on Workers.
	trialBatchSize = 250
)

// SimulationParams configures one Monte Carlo run. Rates are decimals.
type SimulationParams struct {
	InitialBalance   float64
	AnnualWithdrawal float64
	Years            int
	MeanReturn       float64
	StdDev           float64
	InflationRate    float64
	Trials           int
	Seed             uint64
	Workers          int
}

// MonteCarloSuccess reports how often the portfolio survived the horizon.
// Each simulated year withdraws at the start of the year, then applies that
// year's return to what is left (withdraw-then-grow). A trial fails in the
// first year the balance is at or below zero after a withdrawal.
type MonteCarloSuccess struct {
	Status
	SuccessProbability float64 `json:"success_probability"`
	Trials             int     `json:"trials"`
	SuccessfulTrials   int     `json:"successful_trials"`
	InitialBalance     float64 `json:"initial_balance"`
	AnnualWithdrawal   float64 `json:"annual_withdrawal"`
	Years              int     `json:"years"`
	MeanReturn         float64 `json:"mean_return"`
	StdDev             float64 `json:"std_dev"`
	InflationRate      float64 `json:"inflation_rate"`
	Seed               uint64  `json:"seed"`
	MedianFinalBalance float64 `json:"median_final_balance"`
	P10FinalBalance    float64 `json:"p10_final_balance"`
	P90FinalBalance    float64 `json:"p90_final_balance"`
	AverageYearsLasted float64 `json:"average_years_lasted"`
	Deterministic      bool    `json:"deterministic"`
}

// SuccessPercent returns the probability as 0..100
func (m *MonteCarloSuccess) SuccessPercent() float64 {
	return m.SuccessProbability * 100
}

type trialOutcome struct {
	final       float64
	yearsLasted int
	survived    bool
}

// ClampTrials bounds a requested trial count to [1, MaxTrials]; zero means DefaultTrials
func ClampTrials(n int) int {
	switch {
	case n <= 0:
		return DefaultTrials
	case n > MaxTrials:
		return MaxTrials
	}
	return n
}

// Simulate runs the Monte Carlo success-probability model. Every trial draws
// from its own generator seeded with (Seed, trial index), so a fixed seed gives
// identical output whether trials run sequentially or across workers.
func Simulate(ctx context.Context, p SimulationParams) (*MonteCarloSuccess, error) {
	p.Trials = ClampTrials(p.Trials)

	out := &MonteCarloSuccess{
		Trials:           p.Trials,
		InitialBalance:   roundMoney(p.InitialBalance),
		AnnualWithdrawal: roundMoney(p.AnnualWithdrawal),
		Years:            p.Years,
		MeanReturn:       p.MeanReturn,
		StdDev:           p.StdDev,
		InflationRate:    p.InflationRate,
		Seed:             p.Seed,
	}

	switch {
	case p.InitialBalance < 0 || p.AnnualWithdrawal < 0:
		out.Status = notApplicable("balance and withdrawal must be non-negative")
		return out, nil
	case p.Years <= 0:
		out.Status = notApplicable("no years in retirement to simulate")
		return out, nil
	case p.Years > MaxYears:
		out.Status = notApplicable("a %d-year horizon is longer than the %d years that can be simulated", p.Years, MaxYears)
		return out, nil
	case p.StdDev < 0 || math.IsNaN(p.StdDev) || math.IsNaN(p.MeanReturn):
		out.Status = notApplicable("return distribution is undefined")
		return out, nil
	}

	if p.AnnualWithdrawal > 0 && p.AnnualWithdrawal >= p.InitialBalance {
		// Depleted by the first withdrawal in every trial
		out.SuccessProbability = 0
		return out, nil
	}

	if p.StdDev == 0 {
		o := runTrial(p, nil)
		out.Deterministic = true
		if o.survived {
			out.SuccessfulTrials = p.Trials
			out.SuccessProbability = 1
		}
		out.MedianFinalBalance = roundMoney(o.final)
		out.P10FinalBalance = out.MedianFinalBalance
		out.P90FinalBalance = out.MedianFinalBalance
		out.AverageYearsLasted = float64(o.yearsLasted)
		return out, nil
	}

	outcomes := make([]trialOutcome, p.Trials)
	if err := runBatches(ctx, p, outcomes); err != nil {
		return nil, err
	}

	finals := make([]float64, len(outcomes))
	var yearsTotal int
	for i, o := range outcomes {
		if o.survived {
			out.SuccessfulTrials++
		}
		finals[i] = o.final
		yearsTotal += o.yearsLasted
	}
	sort.Float64s(finals)

	out.SuccessProbability = float64(out.SuccessfulTrials) / float64(p.Trials)
	out.MedianFinalBalance = roundMoney(percentile(finals, 0.50))
	out.P10FinalBalance = roundMoney(percentile(finals, 0.10))
	out.P90FinalBalance = roundMoney(percentile(finals, 0.90))
	out.AverageYearsLasted = roundTo(float64(yearsTotal)/float64(p.Trials), 2)
	return out, nil
}

// runBatches fills outcomes; each batch writes only its own index range
func runBatches(ctx context.Context, p SimulationParams, outcomes []trialOutcome) error {
	batches := (len(outcomes) + trialBatchSize - 1) / trialBatchSize

	runBatch := func(b int) {
		start := b * trialBatchSize
		end := min(start+trialBatchSize, len(outcomes))
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))
			outcomes[i] = runTrial(p, rng)
		}
	}

	if p.Workers <= 1 {
		for b := 0; b < batches; b++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			runBatch(b)
		}
		return ctx.Err()
	}

	sem := make(chan struct{}, p.Workers)
	var wg sync.WaitGroup

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(batch int) {
			defer wg.Done()
			defer func() { <-sem }()
			runBatch(batch)
		}(b)
	}

	wg.Wait()
	return ctx.Err()
}

// runTrial simulates one return sequence; rng == nil means every year earns the mean
func runTrial(p SimulationParams, rng *rand.Rand) trialOutcome {
	balance := p.InitialBalance
	withdrawal := p.AnnualWithdrawal

	for year := 1; year <= p.Years; year++ {
		balance -= withdrawal
		if withdrawal > 0 && balance <= 0 {
			return trialOutcome{final: 0, yearsLasted: year - 1}
		}

		r := p.MeanReturn
		if rng != nil {
			r += p.StdDev * rng.NormFloat64()
		}
		// Losses are capped at the full balance
		r = math.Max(r, -1)

		balance *= 1 + r
		withdrawal *= 1 + p.InflationRate
	}

	return trialOutcome{final: balance, yearsLasted: p.Years, survived: true}
}

// percentile interpolates linearly between closest ranks of a sorted slice
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
