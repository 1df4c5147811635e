package calculator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() SimulationParams {
	return SimulationParams{
		InitialBalance:   1_000_000,
		AnnualWithdrawal: 45_000,
		Years:            30,
		MeanReturn:       0.06,
		StdDev:           0.12,
		InflationRate:    0.03,
		Trials:           2000,
		Seed:             42,
		Workers:          1,
	}
}

func TestSimulate_ReproducibleForFixedSeed(t *testing.T) {
	ctx := context.Background()

	first, err := Simulate(ctx, baseParams())
	require.NoError(t, err)
	second, err := Simulate(ctx, baseParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Greater(t, first.SuccessProbability, 0.0)
	assert.Less(t, first.SuccessProbability, 1.0)
}

func TestSimulate_SequentialMatchesParallel(t *testing.T) {
	ctx := context.Background()

	sequential, err := Simulate(ctx, baseParams())
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 8, 16} {
		p := baseParams()
		p.Workers = workers
		parallel, err := Simulate(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestSimulate_DifferentSeedsDiffer(t *testing.T) {
	ctx := context.Background()

	a, err := Simulate(ctx, baseParams())
	require.NoError(t, err)

	p := baseParams()
	p.Seed = 7
	b, err := Simulate(ctx, p)
	require.NoError(t, err)

	assert.NotEqual(t, a.MedianFinalBalance, b.MedianFinalBalance)
}

func TestSimulate_MonotonicInWithdrawal(t *testing.T) {
	ctx := context.Background()

	prev := 1.1
	for w := 0.0; w <= 120_000; w += 10_000 {
		p := baseParams()
		p.AnnualWithdrawal = w
		res, err := Simulate(ctx, p)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.SuccessProbability, prev, "withdrawal=%.0f", w)
		prev = res.SuccessProbability
	}
}

func TestSimulate_ZeroStdDevIsDeterministic(t *testing.T) {
	ctx := context.Background()

	p := baseParams()
	p.StdDev = 0
	p.MeanReturn = 0
	p.InflationRate = 0
	p.AnnualWithdrawal = 30_000
	p.Years = 30

	res, err := Simulate(ctx, p)
	require.NoError(t, err)
	assert.True(t, res.Deterministic)
	assert.Equal(t, 1.0, res.SuccessProbability)
	assert.Equal(t, p.Trials, res.SuccessfulTrials)
	assert.InDelta(t, 100_000, res.MedianFinalBalance, 0.01)

	// 1,000,000 / 40,000 is exactly 25 years; the 25th withdrawal empties the balance
	p.AnnualWithdrawal = 40_000
	res, err = Simulate(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.SuccessProbability)
	assert.Equal(t, 24.0, res.AverageYearsLasted)
}

func TestSimulate_WithdrawalAtLeastBalance(t *testing.T) {
	ctx := context.Background()

	for _, w := range []float64{1_000_000, 2_000_000} {
		p := baseParams()
		p.AnnualWithdrawal = w
		res, err := Simulate(ctx, p)
		require.NoError(t, err)
		assert.True(t, res.Applicable())
		assert.Equal(t, 0.0, res.SuccessProbability)
	}

	p := baseParams()
	p.InitialBalance = 0
	p.AnnualWithdrawal = 10_000
	res, err := Simulate(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.SuccessProbability)
}

func TestSimulate_NotApplicable(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SimulationParams)
	}{
		{"negative balance", func(p *SimulationParams) { p.InitialBalance = -1 }},
		{"negative withdrawal", func(p *SimulationParams) { p.AnnualWithdrawal = -1 }},
		{"no years", func(p *SimulationParams) { p.Years = 0 }},
		{"horizon past maximum", func(p *SimulationParams) { p.Years = MaxYears + 1 }},
		{"huge horizon", func(p *SimulationParams) { p.Years = 2_000_000 }},
		{"negative std dev", func(p *SimulationParams) { p.StdDev = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			res, err := Simulate(ctx, p)
			require.NoError(t, err)
			assert.False(t, res.Applicable())
			assert.NotEmpty(t, res.Note)
		})
	}
}

func TestSimulate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := baseParams()
	p.Workers = 4
	_, err := Simulate(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulate_StopsAtDeadline(t *testing.T) {
	for _, workers := range []int{1, 4} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)

		p := baseParams()
		p.AnnualWithdrawal = 1
		p.Years = MaxYears
		p.Trials = MaxTrials
		p.Workers = workers

		start := time.Now()
		res, err := Simulate(ctx, p)
		elapsed := time.Since(start)
		cancel()

		assert.Less(t, elapsed, time.Second, "workers=%d", workers)
		if err != nil {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		} else {
			assert.Equal(t, MaxYears, res.Years)
		}
	}
}

func TestClampTrials(t *testing.T) {
	assert.Equal(t, DefaultTrials, ClampTrials(0))
	assert.Equal(t, DefaultTrials, ClampTrials(-5))
	assert.Equal(t, 500, ClampTrials(500))
	assert.Equal(t, MaxTrials, ClampTrials(MaxTrials+1))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, percentile(sorted, 0.5))
	assert.InDelta(t, 1.4, percentile(sorted, 0.1), 1e-9)
	assert.Equal(t, 0.0, percentile(nil, 0.5))
}
