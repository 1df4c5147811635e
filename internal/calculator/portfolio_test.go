package calculator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/domain/profile"
	"finadvisor/pkg/errors"
)

func sumPercents(slices []AllocationSlice) float64 {
	var total float64
	for _, s := range slices {
		total += s.Percent
	}
	return total
}

func TestComputePortfolioValue(t *testing.T) {
	p := &profile.ClientProfile{
		Accounts: []profile.Account{
			{Name: "Work 401(k)", Type: "401(k)", Positions: []profile.Position{
				{Symbol: "VTI", AssetClass: "equity", Quantity: 10, Price: 600},
				{Symbol: "BND", AssetClass: "bonds", Quantity: 40, Price: 75},
			}},
			{Name: "Savings", Type: "taxable", Balance: 1000, Positions: []profile.Position{
				{Symbol: "CASH", AssetClass: "cash", Quantity: 1000, Price: 1},
			}},
		},
	}

	res := ComputePortfolioValue(p)
	require.True(t, res.Applicable())
	assert.Equal(t, 10000.0, res.Total)
	assert.Equal(t, "401k", res.Accounts[0].Type)
	assert.Equal(t, 9000.0, res.Accounts[0].Value)
	assert.Equal(t, 6000.0, res.ByAssetClass["equity"])
	assert.Equal(t, 3000.0, res.ByAssetClass["bonds"])
	assert.Equal(t, 1000.0, res.ByAssetClass["cash"])
}

func TestComputePortfolioValue_Empty(t *testing.T) {
	res := ComputePortfolioValue(&profile.ClientProfile{})
	assert.False(t, res.Applicable())
}

func TestComputeAssetAllocation_SumsToHundred(t *testing.T) {
	tests := []struct {
		name      string
		positions []profile.Position
	}{
		{"even split", []profile.Position{
			{AssetClass: "equity", Quantity: 1, Price: 6000},
			{AssetClass: "bonds", Quantity: 1, Price: 3000},
			{AssetClass: "cash", Quantity: 1, Price: 1000},
		}},
		{"thirds", []profile.Position{
			{AssetClass: "equity", Quantity: 1, Price: 1},
			{AssetClass: "bonds", Quantity: 1, Price: 1},
			{AssetClass: "real_estate", Quantity: 1, Price: 1},
		}},
		{"sevenths", []profile.Position{
			{AssetClass: "equity", Quantity: 3, Price: 1},
			{AssetClass: "bonds", Quantity: 3, Price: 1},
			{AssetClass: "reit", Quantity: 1, Price: 1},
		}},
		{"single class", []profile.Position{
			{AssetClass: "stock", Quantity: 13, Price: 7.77},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &profile.ClientProfile{Accounts: []profile.Account{{Name: "a", Type: "ira", Positions: tt.positions}}}
			res := ComputeAssetAllocation(p, NewAssumptionSet())
			require.NotEmpty(t, res.Slices)
			assert.False(t, res.Defaulted)
			assert.InDelta(t, 100.0, sumPercents(res.Slices), PercentEpsilon)
		})
	}
}

func TestComputeAssetAllocation_Values(t *testing.T) {
	p := &profile.ClientProfile{Accounts: []profile.Account{{Name: "a", Type: "ira", Positions: []profile.Position{
		{AssetClass: "equity", Quantity: 1, Price: 6000},
		{AssetClass: "bonds", Quantity: 1, Price: 4000},
	}}}}

	res := ComputeAssetAllocation(p, NewAssumptionSet())
	assert.Equal(t, 60.0, res.EquityPercent)
	assert.Equal(t, 10000.0, res.Total)
	assert.InDelta(t, 0.058, res.ExpectedReturn, 1e-9)
	assert.InDelta(t, 0.109836, res.Volatility, 1e-6)
}

func TestComputeAssetAllocation_DefaultsWhenEmpty(t *testing.T) {
	res := ComputeAssetAllocation(&profile.ClientProfile{}, NewAssumptionSet())

	assert.True(t, res.Defaulted)
	assert.NotEmpty(t, res.Note)
	assert.Equal(t, 60.0, res.EquityPercent)
	assert.InDelta(t, 100.0, sumPercents(res.Slices), PercentEpsilon)
	assert.Equal(t, 0.0, res.Total)
}

func TestComputeAssetAllocation_BalanceOnlyAccountsFollowDefault(t *testing.T) {
	p := &profile.ClientProfile{CurrentSavings: profile.FloatPtr(50000)}

	res := ComputeAssetAllocation(p, NewAssumptionSet())
	assert.False(t, res.Defaulted)
	assert.Equal(t, 60.0, res.EquityPercent)
	assert.Equal(t, 50000.0, res.Total)
}

func TestPercentShares(t *testing.T) {
	assert.Nil(t, percentShares(nil))
	assert.Nil(t, percentShares([]float64{0, 0}))

	shares := percentShares([]float64{1, 1, 1})
	assert.Equal(t, []float64{33.34, 33.33, 33.33}, shares)
}

func TestAssumptionSet_ConcurrentUpdate(t *testing.T) {
	set := NewAssumptionSet()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			set.Update(ClassEquity, ReturnAssumption{Mean: 0.05 + float64(i)/100, StdDev: 0.15})
		}(i)
		go func() {
			defer wg.Done()
			_ = set.Blend(DefaultAllocation())
		}()
	}
	wg.Wait()

	assert.Equal(t, 0.15, set.Get(ClassEquity).StdDev)
	assert.Len(t, set.Snapshot(), len(AssetClasses()))
}

func TestParseAssetClass(t *testing.T) {
	assert.Equal(t, ClassBonds, ParseAssetClass("Fixed Income"))
	assert.Equal(t, ClassRealEstate, ParseAssetClass("REIT"))
	assert.Equal(t, ClassCash, ParseAssetClass("money market"))
	assert.Equal(t, ClassEquity, ParseAssetClass("crypto"))
}

func TestReturnStats(t *testing.T) {
	stats, err := ReturnStats([]float64{0.1, 0.2, 0.3}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, stats.Mean, 1e-9)
	assert.InDelta(t, 0.0816497, stats.StdDev, 1e-6)

	windowed, err := ReturnStats([]float64{-0.5, 0.1, 0.3}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, windowed.Mean, 1e-9)
	assert.InDelta(t, 0.1, windowed.StdDev, 1e-6)

	_, err = ReturnStats([]float64{0.1}, 0)
	assert.True(t, errors.Is(err, errors.ErrInsufficientData))
}
