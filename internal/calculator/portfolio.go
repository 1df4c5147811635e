package calculator

import (
	"finadvisor/internal/domain/profile"
)

// AccountValue is one account's contribution to the portfolio
type AccountValue struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// PortfolioValue is the sum of positions × price across accounts
type PortfolioValue struct {
	Status
	Total        float64            `json:"total"`
	Accounts     []AccountValue     `json:"accounts"`
	ByAssetClass map[string]float64 `json:"by_asset_class"`
}

// AllocationSlice is one asset class share; Percent is 0..100
type AllocationSlice struct {
	AssetClass AssetClass `json:"asset_class"`
	Value      float64    `json:"value"`
	Percent    float64    `json:"percent"`
}

// AssetAllocation groups portfolio value by asset class. Percentages total 100.
type AssetAllocation struct {
	Status
	Total          float64           `json:"total"`
	Slices         []AllocationSlice `json:"slices"`
	EquityPercent  float64           `json:"equity_percent"`
	ExpectedReturn float64           `json:"expected_return"`
	Volatility     float64           `json:"volatility"`
	Defaulted      bool              `json:"defaulted"`
}

// Weights returns class weights as fractions summing to 1
func (a *AssetAllocation) Weights() map[AssetClass]float64 {
	out := make(map[AssetClass]float64, len(a.Slices))
	for _, s := range a.Slices {
		out[s.AssetClass] = s.Percent / 100
	}
	return out
}

// classValues splits every account into asset classes. Balances without
// position detail are assumed to follow the default allocation.
func classValues(p *profile.ClientProfile) map[AssetClass]float64 {
	values := make(map[AssetClass]float64)
	for _, a := range p.Accounts {
		if len(a.Positions) == 0 {
			for class, w := range DefaultAllocation() {
				values[class] += a.Balance * w
			}
			continue
		}
		for _, pos := range a.Positions {
			values[ParseAssetClass(pos.AssetClass)] += pos.Value()
		}
	}
	if len(p.Accounts) == 0 && p.CurrentSavings != nil {
		for class, w := range DefaultAllocation() {
			values[class] += *p.CurrentSavings * w
		}
	}
	return values
}

// ComputePortfolioValue totals positions × price by account and asset class
func ComputePortfolioValue(p *profile.ClientProfile) *PortfolioValue {
	out := &PortfolioValue{
		Accounts:     make([]AccountValue, 0, len(p.Accounts)),
		ByAssetClass: make(map[string]float64),
	}

	for _, a := range p.Accounts {
		v := a.Value()
		if v < 0 {
			return &PortfolioValue{Status: notApplicable("account %q has a negative value", a.Name)}
		}
		out.Accounts = append(out.Accounts, AccountValue{
			Name:  a.Name,
			Type:  profile.NormalizeAccountType(a.Type),
			Value: roundMoney(v),
		})
	}

	for class, v := range classValues(p) {
		out.ByAssetClass[string(class)] = roundMoney(v)
	}
	out.Total = roundMoney(p.PortfolioBalance())

	if !p.HasPortfolio() {
		out.Status = notApplicable("no account balances were provided")
	}
	return out
}

// ComputeAssetAllocation derives class percentages and the blended return
// distribution. An empty portfolio yields the default allocation, flagged.
func ComputeAssetAllocation(p *profile.ClientProfile, assumptions *AssumptionSet) *AssetAllocation {
	values := classValues(p)

	classes := make([]AssetClass, 0, len(values))
	amounts := make([]float64, 0, len(values))
	for _, class := range AssetClasses() {
		if v, ok := values[class]; ok && v > 0 {
			classes = append(classes, class)
			amounts = append(amounts, v)
		}
	}

	out := &AssetAllocation{}
	shares := percentShares(amounts)
	if shares == nil {
		out.Defaulted = true
		classes = classes[:0]
		amounts = amounts[:0]
		for _, class := range AssetClasses() {
			if w, ok := DefaultAllocation()[class]; ok {
				classes = append(classes, class)
				amounts = append(amounts, w)
			}
		}
		shares = percentShares(amounts)
	}

	var total float64
	for i, class := range classes {
		value := amounts[i]
		if out.Defaulted {
			value = 0
		}
		total += value
		out.Slices = append(out.Slices, AllocationSlice{
			AssetClass: class,
			Value:      roundMoney(value),
			Percent:    shares[i],
		})
		if class == ClassEquity {
			out.EquityPercent = shares[i]
		}
	}
	out.Total = roundMoney(total)

	blend := assumptions.Blend(out.Weights())
	out.ExpectedReturn = roundTo(blend.Mean, 6)
	out.Volatility = roundTo(blend.StdDev, 6)

	if out.Defaulted {
		out.Note = "no holdings provided; using a 60/40 equity/bond allocation"
	}
	return out
}
