package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tolerances shared by calculators
const (
	// BalanceTolerance is the balance below which a debt counts as paid off
	BalanceTolerance = 0.01

	// PercentEpsilon is the allowed drift when percentages must total 100
	PercentEpsilon = 0.01
)

var hundred = decimal.NewFromInt(100)

// roundMoney rounds a currency amount to cents
func roundMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// roundTo rounds to the given number of decimal places
func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// percentShares converts values into percentages of their total, rounded to
// two decimals, with the rounding residue assigned to the largest share so the
// shares total exactly 100. Returns nil when the total is not positive.
func percentShares(values []float64) []float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	if !total.IsPositive() {
		return nil
	}

	shares := make([]decimal.Decimal, len(values))
	sum := decimal.Zero
	largest := 0
	for i, v := range values {
		shares[i] = decimal.NewFromFloat(v).Div(total).Mul(hundred).Round(2)
		sum = sum.Add(shares[i])
		if shares[i].GreaterThan(shares[largest]) {
			largest = i
		}
	}
	shares[largest] = shares[largest].Add(hundred.Sub(sum))

	out := make([]float64, len(shares))
	for i, s := range shares {
		out[i] = s.InexactFloat64()
	}
	return out
}

// sumMoney adds amounts in decimal to avoid float drift in totals
func sumMoney(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
