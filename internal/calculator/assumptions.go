package calculator

import (
	"math"
	"strings"
	"sync"
)

// AssetClass groups positions for allocation and return assumptions
type AssetClass string

const (
	ClassEquity     AssetClass = "equity"
	ClassBonds      AssetClass = "bonds"
	ClassRealEstate AssetClass = "real_estate"
	ClassCash       AssetClass = "cash"
)

// AssetClasses lists classes in display order
func AssetClasses() []AssetClass {
	return []AssetClass{ClassEquity, ClassBonds, ClassRealEstate, ClassCash}
}

// ParseAssetClass maps free-form labels onto a known class; unknown labels count as equity
func ParseAssetClass(s string) AssetClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bond", "bonds", "fixed_income", "fixed income", "treasury", "treasuries":
		return ClassBonds
	case "real_estate", "real estate", "reit", "reits", "property":
		return ClassRealEstate
	case "cash", "money_market", "money market", "savings", "cd":
		return ClassCash
	default:
		return ClassEquity
	}
}

// ReturnAssumption is an annual return distribution as decimals (0.07 = 7%)
type ReturnAssumption struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// DefaultAssumptions are long-run capital market assumptions per class
func DefaultAssumptions() map[AssetClass]ReturnAssumption {
	return map[AssetClass]ReturnAssumption{
		ClassEquity:     {Mean: 0.07, StdDev: 0.18},
		ClassBonds:      {Mean: 0.04, StdDev: 0.05},
		ClassRealEstate: {Mean: 0.06, StdDev: 0.12},
		ClassCash:       {Mean: 0.02, StdDev: 0},
	}
}

// DefaultAllocation is used when a profile carries no position detail
func DefaultAllocation() map[AssetClass]float64 {
	return map[AssetClass]float64{
		ClassEquity: 0.60,
		ClassBonds:  0.40,
	}
}

// AssumptionSet holds the current assumptions; safe for concurrent use.
// The assumptions refresh worker swaps values in while requests read them.
type AssumptionSet struct {
	mu      sync.RWMutex
	byClass map[AssetClass]ReturnAssumption
}

// NewAssumptionSet creates a set seeded with DefaultAssumptions
func NewAssumptionSet() *AssumptionSet {
	return &AssumptionSet{byClass: DefaultAssumptions()}
}

// Get returns the assumption for a class, falling back to the default table
func (s *AssumptionSet) Get(class AssetClass) ReturnAssumption {
	s.mu.RLock()
	a, ok := s.byClass[class]
	s.mu.RUnlock()
	if ok {
		return a
	}
	return DefaultAssumptions()[ClassEquity]
}

// Update replaces the assumption for a class
func (s *AssumptionSet) Update(class AssetClass, a ReturnAssumption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byClass[class] = a
}

// Snapshot copies the current table
func (s *AssumptionSet) Snapshot() map[AssetClass]ReturnAssumption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[AssetClass]ReturnAssumption, len(s.byClass))
	for k, v := range s.byClass {
		out[k] = v
	}
	return out
}

// Blend combines class assumptions by weight (fractions summing to 1).
// Class returns are treated as independent, so volatility is sqrt(Σ (w·σ)²).
func (s *AssumptionSet) Blend(weights map[AssetClass]float64) ReturnAssumption {
	var mean, variance float64
	for _, class := range AssetClasses() {
		w, ok := weights[class]
		if !ok || w == 0 {
			continue
		}
		a := s.Get(class)
		mean += w * a.Mean
		variance += (w * a.StdDev) * (w * a.StdDev)
	}
	return ReturnAssumption{Mean: mean, StdDev: math.Sqrt(variance)}
}
