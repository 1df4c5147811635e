package testsupport

import (
	"finadvisor/internal/domain/profile"
)

// ProfileFixture provides builder pattern for creating test client profiles
type ProfileFixture struct {
	p profile.ClientProfile
}

// NewProfileFixture creates a mid-career saver: 45 years old, 20 years to
// retirement, 250000 saved, targeting 90000 a year
func NewProfileFixture() *ProfileFixture {
	return &ProfileFixture{
		p: profile.ClientProfile{
			CurrentAge:             profile.IntPtr(45),
			YearsUntilRetirement:   profile.IntPtr(20),
			TargetRetirementIncome: profile.FloatPtr(90000),
			CurrentSavings:         profile.FloatPtr(250000),
			Income:                 profile.FloatPtr(120000),
		},
	}
}

// WithAge sets the current age
func (f *ProfileFixture) WithAge(age int) *ProfileFixture {
	f.p.CurrentAge = profile.IntPtr(age)
	return f
}

// WithYearsToRetirement sets years until retirement
func (f *ProfileFixture) WithYearsToRetirement(years int) *ProfileFixture {
	f.p.YearsUntilRetirement = profile.IntPtr(years)
	return f
}

// WithTargetIncome sets the target retirement income
func (f *ProfileFixture) WithTargetIncome(v float64) *ProfileFixture {
	f.p.TargetRetirementIncome = profile.FloatPtr(v)
	return f
}

// WithSavings sets current savings
func (f *ProfileFixture) WithSavings(v float64) *ProfileFixture {
	f.p.CurrentSavings = profile.FloatPtr(v)
	return f
}

// WithoutTargetIncome clears the target retirement income
func (f *ProfileFixture) WithoutTargetIncome() *ProfileFixture {
	f.p.TargetRetirementIncome = nil
	return f
}

// WithDebts sets the debt list and total monthly payment
func (f *ProfileFixture) WithDebts(monthlyPayment float64, debts ...profile.Debt) *ProfileFixture {
	f.p.Debts = debts
	f.p.MonthlyPayment = profile.FloatPtr(monthlyPayment)
	return f
}

// WithCardAndCarLoan adds an 18.5% card and a 5.5% car loan paid 500 a month
func (f *ProfileFixture) WithCardAndCarLoan() *ProfileFixture {
	return f.WithDebts(500,
		profile.Debt{Name: "Credit Card", Balance: 5000, InterestRate: 18.5, MinimumPayment: 150, Type: "credit_card"},
		profile.Debt{Name: "Car Loan", Balance: 15000, InterestRate: 5.5, MinimumPayment: 300, Type: "auto"},
	)
}

// Build returns a copy of the profile
func (f *ProfileFixture) Build() *profile.ClientProfile {
	return profile.Merge(nil, &f.p)
}
