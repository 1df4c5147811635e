package calculator

// Annual contribution limits
const (
	Limit401k         = 23000
	CatchUp401k       = 7500
	LimitIRA          = 7000
	CatchUpIRA        = 1000
	LimitHSA          = 4150
	CatchUpHSA        = 1000
	CatchUpAge        = 50
	HSACatchUpAge     = 55
	RothIncomeCeiling = 100000
)

// ContributionLimit is the headroom in one account family
type ContributionLimit struct {
	AccountType    string  `json:"account_type"`
	Limit          float64 `json:"limit"`
	CatchUp        float64 `json:"catch_up"`
	Contributed    float64 `json:"contributed"`
	Remaining      float64 `json:"remaining"`
	PercentOfLimit float64 `json:"percent_of_limit"`
	HasAccount     bool    `json:"has_account"`
}

// ContributionLimits compares current contributions with annual limits
type ContributionLimits struct {
	Status
	Age             int                 `json:"age,omitempty"`
	AgeKnown        bool                `json:"age_known"`
	CatchUpEligible bool                `json:"catch_up_eligible"`
	Limits          []ContributionLimit `json:"limits"`
	TotalRemaining  float64             `json:"total_remaining"`
}

// Limit returns the entry for an account family (401k, ira, hsa)
func (c *ContributionLimits) Limit(accountType string) (ContributionLimit, bool) {
	for _, l := range c.Limits {
		if l.AccountType == accountType {
			return l, true
		}
	}
	return ContributionLimit{}, false
}

// LimitsInput carries contributions per normalized account type
type LimitsInput struct {
	Age           int
	AgeKnown      bool
	Contributions map[string]float64
	Accounts      map[string]bool
}

// ComputeContributionLimits reports remaining room for 401(k)/403(b), IRA and HSA.
// Without an age no catch-up allowance is assumed.
func ComputeContributionLimits(in LimitsInput) *ContributionLimits {
	out := &ContributionLimits{
		Age:             in.Age,
		AgeKnown:        in.AgeKnown,
		CatchUpEligible: in.AgeKnown && in.Age >= CatchUpAge,
	}
	if !in.AgeKnown {
		out.Note = "age not provided; catch-up allowances not included"
	}

	families := []struct {
		name         string
		limit        float64
		catchUp      float64
		catchUpAge   int
		accountTypes []string
	}{
		{"401k", Limit401k, CatchUp401k, CatchUpAge, []string{"401k", "403b"}},
		{"ira", LimitIRA, CatchUpIRA, CatchUpAge, []string{"ira", "roth_ira"}},
		{"hsa", LimitHSA, CatchUpHSA, HSACatchUpAge, []string{"hsa"}},
	}

	for _, f := range families {
		var contributed float64
		var has bool
		for _, t := range f.accountTypes {
			contributed += in.Contributions[t]
			has = has || in.Accounts[t]
		}

		catchUp := 0.0
		if in.AgeKnown && in.Age >= f.catchUpAge {
			catchUp = f.catchUp
		}
		limit := f.limit + catchUp
		remaining := max(limit-contributed, 0)

		out.Limits = append(out.Limits, ContributionLimit{
			AccountType:    f.name,
			Limit:          limit,
			CatchUp:        catchUp,
			Contributed:    roundMoney(contributed),
			Remaining:      roundMoney(remaining),
			PercentOfLimit: roundTo(contributed/limit*100, 1),
			HasAccount:     has,
		})
		out.TotalRemaining += remaining
	}
	out.TotalRemaining = roundMoney(out.TotalRemaining)
	return out
}
