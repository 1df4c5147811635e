package calculator

const (
	SSMinClaimAge            = 62
	SSMaxClaimAge            = 70
	DefaultFullRetirementAge = 67

	// Reduction per month claimed early: 5/9 of 1% for the first 36 months,
	// 5/12 of 1% beyond that. Credit per month delayed: 2/3 of 1%.
	ssEarlyReductionFirst36 = 5.0 / 9.0 / 100
	ssEarlyReductionBeyond  = 5.0 / 12.0 / 100
	ssDelayedCredit         = 2.0 / 3.0 / 100
)

// SocialSecurityBenefit scales a full-retirement-age benefit to a claim age.
// Amounts are annual unless named monthly.
type SocialSecurityBenefit struct {
	Status
	FullRetirementAge int     `json:"full_retirement_age"`
	RequestedAge      int     `json:"requested_age"`
	ClaimingAge       int     `json:"claiming_age"`
	Clamped           bool    `json:"clamped"`
	BenefitAtFRA      float64 `json:"benefit_at_fra"`
	AnnualBenefit     float64 `json:"annual_benefit"`
	MonthlyBenefit    float64 `json:"monthly_benefit"`
	AdjustmentPercent float64 `json:"adjustment_percent"`
	BenefitAt62       float64 `json:"benefit_at_62"`
	BenefitAt70       float64 `json:"benefit_at_70"`
	BreakEvenAge      float64 `json:"break_even_age"`
}

// ClaimFactor returns the multiplier applied to the FRA benefit at claimAge
func ClaimFactor(claimAge, fullRetirementAge int) float64 {
	months := (claimAge - fullRetirementAge) * 12
	switch {
	case months < 0:
		early := -months
		first := min(early, 36)
		rest := early - first
		return 1 - float64(first)*ssEarlyReductionFirst36 - float64(rest)*ssEarlyReductionBeyond
	case months > 0:
		delayed := min(claimAge, SSMaxClaimAge) - fullRetirementAge
		return 1 + float64(max(delayed, 0)*12)*ssDelayedCredit
	}
	return 1
}

// ComputeSocialSecurity applies early-claim reductions or delayed credits.
// The claim age is clamped to [62, 70].
func ComputeSocialSecurity(benefitAtFRA float64, claimAge, fullRetirementAge int) *SocialSecurityBenefit {
	if fullRetirementAge <= 0 {
		fullRetirementAge = DefaultFullRetirementAge
	}
	if claimAge <= 0 {
		claimAge = fullRetirementAge
	}

	clamped := min(max(claimAge, SSMinClaimAge), SSMaxClaimAge)
	out := &SocialSecurityBenefit{
		FullRetirementAge: fullRetirementAge,
		RequestedAge:      claimAge,
		ClaimingAge:       clamped,
		Clamped:           clamped != claimAge,
		BenefitAtFRA:      roundMoney(benefitAtFRA),
	}

	if benefitAtFRA < 0 {
		out.Status = notApplicable("benefit cannot be negative")
		return out
	}

	factor := ClaimFactor(clamped, fullRetirementAge)
	annual := benefitAtFRA * factor
	out.AnnualBenefit = roundMoney(annual)
	out.MonthlyBenefit = roundMoney(annual / 12)
	out.AdjustmentPercent = roundTo((factor-1)*100, 1)

	at62 := benefitAtFRA * ClaimFactor(SSMinClaimAge, fullRetirementAge)
	at70 := benefitAtFRA * ClaimFactor(SSMaxClaimAge, fullRetirementAge)
	out.BenefitAt62 = roundMoney(at62)
	out.BenefitAt70 = roundMoney(at70)

	// Cumulative benefits from 70 catch up with those from 62 at this age
	if at70 > at62 {
		breakEven := (SSMaxClaimAge*at70 - SSMinClaimAge*at62) / (at70 - at62)
		out.BreakEvenAge = roundTo(breakEven, 1)
	}
	return out
}
