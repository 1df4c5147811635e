package classifier

// Entity keys carried in ClassificationResult.Entities
const (
	EntityAccountType    = "account_type"
	EntityClaimingAction = "claiming_action"
	EntityBenefitType    = "benefit_type"
	EntityTopic          = "topic"
	EntityMethod         = "method"
	EntityLoanType       = "loan_type"
	EntityPlan           = "plan"
	EntityFramework      = "framework"
	EntityGoalAction     = "goal_action"
)

type entityRule struct {
	key      string
	value    string
	triggers []trigger
}

// entityRules are checked in order; the first value found for a key wins
var entityRules = compileEntityRules([]struct {
	key, value string
	phrases    []string
}{
	{EntityAccountType, "401k", []string{"401k", "401(k)"}},
	{EntityAccountType, "403b", []string{"403b", "403(b)"}},
	{EntityAccountType, "roth_ira", []string{"roth ira", "roth"}},
	{EntityAccountType, "ira", []string{"ira", "traditional ira"}},
	{EntityAccountType, "hsa", []string{"hsa", "health savings"}},

	{EntityClaimingAction, "early", []string{"early", "at 62", "claim early", "sooner"}},
	{EntityClaimingAction, "delay", []string{"delay", "wait until 70", "at 70", "later", "wait"}},

	{EntityBenefitType, "spousal", []string{"spousal", "spouse"}},
	{EntityBenefitType, "survivor", []string{"survivor", "widow", "widower"}},

	{EntityTopic, "roth_conversion", []string{"roth conversion", "convert to roth", "convert to a roth"}},
	{EntityTopic, "rmd", []string{"rmd", "rmds", "required minimum"}},

	{EntityMethod, "avalanche", []string{"avalanche", "highest interest"}},
	{EntityMethod, "snowball", []string{"snowball", "smallest balance"}},

	{EntityLoanType, "federal", []string{"federal"}},
	{EntityLoanType, "private", []string{"private"}},

	{EntityPlan, "pslf", []string{"pslf", "public service"}},
	{EntityPlan, "save", []string{"save plan"}},
	{EntityPlan, "repaye", []string{"repaye"}},
	{EntityPlan, "paye", []string{"paye"}},
	{EntityPlan, "ibr", []string{"ibr", "income-based"}},

	{EntityFramework, "50_30_20", []string{"50/30/20", "50-30-20"}},
	{EntityFramework, "zero_based", []string{"zero-based", "zero based"}},

	{EntityGoalAction, "prioritize", []string{"prioritize", "which goal", "focus on"}},
	{EntityGoalAction, "accelerate", []string{"faster", "accelerate", "sooner", "quicker"}},
	{EntityGoalAction, "create", []string{"set a goal", "set goal", "create goal", "create a goal", "new goal"}},
})

func compileEntityRules(defs []struct {
	key, value string
	phrases    []string
}) []entityRule {
	rules := make([]entityRule, 0, len(defs))
	for _, d := range defs {
		r := entityRule{key: d.key, value: d.value}
		for _, p := range d.phrases {
			if t, ok := compileTrigger(p); ok {
				r.triggers = append(r.triggers, t)
			}
		}
		rules = append(rules, r)
	}
	return rules
}

// ExtractEntities pulls structured hints out of a normalized question
func ExtractEntities(text string, tokens map[string]bool) map[string]string {
	entities := make(map[string]string)
	for _, r := range entityRules {
		if _, done := entities[r.key]; done {
			continue
		}
		for _, t := range r.triggers {
			if t.matches(text, tokens) {
				entities[r.key] = r.value
				break
			}
		}
	}
	return entities
}
