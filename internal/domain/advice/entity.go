package advice

// ClassificationResult is the classifier's verdict for a single question
type ClassificationResult struct {
	Domain          Domain            `json:"domain"`
	Intent          Intent            `json:"intent"`
	Confidence      float64           `json:"confidence"`
	Score           float64           `json:"score"`
	MatchedKeywords []string          `json:"matched_keywords"`
	Entities        map[string]string `json:"entities,omitempty"`
	Question        string            `json:"question"`
}

// IsFallback reports whether no intent cleared the minimum score
func (c ClassificationResult) IsFallback() bool {
	return c.Intent == IntentGeneral
}

// Recommendation is a single ranked piece of advice; Priority 1 is shown first
type Recommendation struct {
	Priority  int    `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
	Category  Intent `json:"category"`
	RuleID    string `json:"rule_id"`
}

// Priority levels used by rule tables
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// PriorityLabel names a priority rank for display
func PriorityLabel(p int) string {
	switch {
	case p <= PriorityCritical:
		return "Critical"
	case p == PriorityHigh:
		return "High"
	case p == PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// LifeStage is derived from age and years until retirement
type LifeStage string

const (
	StageUnknown       LifeStage = "unknown"
	StageEarlyCareer   LifeStage = "early_career"
	StageMidCareer     LifeStage = "mid_career"
	StagePreRetirement LifeStage = "pre_retirement"
	StageInRetirement  LifeStage = "in_retirement"
)
