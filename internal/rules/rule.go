package rules

import (
	"sort"

	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/pkg/logger"
)

// Facts is everything a rule predicate may look at
type Facts struct {
	Intent   advice.Intent
	Results  *calculator.Results
	Profile  *profile.ClientProfile
	Stage    advice.LifeStage
	Entities map[string]string
}

// Rule maps a predicate to a recommendation. Rules fire only for the intents
// they list.
type Rule struct {
	ID       string
	Intents  []advice.Intent
	Priority int
	When     func(f *Facts) bool
	Build    func(f *Facts) (action, rationale string)
}

func (r Rule) appliesTo(intent advice.Intent) bool {
	for _, i := range r.Intents {
		if i == intent {
			return true
		}
	}
	return false
}

// Table is the ordered rule set of one domain; declaration order breaks
// priority ties
type Table struct {
	Domain advice.Domain
	Rules  []Rule
}

// TableFor returns the built-in rule table for a domain
func TableFor(d advice.Domain) (Table, bool) {
	switch d {
	case advice.DomainRetirement:
		return RetirementTable(), true
	case advice.DomainDebt:
		return DebtTable(), true
	case advice.DomainGoal:
		return GoalTable(), true
	}
	return Table{}, false
}

// Default rule ids
const (
	RuleMoreInformation = "default.more_information"
	RuleStayTheCourse   = "default.stay_the_course"
)

// Engine evaluates a rule table. It holds no mutable state.
type Engine struct {
	table Table
	log   *logger.Logger
}

// New creates an engine over a table
func New(table Table) *Engine {
	return &Engine{
		table: table,
		log:   logger.Get().With("component", "rule_engine", "domain", table.Domain),
	}
}

// NewForDomain creates an engine over the built-in table
func NewForDomain(d advice.Domain) (*Engine, bool) {
	table, ok := TableFor(d)
	if !ok {
		return nil, false
	}
	return New(table), true
}

// Generate returns the recommendations for an intent ordered by priority, then
// by declaration order. The result is never empty.
func (e *Engine) Generate(intent advice.Intent, results *calculator.Results, p *profile.ClientProfile, entities map[string]string) []advice.Recommendation {
	if results == nil {
		results = &calculator.Results{}
	}
	if p == nil {
		p = &profile.ClientProfile{}
	}
	if entities == nil {
		entities = map[string]string{}
	}

	facts := &Facts{
		Intent:   intent,
		Results:  results,
		Profile:  p,
		Stage:    DeriveStage(p),
		Entities: entities,
	}

	recs := make([]advice.Recommendation, 0)
	for _, r := range e.table.Rules {
		if !r.appliesTo(intent) || !r.When(facts) {
			continue
		}
		action, rationale := r.Build(facts)
		recs = append(recs, advice.Recommendation{
			Priority:  r.Priority,
			Action:    action,
			Rationale: rationale,
			Category:  intent,
			RuleID:    r.ID,
		})
	}

	if len(recs) == 0 {
		recs = append(recs, defaultRecommendation(facts))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})

	e.log.Debugw("Generated recommendations",
		"intent", intent,
		"stage", facts.Stage,
		"count", len(recs),
	)
	return recs
}

func defaultRecommendation(f *Facts) advice.Recommendation {
	if !f.Results.HasApplicable() {
		return advice.Recommendation{
			Priority:  advice.PriorityLow,
			Action:    "Share more about your situation so the advice can be specific",
			Rationale: "There was not enough information to run a calculation for this question.",
			Category:  f.Intent,
			RuleID:    RuleMoreInformation,
		}
	}
	return advice.Recommendation{
		Priority:  advice.PriorityLow,
		Action:    "Stay the course with your current plan",
		Rationale: "Nothing in the calculations calls for a change right now; review the plan once a year.",
		Category:  f.Intent,
		RuleID:    RuleStayTheCourse,
	}
}
