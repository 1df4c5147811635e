package response

import (
	"strings"

	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
	"finadvisor/pkg/templates"
)

const (
	DefaultDisplayLimit = 5
	DefaultNextSteps    = 3
)

const (
	templateComposite = "responses/composite"
	templateClarify   = "responses/clarify"
	templateCorrect   = "responses/correct"
	templateApology   = "responses/apology"
	templateGeneral   = "answers/general"
)

const fallbackApology = "I'm sorry, something went wrong while preparing your answer. Please try again, or contact support if the problem continues."

// Generator turns classification, results and recommendations into responses
type Generator struct {
	registry     *templates.Registry
	displayLimit int
	nextSteps    int
	log          *logger.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithDisplayLimit caps the recommendations shown in the text
func WithDisplayLimit(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.displayLimit = n
		}
	}
}

// WithNextSteps sets how many top recommendations become next steps
func WithNextSteps(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.nextSteps = n
		}
	}
}

// NewGenerator creates a generator. A nil registry uses the embedded templates.
func NewGenerator(registry *templates.Registry, opts ...Option) *Generator {
	if registry == nil {
		registry = templates.Get()
	}
	g := &Generator{
		registry:     registry,
		displayLimit: DefaultDisplayLimit,
		nextSteps:    DefaultNextSteps,
		log:          logger.Get().With("component", "response_generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type displayedRecommendation struct {
	Number    int
	Label     string
	Action    string
	Rationale string
}

// AnswerTemplateID names the answer template for an intent
func AnswerTemplateID(d advice.Domain, intent advice.Intent) string {
	if intent == advice.IntentGeneral {
		return templateGeneral
	}
	return "answers/" + d.String() + "/" + intent.Slug()
}

// Render builds the answer for a classified question whose plan ran
func (g *Generator) Render(c advice.ClassificationResult, results *calculator.Results, recs []advice.Recommendation) (*Response, error) {
	if results == nil {
		results = &calculator.Results{}
	}
	if c.Intent != advice.IntentGeneral && !c.Intent.Belongs(c.Domain) {
		return nil, errors.Wrapf(errors.ErrUnknownIntent, "%s in %s", c.Intent, c.Domain)
	}

	greeting, err := g.greeting(c.Domain)
	if err != nil {
		return nil, err
	}

	var main string
	status := StatusAnswered
	if c.Intent == advice.IntentGeneral {
		status = StatusGeneral
		main, err = g.registry.Render(templateGeneral, map[string]any{"Topics": Topics(c.Domain)})
	} else {
		main, err = g.registry.Render(AnswerTemplateID(c.Domain, c.Intent), map[string]any{
			"Results":  results,
			"Entities": entitiesOrEmpty(c.Entities),
		})
	}
	if err != nil {
		return nil, errors.Wrapf(err, "render answer for %s", c.Intent)
	}

	resp := &Response{
		Greeting:   greeting,
		MainAnswer: strings.TrimSpace(main),
		Structured: g.structured(c, status, results, recs),
	}
	g.display(resp, recs)

	if resp.Text, err = g.compose(resp); err != nil {
		return nil, err
	}

	g.log.Debugw("Rendered response",
		"domain", c.Domain,
		"intent", c.Intent,
		"recommendations", len(recs),
		"hidden", resp.Hidden,
	)
	return resp, nil
}

// Clarify asks for the profile fields the plan could not run without
func (g *Generator) Clarify(c advice.ClassificationResult, results *calculator.Results, missing []string) (*Response, error) {
	if results == nil {
		results = &calculator.Results{}
	}
	greeting, err := g.greeting(c.Domain)
	if err != nil {
		return nil, err
	}
	main, err := g.registry.Render(templateClarify, map[string]any{
		"Topic":   Topic(c),
		"Missing": missing,
	})
	if err != nil {
		return nil, errors.Wrap(err, "render clarification")
	}

	steps := make([]string, 0, len(missing))
	for _, f := range missing {
		steps = append(steps, "Share your "+templates.HumanField(f))
	}

	resp := &Response{
		Greeting:   greeting,
		MainAnswer: strings.TrimSpace(main),
		NextSteps:  steps,
		Structured: g.structured(c, StatusClarification, results, nil),
	}
	resp.Recommendations = []advice.Recommendation{}
	resp.Structured.MissingFields = append([]string(nil), missing...)

	if resp.Text, err = g.compose(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Correct asks the caller to fix profile values that are out of range.
// No calculator runs, so the result set is empty.
func (g *Generator) Correct(c advice.ClassificationResult, invalid []string) (*Response, error) {
	greeting, err := g.greeting(c.Domain)
	if err != nil {
		return nil, err
	}
	main, err := g.registry.Render(templateCorrect, map[string]any{
		"Topic":   Topic(c),
		"Invalid": invalid,
	})
	if err != nil {
		return nil, errors.Wrap(err, "render correction")
	}

	steps := make([]string, 0, len(invalid))
	for _, f := range invalid {
		steps = append(steps, "Check your "+templates.HumanField(f))
	}

	resp := &Response{
		Greeting:        greeting,
		MainAnswer:      strings.TrimSpace(main),
		Recommendations: []advice.Recommendation{},
		NextSteps:       steps,
		Structured:      g.structured(c, StatusInvalidInput, &calculator.Results{}, nil),
	}
	resp.Structured.InvalidFields = append([]string(nil), invalid...)

	if resp.Text, err = g.compose(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Apology never fails; a broken template degrades to a fixed message
func (g *Generator) Apology(c advice.ClassificationResult) *Response {
	resp := &Response{
		Recommendations: []advice.Recommendation{},
		NextSteps:       []string{"Try your question again", "Contact support if the problem continues"},
		Structured:      g.structured(c, StatusError, &calculator.Results{}, nil),
	}

	main, err := g.registry.Render(templateApology, map[string]any{"Topic": Topic(c)})
	if err != nil {
		g.log.Errorw("Failed to render apology", "error", err)
		resp.MainAnswer = fallbackApology
		resp.Text = fallbackApology
		return resp
	}
	resp.MainAnswer = strings.TrimSpace(main)

	if greeting, err := g.greeting(c.Domain); err == nil {
		resp.Greeting = greeting
	}
	text, err := g.compose(resp)
	if err != nil {
		g.log.Errorw("Failed to compose apology", "error", err)
		text = resp.MainAnswer
	}
	resp.Text = text
	return resp
}

func (g *Generator) display(resp *Response, recs []advice.Recommendation) {
	shown := recs
	if len(shown) > g.displayLimit {
		shown = shown[:g.displayLimit]
	}
	resp.Recommendations = append([]advice.Recommendation{}, shown...)
	resp.Hidden = len(recs) - len(shown)

	steps := shown
	if len(steps) > g.nextSteps {
		steps = steps[:g.nextSteps]
	}
	resp.NextSteps = make([]string, 0, len(steps))
	for _, r := range steps {
		resp.NextSteps = append(resp.NextSteps, r.Action)
	}
}

func (g *Generator) compose(resp *Response) (string, error) {
	shown := make([]displayedRecommendation, 0, len(resp.Recommendations))
	for i, r := range resp.Recommendations {
		shown = append(shown, displayedRecommendation{
			Number:    i + 1,
			Label:     advice.PriorityLabel(r.Priority),
			Action:    strings.TrimSuffix(r.Action, "."),
			Rationale: r.Rationale,
		})
	}

	text, err := g.registry.Render(templateComposite, map[string]any{
		"Greeting":        resp.Greeting,
		"MainAnswer":      resp.MainAnswer,
		"Recommendations": shown,
		"Hidden":          resp.Hidden,
		"NextSteps":       resp.NextSteps,
	})
	if err != nil {
		return "", errors.Wrap(err, "compose response")
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) greeting(d advice.Domain) (string, error) {
	text, err := g.registry.Render("greetings/"+d.String(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "render greeting for %s", d)
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) structured(c advice.ClassificationResult, status Status, results *calculator.Results, recs []advice.Recommendation) StructuredData {
	keywords := c.MatchedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	all := append([]advice.Recommendation{}, recs...)
	return StructuredData{
		Status:             status,
		Domain:             c.Domain,
		Intent:             c.Intent,
		Confidence:         c.Confidence,
		MatchedKeywords:    keywords,
		Entities:           c.Entities,
		CalculationResults: results,
		Recommendations:    all,
	}
}

// Topic is the lower-case subject used in clarifications and apologies
func Topic(c advice.ClassificationResult) string {
	if c.Intent == "" || c.Intent == advice.IntentGeneral {
		switch c.Domain {
		case advice.DomainRetirement:
			return "retirement planning"
		case advice.DomainDebt:
			return "debt management"
		case advice.DomainGoal:
			return "goal planning"
		}
		return "financial"
	}
	return strings.ToLower(c.Intent.Title())
}

// Topics lists the subjects a domain can answer, for the general fallback
func Topics(d advice.Domain) []string {
	intents := advice.Intents(d)
	topics := make([]string, 0, len(intents))
	for _, i := range intents {
		topics = append(topics, strings.ToLower(i.Title()))
	}
	return topics
}

func entitiesOrEmpty(e map[string]string) map[string]string {
	if e == nil {
		return map[string]string{}
	}
	return e
}
