package agent

import (
	"context"

	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// Router picks the domain agent for a question
type Router struct {
	agents []*Agent
	byName map[advice.Domain]*Agent
	log    *logger.Logger
}

// NewRouter builds one agent per domain in routing order, sharing engine
func NewRouter(engine *calculator.Engine, opts ...Option) (*Router, error) {
	r := &Router{
		byName: make(map[advice.Domain]*Agent),
		log:    logger.Get().With("component", "advice_router"),
	}
	for _, d := range advice.Domains() {
		a, err := New(d, engine, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s agent", d)
		}
		r.agents = append(r.agents, a)
		r.byName[d] = a
	}
	return r, nil
}

// Agent returns the agent for a domain
func (r *Router) Agent(d advice.Domain) (*Agent, bool) {
	a, ok := r.byName[d]
	return a, ok
}

// Classify scores the question in every domain. The highest confidence
// wins; ties, including all-GENERAL, go to the earlier domain.
func (r *Router) Classify(question string) (*Agent, advice.ClassificationResult) {
	var best *Agent
	var bestResult advice.ClassificationResult
	for _, a := range r.agents {
		c := a.Classify(question)
		if best == nil || c.Confidence > bestResult.Confidence {
			best, bestResult = a, c
		}
	}
	return best, bestResult
}

// Route classifies within d when it is set, across every domain otherwise
func (r *Router) Route(d advice.Domain, question string) (*Agent, advice.ClassificationResult, error) {
	if d == "" {
		a, c := r.Classify(question)
		r.log.Debugw("Routed question", "domain", c.Domain, "intent", c.Intent, "confidence", c.Confidence)
		return a, c, nil
	}
	a, ok := r.byName[d]
	if !ok {
		return nil, advice.ClassificationResult{}, errors.NewValidationError("domain", "unknown domain", d)
	}
	return a, a.Classify(question), nil
}

// Run routes and processes a request
func (r *Router) Run(ctx context.Context, d advice.Domain, req Request) (*Outcome, error) {
	a, c, err := r.Route(d, req.Question)
	if err != nil {
		return nil, err
	}
	return a.run(ctx, req, c), nil
}

// Fail routes the question and returns the apology outcome for err
func (r *Router) Fail(ctx context.Context, d advice.Domain, req Request, err error) (*Outcome, error) {
	a, c, rerr := r.Route(d, req.Question)
	if rerr != nil {
		return nil, rerr
	}
	return a.Fail(ctx, req, c, err), nil
}
