package agent

import (
	"context"
	"hash/fnv"
	"time"

	"finadvisor/internal/calculator"
	"finadvisor/internal/classifier"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/response"
	"finadvisor/internal/rules"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// Request is one question to answer. The profile must already be merged and
// validated; a nil profile is treated as empty.
type Request struct {
	RequestID string
	Question  string
	Profile   *profile.ClientProfile

	// Seed fixes the Monte Carlo stream; 0 derives one from RequestID and Question
	Seed uint64
}

// Outcome is the response plus what it took to produce it
type Outcome struct {
	Response       *response.Response
	Classification advice.ClassificationResult
	Plan           []calculator.Step
	Seed           uint64
	Duration       time.Duration

	// Err is the failure behind an apology response, nil otherwise
	Err error
}

// Agent runs the classify, calculate, advise, respond pipeline for one domain
type Agent struct {
	domain     advice.Domain
	classifier *classifier.Classifier
	engine     *calculator.Engine
	rules      *rules.Engine
	responses  *response.Generator
	log        *logger.Logger
}

// Option configures an Agent
type Option func(*Agent)

// WithLogger replaces the component logger, e.g. to attach an error tracker
func WithLogger(l *logger.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.log = l.With("component", "advice_agent", "domain", a.domain)
		}
	}
}

// WithResponseGenerator replaces the default embedded-template generator
func WithResponseGenerator(g *response.Generator) Option {
	return func(a *Agent) {
		if g != nil {
			a.responses = g
		}
	}
}

// New creates an agent for domain d sharing the calculator engine
func New(d advice.Domain, engine *calculator.Engine, opts ...Option) (*Agent, error) {
	cls, ok := classifier.NewForDomain(d)
	if !ok {
		return nil, errors.NewValidationError("domain", "unknown domain", d)
	}
	rulesEngine, ok := rules.NewForDomain(d)
	if !ok {
		return nil, errors.NewValidationError("domain", "no rule table", d)
	}
	if engine == nil {
		engine = calculator.NewEngine(calculator.DefaultOptions(), nil)
	}

	a := &Agent{
		domain:     d,
		classifier: cls,
		engine:     engine,
		rules:      rulesEngine,
		responses:  response.NewGenerator(nil),
		log:        logger.Get().With("component", "advice_agent", "domain", d),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Domain returns the agent's domain
func (a *Agent) Domain() advice.Domain {
	return a.domain
}

// Classify runs only the first stage
func (a *Agent) Classify(question string) advice.ClassificationResult {
	return a.classifier.Classify(question)
}

// Process answers a question. It never returns an error: missing profile
// fields become a clarifying question, out-of-range values a request to
// correct them, and failures an apology.
func (a *Agent) Process(ctx context.Context, req Request) *response.Response {
	return a.Run(ctx, req).Response
}

// Run is Process with the pipeline details attached
func (a *Agent) Run(ctx context.Context, req Request) *Outcome {
	return a.run(ctx, req, a.classifier.Classify(req.Question))
}

func (a *Agent) run(ctx context.Context, req Request, c advice.ClassificationResult) (out *Outcome) {
	start := time.Now()
	out = &Outcome{Classification: c, Seed: req.Seed}
	if out.Seed == 0 {
		out.Seed = DeriveSeed(req.RequestID, req.Question)
	}
	log := a.log.ForRequest(ctx)

	defer func() {
		if r := recover(); r != nil {
			out.Err = errors.Wrapf(errors.ErrInternal, "advice pipeline panicked: %v", r)
			out.Response = a.fail(ctx, log, c, out.Err)
		}
		out.Duration = time.Since(start)
	}()

	p := req.Profile
	if p == nil {
		p = &profile.ClientProfile{}
	}

	out.Plan = Plan(c.Intent)
	if invalid := profile.InvalidFields(p.Validate()); len(invalid) > 0 {
		log.Infow("Profile values out of range", "intent", c.Intent, "fields", invalid)
		resp, err := a.responses.Correct(c, invalid)
		if err != nil {
			out.Err = err
			out.Response = a.fail(ctx, log, c, err)
			return out
		}
		out.Response = resp
		return out
	}

	results, err := a.engine.Run(ctx, calculator.Input{
		Profile:  p,
		Seed:     out.Seed,
		Entities: c.Entities,
	}, out.Plan)

	var insufficient *calculator.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		log.Infow("Insufficient data for intent",
			"intent", c.Intent,
			"missing", insufficient.Fields,
		)
		resp, cerr := a.responses.Clarify(c, results, insufficient.Fields)
		if cerr != nil {
			out.Err = cerr
			out.Response = a.fail(ctx, log, c, cerr)
			return out
		}
		out.Response = resp
		return out

	case err != nil:
		out.Err = err
		out.Response = a.fail(ctx, log, c, err)
		return out
	}

	recs := a.rules.Generate(c.Intent, results, p, c.Entities)
	resp, err := a.responses.Render(c, results, recs)
	if err != nil {
		out.Err = err
		out.Response = a.fail(ctx, log, c, err)
		return out
	}
	out.Response = resp
	return out
}

// Fail builds the apology outcome for a failure that happened outside the
// pipeline, such as a profile store error
func (a *Agent) Fail(ctx context.Context, req Request, c advice.ClassificationResult, err error) *Outcome {
	out := &Outcome{Classification: c, Seed: req.Seed, Err: err}
	out.Response = a.fail(ctx, a.log.ForRequest(ctx), c, err)
	return out
}

func (a *Agent) fail(ctx context.Context, log *logger.Logger, c advice.ClassificationResult, err error) *response.Response {
	log.ErrorWithContext(ctx, err, map[string]string{
		"component": "advice_agent",
		"domain":    string(a.domain),
		"intent":    string(c.Intent),
	})
	return a.responses.Apology(c)
}

// DeriveSeed hashes the request id and question into a non-zero seed
func DeriveSeed(requestID, question string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(requestID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(question))
	if s := h.Sum64(); s != 0 {
		return s
	}
	return 1
}
