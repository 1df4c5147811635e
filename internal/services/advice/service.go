package advice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"finadvisor/internal/agent"
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/internal/response"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// DefaultTimeout bounds one pipeline run when no timeout is configured
const DefaultTimeout = 20 * time.Second

// Request is one question from a transport
type Request struct {
	RequestID string
	UserID    uuid.UUID // uuid.Nil answers from Context alone
	Domain    advice.Domain
	Question  string
	Context   *profile.ClientProfile // overrides applied on top of the stored profile
	Seed      uint64
	Source    string
}

// Result is the answered request
type Result struct {
	RequestID string
	Response  *response.Response
	Outcome   *agent.Outcome
}

// Service handles advice requests (Application Service).
// Coordinates profile loading, the domain router, audit and metrics.
type Service struct {
	router    *agent.Router
	profiles  profile.Repository
	audit     advice.AuditRepository
	timeout   time.Duration
	fixedSeed uint64
	log       *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithProfiles sets the profile store; without one only request context is used
func WithProfiles(repo profile.Repository) Option {
	return func(s *Service) { s.profiles = repo }
}

// WithAudit sets the audit sink; without one audit rows are only logged
func WithAudit(repo advice.AuditRepository) Option {
	return func(s *Service) { s.audit = repo }
}

// WithTimeout bounds each pipeline run
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFixedSeed pins the Monte Carlo seed for requests that carry none
func WithFixedSeed(seed uint64) Option {
	return func(s *Service) { s.fixedSeed = seed }
}

// NewService creates a new advice application service
func NewService(router *agent.Router, opts ...Option) *Service {
	s := &Service{
		router:  router,
		timeout: DefaultTimeout,
		log:     logger.Get().With("service", "advice_application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a question. The error is non-nil only for requests that cannot
// be answered at all (empty question, unknown domain); out-of-range profile
// values and every other failure still produce a Response.
func (s *Service) Ask(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, errors.NewValidationError("question", "must not be empty", req.Question)
	}
	if req.Domain != "" && !req.Domain.Valid() {
		return nil, errors.NewValidationError("domain", "unknown domain", req.Domain)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Seed == 0 {
		req.Seed = s.fixedSeed
	}

	userID := ""
	if req.UserID != uuid.Nil {
		userID = req.UserID.String()
	}
	ctx = errors.WithRequest(ctx, req.RequestID, userID)
	log := s.log.ForRequest(ctx)

	agentReq := agent.Request{
		RequestID: req.RequestID,
		Question:  req.Question,
		Seed:      req.Seed,
	}

	base, err := s.loadProfile(ctx, req.UserID)
	if err != nil {
		out, rerr := s.router.Fail(ctx, req.Domain, agentReq, err)
		if rerr != nil {
			return nil, rerr
		}
		return s.finish(ctx, req, out), nil
	}

	agentReq.Profile = profile.Merge(base, req.Context)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.router.Run(runCtx, req.Domain, agentReq)
	if err != nil {
		return nil, err
	}

	log.Debugw("Advice produced",
		"domain", out.Classification.Domain,
		"intent", out.Classification.Intent,
		"status", out.Response.Structured.Status,
		"duration", out.Duration,
	)
	return s.finish(ctx, req, out), nil
}

// Classify runs only the classifier, across domains when d is empty
func (s *Service) Classify(d advice.Domain, question string) (advice.ClassificationResult, error) {
	if strings.TrimSpace(question) == "" {
		return advice.ClassificationResult{}, errors.NewValidationError("question", "must not be empty", question)
	}
	_, c, err := s.router.Route(d, question)
	return c, err
}

func (s *Service) loadProfile(ctx context.Context, userID uuid.UUID) (*profile.ClientProfile, error) {
	if userID == uuid.Nil || s.profiles == nil {
		return nil, nil
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, errors.ErrNotFound) {
		s.log.ForRequest(ctx).Debugw("No stored profile, using request context", "user_id", userID)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load profile")
	}
	return p, nil
}

func (s *Service) finish(ctx context.Context, req Request, out *agent.Outcome) *Result {
	c := out.Classification
	status := out.Response.Structured.Status

	metrics.RecordAdvice(string(c.Domain), string(c.Intent), string(status), c.Confidence, out.Duration)
	results := out.Response.Structured.CalculationResults
	kinds := kindNames(results)
	metrics.RecordCalculations(kinds)
	if results != nil && results.MonteCarloSuccess != nil {
		metrics.RecordMonteCarlo(results.MonteCarloSuccess.Trials, results.MonteCarloSuccess.SuccessProbability)
	}

	rec := &advice.AuditRecord{
		ID:                  uuid.New(),
		RequestID:           req.RequestID,
		Source:              req.Source,
		Domain:              string(c.Domain),
		Intent:              string(c.Intent),
		Confidence:          c.Confidence,
		Calculators:         kinds,
		RecommendationCount: uint16(min(len(out.Response.Structured.Recommendations), 1<<16-1)),
		Status:              string(status),
		LatencyMs:           uint32(out.Duration.Milliseconds()),
		CreatedAt:           time.Now().UTC(),
	}
	if req.UserID != uuid.Nil {
		rec.UserID = req.UserID.String()
	}
	s.record(ctx, rec)

	return &Result{RequestID: req.RequestID, Response: out.Response, Outcome: out}
}

func (s *Service) record(ctx context.Context, rec *advice.AuditRecord) {
	log := s.log.ForRequest(ctx)
	if s.audit == nil {
		log.Infow("Advice audit",
			"domain", rec.Domain,
			"intent", rec.Intent,
			"status", rec.Status,
			"calculators", rec.Calculators,
			"latency_ms", rec.LatencyMs,
		)
		return
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		log.Warnw("Failed to record advice audit", "error", err)
	}
}

func kindNames(results *calculator.Results) []string {
	if results == nil {
		return []string{}
	}
	kinds := results.Kinds()
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}
