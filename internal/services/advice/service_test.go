package advice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/agent"
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/response"
	"finadvisor/internal/testsupport"
	"finadvisor/pkg/errors"
)

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.ClientProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*profile.ClientProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfiles) Save(ctx context.Context, userID uuid.UUID, p *profile.ClientProfile) error {
	return m.Called(ctx, userID, p).Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Record(ctx context.Context, rec *advice.AuditRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func newRouter(t *testing.T) *agent.Router {
	t.Helper()
	opts := calculator.DefaultOptions()
	opts.Trials = 500
	r, err := agent.NewRouter(calculator.NewEngine(opts, nil))
	require.NoError(t, err)
	return r
}

func TestAsk_MergesStoredProfileWithContext(t *testing.T) {
	userID := uuid.New()
	stored := testsupport.NewProfileFixture().WithoutTargetIncome().Build()

	profiles := &mockProfiles{}
	profiles.On("GetByUserID", mock.Anything, userID).Return(stored, nil).Once()

	audit := &mockAudit{}
	audit.On("Record", mock.Anything, mock.MatchedBy(func(rec *advice.AuditRecord) bool {
		return rec.UserID == userID.String() &&
			rec.Domain == "retirement" &&
			rec.Intent == "RETIREMENT_READINESS" &&
			rec.Status == "answered" &&
			rec.Source == "http" &&
			assert.ObjectsAreEqual([]string{"PortfolioValue", "AssetAllocation", "RetirementReadiness", "MonteCarloSuccess"}, rec.Calculators)
	})).Return(nil).Once()

	svc := NewService(newRouter(t), WithProfiles(profiles), WithAudit(audit))

	res, err := svc.Ask(context.Background(), Request{
		UserID:   userID,
		Question: "Am I on track for retirement?",
		Context:  &profile.ClientProfile{TargetRetirementIncome: profile.FloatPtr(80000)},
		Source:   "http",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, response.StatusAnswered, res.Response.Structured.Status)
	assert.NotNil(t, res.Response.Structured.CalculationResults.MonteCarloSuccess)

	profiles.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAsk_UnknownUserUsesContextOnly(t *testing.T) {
	userID := uuid.New()
	profiles := &mockProfiles{}
	profiles.On("GetByUserID", mock.Anything, userID).Return(nil, errors.Wrap(errors.ErrNotFound, "profile not found"))

	svc := NewService(newRouter(t), WithProfiles(profiles))

	res, err := svc.Ask(context.Background(), Request{
		UserID:   userID,
		Question: "How much should I save for retirement?",
		Context:  &profile.ClientProfile{CurrentAge: profile.IntPtr(35), YearsUntilRetirement: profile.IntPtr(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, response.StatusClarification, res.Response.Structured.Status)
	assert.Equal(t, []string{"target_retirement_income"}, res.Response.Structured.MissingFields)
}

func TestAsk_StoreFailureBecomesApology(t *testing.T) {
	userID := uuid.New()
	profiles := &mockProfiles{}
	profiles.On("GetByUserID", mock.Anything, userID).Return(nil, errors.ErrUnavailable)

	svc := NewService(newRouter(t), WithProfiles(profiles))

	res, err := svc.Ask(context.Background(), Request{
		UserID:   userID,
		Domain:   advice.DomainDebt,
		Question: "Help me create a budget",
	})
	require.NoError(t, err)
	assert.Equal(t, response.StatusError, res.Response.Structured.Status)
	assert.Equal(t, advice.IntentBudgetCreation, res.Response.Structured.Intent)
	assert.ErrorIs(t, res.Outcome.Err, errors.ErrUnavailable)
	assert.Contains(t, res.Response.Text, "contact support")
}

func TestAsk_RejectsBadRequests(t *testing.T) {
	svc := NewService(newRouter(t))
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{"empty question", Request{Question: "   "}},
		{"unknown domain", Request{Question: "hello", Domain: advice.Domain("crypto")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(ctx, tt.req)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestAsk_OutOfRangeProfileAsksForCorrection(t *testing.T) {
	userID := uuid.New()
	stored := testsupport.NewProfileFixture().Build()
	stored.CurrentSavings = profile.FloatPtr(-5)

	profiles := &mockProfiles{}
	profiles.On("GetByUserID", mock.Anything, userID).Return(stored, nil)

	audit := &mockAudit{}
	audit.On("Record", mock.Anything, mock.MatchedBy(func(rec *advice.AuditRecord) bool {
		return rec.Status == "invalid_input" && len(rec.Calculators) == 0
	})).Return(nil).Once()

	svc := NewService(newRouter(t), WithProfiles(profiles), WithAudit(audit))

	res, err := svc.Ask(context.Background(), Request{
		UserID:   userID,
		Question: "Am I on track for retirement?",
		Context:  &profile.ClientProfile{LifeExpectancy: profile.IntPtr(2000000)},
	})
	require.NoError(t, err)
	assert.Equal(t, response.StatusInvalidInput, res.Response.Structured.Status)
	assert.Equal(t, []string{"life_expectancy", "current_savings"}, res.Response.Structured.InvalidFields)
	assert.Contains(t, res.Response.Text, "life expectancy and current savings")
	audit.AssertExpectations(t)
}

func TestAsk_RoutesAcrossDomains(t *testing.T) {
	svc := NewService(newRouter(t), WithTimeout(5*time.Second))

	res, err := svc.Ask(context.Background(), Request{
		Question: "What's the best way to pay off my debt?",
		Context:  testsupport.NewProfileFixture().WithCardAndCarLoan().Build(),
	})
	require.NoError(t, err)
	assert.Equal(t, advice.DomainDebt, res.Response.Structured.Domain)
	assert.Equal(t, advice.IntentDebtPayoffStrategy, res.Response.Structured.Intent)
}

func TestAsk_FixedSeedIsReproducible(t *testing.T) {
	svc := NewService(newRouter(t), WithFixedSeed(7))
	req := Request{
		Question: "Am I on track for retirement?",
		Context:  testsupport.NewProfileFixture().Build(),
	}

	first, err := svc.Ask(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Ask(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), first.Outcome.Seed)
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, first.Response.Text, second.Response.Text)
}

func TestClassify(t *testing.T) {
	svc := NewService(newRouter(t))

	c, err := svc.Classify("", "Should I use the avalanche or snowball method?")
	require.NoError(t, err)
	assert.Equal(t, advice.DomainDebt, c.Domain)
	assert.Equal(t, "avalanche", c.Entities["method"])

	_, err = svc.Classify("", "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
