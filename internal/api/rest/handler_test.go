package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/adapters/ratelimit"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/response"
	advicesvc "finadvisor/internal/services/advice"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Ask(ctx context.Context, req advicesvc.Request) (*advicesvc.Result, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*advicesvc.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Classify(d advice.Domain, question string) (advice.ClassificationResult, error) {
	args := m.Called(d, question)
	return args.Get(0).(advice.ClassificationResult), args.Error(1)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/v1/advice", strings.NewReader(body)))
	return rec
}

func TestHandleAdvice_ReturnsEnvelope(t *testing.T) {
	svc := &mockService{}
	svc.On("Ask", mock.Anything, mock.MatchedBy(func(req advicesvc.Request) bool {
		return req.Domain == advice.DomainDebt &&
			req.Question == "Should I pay off my card?" &&
			req.UserID.String() == "6f1c1a6e-2f57-4a8e-9a43-6b1d1f1b2c3d" &&
			req.Seed == 11 &&
			req.Source == "http"
	})).Return(&advicesvc.Result{
		RequestID: "req-1",
		Response: &response.Response{
			Text: "Pay the card first.",
			Structured: response.StructuredData{
				Status: response.StatusAnswered,
				Domain: advice.DomainDebt,
				Intent: advice.IntentDebtPayoffStrategy,
			},
		},
	}, nil).Once()

	h := NewHandler(svc, 0)
	rec := post(h.HandleAdvice, `{"user_id":"6f1c1a6e-2f57-4a8e-9a43-6b1d1f1b2c3d","domain":"debt","question":"Should I pay off my card?","seed":11}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Pay the card first.", env.Response)
	assert.Equal(t, advice.IntentDebtPayoffStrategy, env.StructuredData.Intent)
	svc.AssertExpectations(t)
}

func TestHandleAdvice_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty body", ``, http.StatusBadRequest},
		{"malformed json", `{"question":`, http.StatusBadRequest},
		{"unknown field", `{"question":"hi","colour":"red"}`, http.StatusBadRequest},
		{"bad user id", `{"question":"hi","user_id":"nope"}`, http.StatusBadRequest},
		{"bad domain", `{"question":"hi","domain":"crypto"}`, http.StatusBadRequest},
		{"two objects", `{"question":"hi"}{"question":"again"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			rec := post(NewHandler(svc, 0).HandleAdvice, tt.body)

			assert.Equal(t, tt.code, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleAdvice_BodyTooLarge(t *testing.T) {
	rec := post(NewHandler(&mockService{}, 16).HandleAdvice, `{"question":"`+strings.Repeat("a", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleAdvice_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", errors.NewValidationError("question", "question is required", ""), http.StatusBadRequest},
		{"rate limited", errors.ErrRateLimited, http.StatusTooManyRequests},
		{"internal", errors.Wrap(errors.ErrInternal, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Ask", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := post(NewHandler(svc, 0).HandleAdvice, `{"question":"hi"}`)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleClassify(t *testing.T) {
	svc := &mockService{}
	svc.On("Classify", advice.DomainGoal, "Can I afford a house?").Return(advice.ClassificationResult{
		Domain:     advice.DomainGoal,
		Intent:     advice.IntentGoalManagement,
		Confidence: 0.8,
	}, nil).Once()

	rec := httptest.NewRecorder()
	NewHandler(svc, 0).HandleClassify(rec, httptest.NewRequest(http.MethodPost, "/v1/classify",
		strings.NewReader(`{"domain":"goal","question":"Can I afford a house?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var c advice.ClassificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, advice.IntentGoalManagement, c.Intent)
	svc.AssertExpectations(t)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewKeyedLimiter(1, 1, time.Minute)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), Recover(logger.NewNop()), Logging(logger.NewNop()), RateLimit(limiter))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(nil)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := Recover(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
