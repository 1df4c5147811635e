package consumers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/agent"
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/response"
	advicesvc "finadvisor/internal/services/advice"
	"finadvisor/internal/testsupport"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

type mockAsker struct {
	mock.Mock
}

func (m *mockAsker) Ask(ctx context.Context, req advicesvc.Request) (*advicesvc.Result, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*advicesvc.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func jobMessage(t *testing.T, job AdviceJob) kafka.Message {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return kafka.Message{Topic: "advice.requests", Key: []byte(job.JobID), Value: data}
}

func TestHandleMessage_AnswersJobWithRealPipeline(t *testing.T) {
	opts := calculator.DefaultOptions()
	opts.Trials = 300
	router, err := agent.NewRouter(calculator.NewEngine(opts, nil))
	require.NoError(t, err)
	svc := advicesvc.NewService(router)

	pub := &mockPublisher{}
	var got *AdviceJobResult
	pub.On("Publish", mock.Anything, "advice.responses", "job-1", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(3).(*AdviceJobResult) }).
		Return(nil).Once()

	c := NewAdviceJobConsumer(nil, svc, pub, "", logger.NewNop())
	err = c.HandleMessage(context.Background(), jobMessage(t, AdviceJob{
		JobID:    "job-1",
		Question: "What's the best way to pay off my debt?",
		Context:  testsupport.NewProfileFixture().WithCardAndCarLoan().Build(),
	}))
	require.NoError(t, err)
	pub.AssertExpectations(t)

	require.NotNil(t, got)
	assert.Equal(t, JobCompleted, got.Status)
	assert.Equal(t, "job-1", got.RequestID)
	require.NotNil(t, got.Result)
	assert.Equal(t, advice.DomainDebt, got.Result.StructuredData.Domain)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestHandleMessage_OutOfRangeProfileCompletesWithCorrection(t *testing.T) {
	router, err := agent.NewRouter(calculator.NewEngine(calculator.DefaultOptions(), nil))
	require.NoError(t, err)
	svc := advicesvc.NewService(router)

	pub := &mockPublisher{}
	var got *AdviceJobResult
	pub.On("Publish", mock.Anything, "advice.responses", "job-2", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(3).(*AdviceJobResult) }).
		Return(nil).Once()

	p := testsupport.NewProfileFixture().Build()
	p.Income = profile.FloatPtr(-1)

	c := NewAdviceJobConsumer(nil, svc, pub, "", logger.NewNop())
	require.NoError(t, c.HandleMessage(context.Background(), jobMessage(t, AdviceJob{
		JobID:    "job-2",
		Question: "Am I on track for retirement?",
		Context:  p,
	})))

	require.NotNil(t, got)
	assert.Equal(t, JobCompleted, got.Status)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.Result)
	assert.Equal(t, response.StatusInvalidInput, got.Result.StructuredData.Status)
	assert.Equal(t, []string{"income"}, got.Result.StructuredData.InvalidFields)
}

func TestHandleMessage_MalformedIsDropped(t *testing.T) {
	pub := &mockPublisher{}
	asker := &mockAsker{}
	c := NewAdviceJobConsumer(nil, asker, pub, "advice.responses", logger.NewNop())

	err := c.HandleMessage(context.Background(), kafka.Message{Topic: "advice.requests", Value: []byte("{not json")})
	assert.NoError(t, err)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	asker.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestHandleMessage_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		job    AdviceJob
		askErr error
		status string
	}{
		{"bad user id", AdviceJob{JobID: "j1", UserID: "nope", Question: "hi"}, nil, JobRejected},
		{"bad domain", AdviceJob{JobID: "j2", Domain: "crypto", Question: "hi"}, nil, JobRejected},
		{"service validation", AdviceJob{JobID: "j3", Question: ""}, errors.NewValidationError("question", "must not be empty", ""), JobRejected},
		{"service failure", AdviceJob{JobID: "j4", Question: "hi"}, errors.ErrInternal, JobFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := &mockAsker{}
			if tt.askErr != nil {
				asker.On("Ask", mock.Anything, mock.Anything).Return(nil, tt.askErr).Once()
			}

			pub := &mockPublisher{}
			var got *AdviceJobResult
			pub.On("Publish", mock.Anything, "advice.responses", tt.job.JobID, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(3).(*AdviceJobResult) }).
				Return(nil).Once()

			c := NewAdviceJobConsumer(nil, asker, pub, "", logger.NewNop())
			require.NoError(t, c.HandleMessage(context.Background(), jobMessage(t, tt.job)))

			require.NotNil(t, got)
			assert.Equal(t, tt.status, got.Status)
			assert.NotEmpty(t, got.Error)
			assert.Nil(t, got.Result)
			asker.AssertExpectations(t)
		})
	}
}

func TestHandleMessage_JobIDFallsBackToKey(t *testing.T) {
	asker := &mockAsker{}
	asker.On("Ask", mock.Anything, mock.MatchedBy(func(req advicesvc.Request) bool {
		return req.RequestID == "from-key" && req.Source == "kafka"
	})).Return(&advicesvc.Result{
		RequestID: "from-key",
		Response:  &response.Response{Text: "ok", Structured: response.StructuredData{Status: response.StatusGeneral}},
	}, nil).Once()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, "advice.responses", "from-key", mock.Anything).Return(nil).Once()

	c := NewAdviceJobConsumer(nil, asker, pub, "", logger.NewNop())
	msg := kafka.Message{Key: []byte("from-key"), Value: []byte(`{"question":"hello"}`)}
	require.NoError(t, c.HandleMessage(context.Background(), msg))

	asker.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestHandleMessage_PublishFailureIsReturned(t *testing.T) {
	asker := &mockAsker{}
	asker.On("Ask", mock.Anything, mock.Anything).Return(&advicesvc.Result{
		RequestID: "j",
		Response:  &response.Response{},
	}, nil)

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.ErrUnavailable)

	c := NewAdviceJobConsumer(nil, asker, pub, "", logger.NewNop())
	err := c.HandleMessage(context.Background(), jobMessage(t, AdviceJob{JobID: "j", Question: "hello"}))
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}
