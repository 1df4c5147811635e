package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	kafkaadapter "finadvisor/internal/adapters/kafka"
	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/internal/response"
	advicesvc "finadvisor/internal/services/advice"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// Job statuses reported on the response topic
const (
	JobCompleted = "completed"
	JobRejected  = "rejected"
	JobFailed    = "failed"
)

// AdviceJob is one question submitted through the job layer
type AdviceJob struct {
	JobID    string                 `json:"job_id"`
	UserID   string                 `json:"user_id,omitempty"`
	Domain   string                 `json:"domain,omitempty"`
	Question string                 `json:"question"`
	Context  *profile.ClientProfile `json:"context,omitempty"`
	Seed     uint64                 `json:"seed,omitempty"`
}

// AdviceJobResult is published to the response topic keyed by job id
type AdviceJobResult struct {
	JobID       string             `json:"job_id"`
	RequestID   string             `json:"request_id,omitempty"`
	Status      string             `json:"status"`
	Error       string             `json:"error,omitempty"`
	Result      *response.Envelope `json:"result,omitempty"`
	CompletedAt time.Time          `json:"completed_at"`
}

// AdviceAsker is the part of the advice service the consumer drives
type AdviceAsker interface {
	Ask(ctx context.Context, req advicesvc.Request) (*advicesvc.Result, error)
}

// AdviceJobConsumer answers advice jobs from Kafka and publishes the results.
// Every message is committed; a malformed job is logged and dropped.
type AdviceJobConsumer struct {
	consumer      *kafkaadapter.Consumer
	service       AdviceAsker
	publisher     kafkaadapter.Publisher
	responseTopic string
	jobTimeout    time.Duration
	log           *logger.Logger
}

// NewAdviceJobConsumer creates a new advice job consumer
func NewAdviceJobConsumer(
	consumer *kafkaadapter.Consumer,
	service AdviceAsker,
	publisher kafkaadapter.Publisher,
	responseTopic string,
	log *logger.Logger,
) *AdviceJobConsumer {
	if responseTopic == "" {
		responseTopic = kafkaadapter.TopicAdviceResponses
	}
	return &AdviceJobConsumer{
		consumer:      consumer,
		service:       service,
		publisher:     publisher,
		responseTopic: responseTopic,
		jobTimeout:    30 * time.Second,
		log:           log.With("component", "advice_job_consumer"),
	}
}

// Start consumes jobs until ctx is cancelled
func (c *AdviceJobConsumer) Start(ctx context.Context) error {
	c.log.Info("Starting advice job consumer...")

	defer func() {
		c.log.Info("Closing advice job consumer...")
		if err := c.consumer.Close(); err != nil {
			c.log.Errorw("Failed to close advice job consumer", "error", err)
		} else {
			c.log.Info("✓ Advice job consumer closed")
		}
	}()

	err := c.consumer.Consume(ctx, c.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleMessage answers one job. Only a failed publish is returned.
func (c *AdviceJobConsumer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	metrics.KafkaMessages.WithLabelValues(msg.Topic, "consumed").Inc()

	var job AdviceJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		metrics.AdviceJobs.WithLabelValues("malformed").Inc()
		c.log.Warnw("Dropping malformed advice job",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if job.JobID == "" {
		job.JobID = string(msg.Key)
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	// Processing runs detached so shutdown does not abandon a half-answered job
	processCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.jobTimeout)
	defer cancel()

	result := c.process(processCtx, job)
	metrics.AdviceJobs.WithLabelValues(result.Status).Inc()

	if err := c.publisher.Publish(processCtx, c.responseTopic, job.JobID, result); err != nil {
		return errors.Wrapf(err, "publish result for job %s", job.JobID)
	}
	metrics.KafkaMessages.WithLabelValues(c.responseTopic, "produced").Inc()

	c.log.Debugw("Advice job answered", "job_id", job.JobID, "status", result.Status)
	return nil
}

func (c *AdviceJobConsumer) process(ctx context.Context, job AdviceJob) *AdviceJobResult {
	result := &AdviceJobResult{JobID: job.JobID}

	req, err := toRequest(job)
	if err == nil {
		var res *advicesvc.Result
		res, err = c.service.Ask(ctx, req)
		if err == nil {
			env := res.Response.Envelope()
			result.RequestID = res.RequestID
			result.Status = JobCompleted
			result.Result = &env
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, errors.ErrInvalidInput):
		result.Status = JobRejected
		result.Error = err.Error()
	default:
		c.log.ErrorWithContext(ctx, err, map[string]string{"component": "advice_job_consumer", "job_id": job.JobID})
		result.Status = JobFailed
		result.Error = "internal error"
	}

	result.CompletedAt = time.Now().UTC()
	return result
}

// toRequest uses the job id as the request id so a redelivered job with no
// explicit seed reproduces the same simulation.
func toRequest(job AdviceJob) (advicesvc.Request, error) {
	req := advicesvc.Request{
		RequestID: job.JobID,
		Question:  job.Question,
		Context:   job.Context,
		Seed:      job.Seed,
		Source:    "kafka",
	}
	if job.UserID != "" {
		id, err := uuid.Parse(job.UserID)
		if err != nil {
			return req, errors.NewValidationError("user_id", "must be a UUID", job.UserID)
		}
		req.UserID = id
	}
	if job.Domain != "" {
		d, err := advice.ParseDomain(job.Domain)
		if err != nil {
			return req, err
		}
		req.Domain = d
	}
	return req, nil
}
