package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

const attemptHeader = "x-attempt"

type PipelineRunner interface {
	Run(ctx context.Context, projectID string) error
}

type FinishedRecorder interface {
	RecordCompleted(ctx context.Context, projectID string) error
	RecordFailed(ctx context.Context, projectID string) error
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PipelineConsumer pulls work items one at a time (prefetch 1) and runs the
// pipeline to completion before taking the next delivery, so no two runs
// are ever active at once. Failed items are retried with exponential
// backoff by republishing with an incremented attempt header; after the
// attempt ceiling they land in the bounded failed-item record.
type PipelineConsumer struct {
	channel    *amqp.Channel
	publisher  amqpPublisher
	exchange   string
	routingKey string
	queue      string

	Runner  PipelineRunner
	Records FinishedRecorder
	Log     *zap.Logger

	maxAttempts int
	baseBackoff time.Duration
}

func NewPipelineConsumer(conn *amqp.Connection, exchange, routingKey, queue string, runner PipelineRunner, records FinishedRecorder, log *zap.Logger) (*PipelineConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &PipelineConsumer{
		channel:    ch,
		publisher:  ch,
		exchange:   exchange,
		routingKey: routingKey,
		queue:      queue,

		Runner:  runner,
		Records: records,
		Log:     log,

		maxAttempts: 3,
		baseBackoff: 3 * time.Second,
	}

	// Declare the exchange here too so a worker started against a fresh
	// broker does not depend on the API having run first.
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true, // durable
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	// Global concurrency is 1: one unacked delivery at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *PipelineConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			c.Log.Info("pipeline consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.Log.Warn("rabbitmq channel closed")
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *PipelineConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var item entity.WorkItem
	if err := json.Unmarshal(msg.Body, &item); err != nil {
		c.Log.Error("failed to unmarshal work item", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	attempt := attemptFrom(msg.Headers)

	runErr := c.Runner.Run(ctx, item.ProjectID)
	if runErr == nil {
		msg.Ack(false)
		if err := c.Records.RecordCompleted(ctx, item.ProjectID); err != nil {
			c.Log.Warn("failed to record completion", zap.String("project_id", item.ProjectID), zap.Error(err))
		}
		return
	}

	if attempt >= c.maxAttempts {
		c.Log.Error("work item exhausted retries",
			zap.String("project_id", item.ProjectID),
			zap.Int("attempts", attempt),
			zap.Error(runErr))
		msg.Ack(false)
		if err := c.Records.RecordFailed(ctx, item.ProjectID); err != nil {
			c.Log.Warn("failed to record failure", zap.String("project_id", item.ProjectID), zap.Error(err))
		}
		return
	}

	backoff := c.backoffFor(attempt)
	c.Log.Warn("work item failed, retrying",
		zap.String("project_id", item.ProjectID),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", backoff),
		zap.Error(runErr))

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		// Leave the delivery unacked so the broker redelivers it
		// after the process goes away.
		return
	}

	if err := c.republish(ctx, msg.Body, attempt+1); err != nil {
		c.Log.Error("failed to republish work item",
			zap.String("project_id", item.ProjectID), zap.Error(err))
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

func (c *PipelineConsumer) republish(ctx context.Context, body []byte, attempt int) error {
	return c.publisher.PublishWithContext(ctx,
		c.exchange,
		c.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{attemptHeader: int32(attempt)},
			Body:         body,
		},
	)
}

func (c *PipelineConsumer) backoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return c.baseBackoff << (attempt - 1)
}

func attemptFrom(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	switch v := headers[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}
