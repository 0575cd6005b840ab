// Package queue_publisher publishes webhook jobs to RabbitMQ. Errors are
// logged and returned so callers can ignore failures without interrupting
// the request flow that produced the job.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	q "github.com/shutterbloom/booking-api/internal/queue"
)

// PublishWebhookJob publishes a job to the lead.captured queue. It never
// panics; any error is logged and returned for the caller to ignore.
// Messages are marked persistent so they survive broker restarts.
func PublishWebhookJob(ctx context.Context, amqpURL string, job q.WebhookJob) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so jobs survive broker restarts.
	if _, err := ch.QueueDeclare(q.LeadQueueName, true, false, false, false, nil); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: marshal job failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.LeadQueueName, false, false, pub); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: publish failed")
		return err
	}
	log.Debug().Str("job_id", job.ID).Str("label", job.Label).Msg("webhook job published")
	return nil
}
