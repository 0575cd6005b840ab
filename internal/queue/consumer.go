package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// httpClient bounds every webhook delivery. A hung automation endpoint must
// not pin a consumer goroutine forever.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// StartLeadRelayConsumer connects to RabbitMQ, declares the lead.captured
// queue (durable) and delivers webhook jobs. Each job is POSTed to its URL;
// delivery failures are logged and the message is dropped — no retries, and
// nothing propagates back to the request that captured the lead. The
// function runs a reconnect loop with exponential backoff and never returns
// under normal operation.
func StartLeadRelayConsumer(amqpURL string) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(amqpURL)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("lead-relay: broker dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Warn().Err(err).Msg("lead-relay: consume loop ended, reconnecting")
			time.Sleep(2 * time.Second)
		}
		_ = conn.Close()
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn().Err(err).Msg("lead-relay: set QoS failed")
	}
	if _, err := ch.QueueDeclare(LeadQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(LeadQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := deliver(d.Body); err != nil {
			log.Error().Err(err).Msg("lead-relay: delivery failed, dropping job")
			_ = d.Nack(false, false) // no requeue: failures are logged only
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// deliver POSTs the job payload to its webhook URL. Non-2xx responses count
// as failures so they show up in the logs.
func deliver(body []byte) error {
	var job WebhookJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}
	if job.URL == "" {
		return fmt.Errorf("job %s (%s) has no target URL", job.ID, job.Label)
	}

	resp, err := httpClient.Post(job.URL, "application/json", bytes.NewReader(job.Payload))
	if err != nil {
		return fmt.Errorf("post %s job %s: %w", job.Label, job.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s job %s: status %d", job.Label, job.ID, resp.StatusCode)
	}
	log.Info().Str("job_id", job.ID).Str("label", job.Label).Msg("webhook delivered")
	return nil
}
