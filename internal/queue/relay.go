// Package queue defines the lead relay queue: message payloads, the queue
// name shared by publisher and consumer, and the background consumer that
// delivers webhook jobs.
package queue

import "encoding/json"

// LeadQueueName is the durable queue carrying webhook jobs for captured leads.
const LeadQueueName = "lead.captured"

// Job labels identify the downstream automation a job targets.
const (
	LabelSheetIntake    = "sheet-intake"
	LabelWhatsAppNotify = "whatsapp-notify"
)

// WebhookJob is a fully-formed delivery instruction: the consumer POSTs
// Payload to URL and needs nothing else. Failures are logged and dropped,
// never retried, and can never reach the request that enqueued the job.
type WebhookJob struct {
	ID      string          `json:"id"`      // uuid, for log correlation
	Label   string          `json:"label"`   // which automation this feeds
	URL     string          `json:"url"`     // recipient webhook
	Payload json.RawMessage `json:"payload"` // body to POST as-is
}

// LeadPayload is the body relayed for a captured lead. The whatsapp job
// additionally carries the registration link.
type LeadPayload struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CapturedAt   string `json:"captured_at"`
	RegisterLink string `json:"register_link,omitempty"`
}
