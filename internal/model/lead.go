package model

import "time"

// Lead is a marketing capture record from the public landing page. Leads are
// append-only; they are written once and later forwarded to the automation
// webhooks by the relay consumer.
type Lead struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
