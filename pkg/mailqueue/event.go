// Package mailqueue publishes and consumes digest email events over
// RabbitMQ. The dispatcher enqueues one event per subscription with
// matches; the consumer hands each event to the email service.
package mailqueue

import "time"

// DigestListing is one matched listing inside a digest email.
type DigestListing struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	FirmName    string     `json:"firm_name"`
	Location    string     `json:"location,omitempty"`
	ClickURL    string     `json:"click_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// DigestEmailEvent is the payload enqueued for each digest to send.
type DigestEmailEvent struct {
	SubscriptionID uint            `json:"subscription_id"`
	UserID         uint            `json:"user_id"`
	Email          string          `json:"email"`
	UserName       string          `json:"user_name,omitempty"`
	Frequency      string          `json:"frequency"`
	Listings       []DigestListing `json:"listings"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
