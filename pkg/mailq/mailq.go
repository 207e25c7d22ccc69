// Package mailq is a redis-backed queue for outbound email. The challenge
// flow enqueues and returns immediately; a worker drains the queue and sends
// through notifx with bounded retries. Delivery failures therefore never
// block or fail an authentication request.
package mailq

import (
	"context"
	"time"
)

// EnvelopeStatus represents the delivery state of an envelope.
type EnvelopeStatus string

const (
	StatusPending   EnvelopeStatus = "pending"
	StatusSending   EnvelopeStatus = "sending"
	StatusDelivered EnvelopeStatus = "delivered"
	StatusRetrying  EnvelopeStatus = "retrying"
	StatusFailed    EnvelopeStatus = "failed"
)

// Envelope is an outbound email waiting in the queue.
type Envelope struct {
	ID         string         `json:"id"`
	To         string         `json:"to"`
	Subject    string         `json:"subject"`
	TextBody   string         `json:"text_body,omitempty"`
	HTMLBody   string         `json:"html_body,omitempty"`
	Status     EnvelopeStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	Attempts   int            `json:"attempts"`
	MaxRetries int            `json:"max_retries"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Enqueuer is the producer side of the queue. The challenge service depends
// on this interface only.
type Enqueuer interface {
	Enqueue(ctx context.Context, env Envelope) (string, error)
}

// Queue is the full backend contract used by the worker.
type Queue interface {
	Enqueuer

	// Dequeue blocks up to timeout for the next pending envelope, marking it
	// as sending. A nil envelope with nil error means timeout.
	Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error)

	// Delivered marks an envelope as sent.
	Delivered(ctx context.Context, id string) error

	// Fail records a delivery error. Returns true when the envelope still has
	// retries left.
	Fail(ctx context.Context, id string, errMsg string) (retry bool, err error)

	// Retry schedules a failed envelope for redelivery after delay.
	Retry(ctx context.Context, id string, delay time.Duration) error

	// PromoteScheduled moves due retries back onto the ready queue.
	PromoteScheduled(ctx context.Context) error
}
