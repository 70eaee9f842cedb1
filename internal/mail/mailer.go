// Package mail defines the transactional email contract and the dispatcher
// that hands send jobs to the delivery queue.
package mail

import (
	"encoding/json"
	"fmt"

	"miromiro/pkg/rabbitmq"
)

// Message is a single transactional email. Either HTML or Text carries the
// body; both may be set.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Mailer sends a single message. Send returns once the message has been
// accepted by the dispatch transport; delivery itself is asynchronous.
type Mailer interface {
	Send(msg Message) error
}

// QueueDispatcher implements Mailer by publishing send jobs to the RabbitMQ
// mail queue. A publish failure is a send failure for the caller.
type QueueDispatcher struct {
	mq *rabbitmq.Client
}

// NewQueueDispatcher creates a dispatcher over an existing queue client.
func NewQueueDispatcher(mq *rabbitmq.Client) *QueueDispatcher {
	return &QueueDispatcher{mq: mq}
}

// Send serializes the message and publishes it to the mail queue.
func (d *QueueDispatcher) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail message has no recipient")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}
	if err := d.mq.PublishMailJob(body); err != nil {
		return fmt.Errorf("failed to dispatch mail to %s: %w", msg.To, err)
	}
	return nil
}
