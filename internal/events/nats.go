package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

const subjectPrefix = "payments."

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(_ context.Context, event models.PaymentEvent) error {
	data, err := encode(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	if err := p.conn.Publish(Subject(event.Type), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", event.Type, err)
	}
	return nil
}

// Close drains the connection so buffered events are flushed.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Subject maps an event type such as "payment.initiated" to the NATS
// subject "payments.initiated".
func Subject(eventType string) string {
	if rest, ok := strings.CutPrefix(eventType, "payment."); ok && rest != "" {
		return subjectPrefix + rest
	}
	return subjectPrefix + eventType
}
