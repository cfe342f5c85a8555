// Package events publishes payment lifecycle events to the message buses.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// MultiPublisher fans an event out to every configured publisher and
// returns the joined errors of those that failed.
type MultiPublisher struct {
	publishers []interfaces.EventPublisher
}

func NewMultiPublisher(publishers ...interfaces.EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

func (m *MultiPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}

func encode(event models.PaymentEvent) ([]byte, error) {
	return json.Marshal(event)
}
