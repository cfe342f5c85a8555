package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, event models.PaymentEvent) error
	Close() error
}
