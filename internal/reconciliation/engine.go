// Package reconciliation derives a payment's local status from the status
// the gateway reports and commits it. After creation it is the only writer
// of Payment.Status.
package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/models"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

// MapGatewayStatus is total: the three known gateway statuses map onto their
// local equivalents and any other value is forwarded unchanged.
func MapGatewayStatus(gatewayStatus string) models.PaymentStatus {
	switch gatewayStatus {
	case models.GatewayStatusSuccess:
		return models.StatusCompleted
	case models.GatewayStatusFailed:
		return models.StatusFailed
	case models.GatewayStatusAbandoned:
		return models.StatusAbandoned
	default:
		return models.PaymentStatus(gatewayStatus)
	}
}

type Engine struct {
	repo      interfaces.PaymentRepository
	gateway   interfaces.PaymentGateway
	publisher interfaces.EventPublisher
	now       func() time.Time
}

func NewEngine(repo interfaces.PaymentRepository, gateway interfaces.PaymentGateway, publisher interfaces.EventPublisher) *Engine {
	return &Engine{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		now:       time.Now,
	}
}

// Reconcile queries the gateway for payment's transaction, writes the mapped
// status back to the store, and returns the updated record. On any error the
// stored record is left untouched. Re-running it on a settled payment
// rewrites the same status and emits nothing.
func (e *Engine) Reconcile(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if strings.TrimSpace(payment.GatewayReference) == "" {
		telemetry.Logger.Error("Payment has no usable gateway reference",
			zap.String("payment_id", payment.ID),
		)
		return nil, fmt.Errorf("payment %s: %w", payment.ID, models.ErrInvalidGatewayReference)
	}

	gatewayStatus, err := e.gateway.Verify(ctx, payment.GatewayReference)
	if err != nil {
		telemetry.Logger.Warn("Gateway verification failed",
			zap.String("payment_id", payment.ID),
			zap.String("gateway_reference", payment.GatewayReference),
			zap.Error(err),
		)
		return nil, err
	}

	previous := payment.Status
	updated := *payment
	updated.Status = MapGatewayStatus(gatewayStatus)

	if err := e.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update payment %s status: %w", payment.ID, err)
	}

	if updated.Status != previous {
		telemetry.Logger.Info("Payment status reconciled",
			zap.String("payment_id", payment.ID),
			zap.String("from_status", string(previous)),
			zap.String("to_status", string(updated.Status)),
			zap.String("gateway_status", gatewayStatus),
		)
		e.publishStatusChange(ctx, &updated, previous, gatewayStatus)
	}

	return &updated, nil
}

func (e *Engine) publishStatusChange(ctx context.Context, payment *models.Payment, previous models.PaymentStatus, gatewayStatus string) {
	if e.publisher == nil {
		return
	}
	err := e.publisher.Publish(ctx, models.PaymentEvent{
		Type:             models.EventPaymentStatusChanged,
		PaymentID:        payment.ID,
		GatewayReference: payment.GatewayReference,
		Amount:           payment.Amount.String(),
		Status:           payment.Status,
		PreviousStatus:   previous,
		GatewayStatus:    gatewayStatus,
		Timestamp:        e.now().UTC(),
	})
	if err != nil {
		telemetry.Logger.Error("Failed to publish payment status event",
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
	}
}
