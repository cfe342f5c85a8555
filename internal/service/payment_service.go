package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/models"
	"github.com/akylbek/payment-system/payments-api/internal/reconciliation"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
	"github.com/akylbek/payment-system/payments-api/internal/validation"
)

type Options struct {
	Publisher      interfaces.EventPublisher
	StatusCache    interfaces.StatusCache
	StatusCacheTTL time.Duration
	Metrics        *telemetry.Metrics
}

// PaymentService sequences the initiation and verification paths.
// It holds no per-request state.
type PaymentService struct {
	repo    interfaces.PaymentRepository
	gateway interfaces.PaymentGateway
	engine  *reconciliation.Engine
	opts    Options
	newID   func() string
	now     func() time.Time
}

func NewPaymentService(repo interfaces.PaymentRepository, gateway interfaces.PaymentGateway, opts Options) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		engine:  reconciliation.NewEngine(repo, gateway, opts.Publisher),
		opts:    opts,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// InitiatePayment validates req, opens a gateway transaction and persists a
// pending payment. Nothing is persisted unless every step succeeds.
func (s *PaymentService) InitiatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.InitiatedPayment, error) {
	valid, err := validation.ValidatePaymentRequest(req)
	if err != nil {
		s.opts.Metrics.PaymentInitiated("validation_error")
		return nil, err
	}

	paymentID := s.newID()
	customerName := valid.CustomerName()

	telemetry.Logger.Info("Initiating payment",
		zap.String("payment_id", paymentID),
		zap.String("amount", valid.Amount.String()),
		zap.String("trace_id", telemetry.TraceID(ctx)),
	)

	result, err := s.gateway.Initiate(ctx, models.InitiateParams{
		Email:  valid.Email,
		Amount: valid.Amount,
		Metadata: map[string]string{
			"payment_id":    paymentID,
			"customer_name": customerName,
			"phone_number":  valid.PhoneNumber,
			"state":         valid.State,
			"country":       valid.Country,
		},
	})
	if err != nil {
		s.opts.Metrics.PaymentInitiated(outcomeLabel(err))
		telemetry.Logger.Warn("Gateway initiation failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return nil, err
	}
	if strings.TrimSpace(result.Reference) == "" {
		s.opts.Metrics.PaymentInitiated("gateway_malformed")
		return nil, &models.GatewayMalformedError{Message: "Payment gateway returned no transaction reference"}
	}

	payment := &models.Payment{
		ID:               paymentID,
		CustomerName:     customerName,
		CustomerEmail:    valid.Email,
		PhoneNumber:      valid.PhoneNumber,
		Amount:           valid.Amount,
		State:            valid.State,
		Country:          valid.Country,
		Status:           models.StatusPending,
		GatewayReference: result.Reference,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		s.opts.Metrics.PaymentInitiated("store_error")
		telemetry.Logger.Error("Failed to save payment, gateway transaction left orphaned",
			zap.String("payment_id", paymentID),
			zap.String("gateway_reference", result.Reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save payment %s: %w", paymentID, err)
	}

	s.publish(ctx, models.PaymentEvent{
		Type:             models.EventPaymentInitiated,
		PaymentID:        payment.ID,
		GatewayReference: payment.GatewayReference,
		Amount:           payment.Amount.String(),
		Status:           payment.Status,
		Timestamp:        payment.CreatedAt,
	})

	s.opts.Metrics.PaymentInitiated("success")
	telemetry.Logger.Info("Payment initiated successfully",
		zap.String("payment_id", payment.ID),
		zap.String("gateway_reference", payment.GatewayReference),
	)

	return &models.InitiatedPayment{
		ID:               payment.ID,
		AuthorizationURL: result.AuthorizationURL,
	}, nil
}

// VerifyPayment reconciles the payment with the gateway and returns the
// updated record. With the status cache enabled, payments already known to
// be terminal are answered from the cache.
func (s *PaymentService) VerifyPayment(ctx context.Context, id string) (*models.Payment, error) {
	if cached := s.cachedPayment(ctx, id); cached != nil {
		s.opts.Metrics.PaymentVerified(statusLabel(cached.Status))
		return cached, nil
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.opts.Metrics.PaymentVerified("not_found")
			return nil, err
		}
		return nil, fmt.Errorf("find payment %s: %w", id, err)
	}

	updated, err := s.engine.Reconcile(ctx, payment)
	if err != nil {
		s.opts.Metrics.PaymentVerified(outcomeLabel(err))
		return nil, err
	}
	s.opts.Metrics.PaymentVerified(statusLabel(updated.Status))

	s.cachePayment(ctx, updated)
	return updated, nil
}

// statusLabel bounds the metric label to the local statuses. Pass-through
// gateway statuses are counted as "other".
func statusLabel(status models.PaymentStatus) string {
	if status == models.StatusPending || status.IsTerminal() {
		return string(status)
	}
	return "other"
}

func (s *PaymentService) cachedPayment(ctx context.Context, id string) *models.Payment {
	if s.opts.StatusCache == nil || s.opts.StatusCacheTTL <= 0 {
		return nil
	}
	payment, found, err := s.opts.StatusCache.Get(ctx, id)
	if err != nil {
		telemetry.Logger.Warn("Status cache lookup failed", zap.String("payment_id", id), zap.Error(err))
		return nil
	}
	s.opts.Metrics.StatusCacheLookup(found)
	if !found {
		return nil
	}
	return payment
}

func (s *PaymentService) cachePayment(ctx context.Context, payment *models.Payment) {
	if s.opts.StatusCache == nil || s.opts.StatusCacheTTL <= 0 || !payment.Status.IsTerminal() {
		return
	}
	if err := s.opts.StatusCache.Set(ctx, payment, s.opts.StatusCacheTTL); err != nil {
		telemetry.Logger.Warn("Failed to cache payment status", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

func (s *PaymentService) publish(ctx context.Context, event models.PaymentEvent) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.Publish(ctx, event); err != nil {
		telemetry.Logger.Error("Failed to publish payment event",
			zap.String("payment_id", event.PaymentID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrGatewayRejected):
		return "gateway_rejected"
	case errors.Is(err, models.ErrGatewayMalformedResponse):
		return "gateway_malformed"
	case errors.Is(err, models.ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, models.ErrInvalidGatewayReference):
		return "invalid_reference"
	default:
		return "error"
	}
}
