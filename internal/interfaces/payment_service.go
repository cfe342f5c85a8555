package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.InitiatedPayment, error)
	VerifyPayment(ctx context.Context, id string) (*models.Payment, error)
}
