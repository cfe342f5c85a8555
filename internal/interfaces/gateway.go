package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// PaymentGateway is the typed boundary over the external payment gateway.
// Verify returns the gateway's own status string (success, failed,
// abandoned or anything else it reports).
type PaymentGateway interface {
	Initiate(ctx context.Context, params models.InitiateParams) (*models.InitiateResult, error)
	Verify(ctx context.Context, reference string) (string, error)
}
