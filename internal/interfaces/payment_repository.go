package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// PaymentRepository defines the contract for payment data access.
// Create fails with models.ErrDuplicateKey when the id or gateway reference
// already exists; FindByID and Update fail with models.ErrNotFound.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}
