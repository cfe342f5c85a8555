package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// StatusCache holds payments whose status is terminal so repeated status
// reads can skip the gateway. Get reports found=false on a miss.
type StatusCache interface {
	Get(ctx context.Context, id string) (payment *models.Payment, found bool, err error)
	Set(ctx context.Context, payment *models.Payment, ttl time.Duration) error
}
