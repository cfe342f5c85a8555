package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// MemoryPaymentRepository keeps payments in process memory. Records are
// copied on the way in and out so callers never share state with the store.
type MemoryPaymentRepository struct {
	mu         sync.RWMutex
	payments   map[string]models.Payment
	references map[string]string
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments:   make(map[string]models.Payment),
		references: make(map[string]string),
	}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return fmt.Errorf("payment %s: %w", payment.ID, models.ErrDuplicateKey)
	}
	if _, exists := r.references[payment.GatewayReference]; exists {
		return fmt.Errorf("gateway reference %s: %w", payment.GatewayReference, models.ErrDuplicateKey)
	}

	r.payments[payment.ID] = *payment
	r.references[payment.GatewayReference] = payment.ID
	return nil
}

func (r *MemoryPaymentRepository) FindByID(_ context.Context, id string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryPaymentRepository) Update(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[payment.ID]
	if !ok {
		return models.ErrNotFound
	}

	updated := *payment
	updated.GatewayReference = stored.GatewayReference
	updated.CreatedAt = stored.CreatedAt
	r.payments[payment.ID] = updated
	return nil
}

func (r *MemoryPaymentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.payments)
}
