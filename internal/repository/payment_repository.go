package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

const uniqueViolation = "23505"

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InitDB(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			payment_id VARCHAR(64) PRIMARY KEY,
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			phone_number VARCHAR(64) NOT NULL,
			amount NUMERIC(20,4) NOT NULL CHECK (amount > 0),
			state VARCHAR(255) NOT NULL,
			country VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			gateway_reference VARCHAR(255) NOT NULL UNIQUE CHECK (gateway_reference <> ''),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_customer_email ON payments(customer_email)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (payment_id, customer_name, customer_email, phone_number, amount,
			state, country, status, gateway_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, payment.ID, payment.CustomerName, payment.CustomerEmail, payment.PhoneNumber, payment.Amount,
		payment.State, payment.Country, payment.Status, payment.GatewayReference, payment.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("payment %s: %w", payment.ID, models.ErrDuplicateKey)
	}
	return err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT payment_id, customer_name, customer_email, phone_number, amount,
			state, country, status, gateway_reference, created_at
		FROM payments WHERE payment_id = $1
	`, id).Scan(&payment.ID, &payment.CustomerName, &payment.CustomerEmail, &payment.PhoneNumber, &payment.Amount,
		&payment.State, &payment.Country, &payment.Status, &payment.GatewayReference, &payment.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update overwrites every mutable column of the stored record. The id,
// gateway reference and creation time are never rewritten.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET customer_name = $1, customer_email = $2, phone_number = $3, amount = $4,
			state = $5, country = $6, status = $7, updated_at = NOW()
		WHERE payment_id = $8
	`, payment.CustomerName, payment.CustomerEmail, payment.PhoneNumber, payment.Amount,
		payment.State, payment.Country, payment.Status, payment.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
