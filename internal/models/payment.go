package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusAbandoned PaymentStatus = "abandoned"
)

// IsTerminal reports whether the status is one of the settled outcomes the
// gateway is known to report. Pass-through statuses are not terminal.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusAbandoned:
		return true
	}
	return false
}

type Payment struct {
	ID               string          `json:"id"`
	CustomerName     string          `json:"customerName"`
	CustomerEmail    string          `json:"customerEmail"`
	PhoneNumber      string          `json:"phoneNumber"`
	Amount           decimal.Decimal `json:"amount"`
	State            string          `json:"state"`
	Country          string          `json:"country"`
	Status           PaymentStatus   `json:"status"`
	GatewayReference string          `json:"gatewayReference"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// CreatePaymentRequest is the inbound initiation body. Amount is a pointer so
// an absent amount can be told apart from a zero amount.
type CreatePaymentRequest struct {
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	PhoneNumber string           `json:"phone_number"`
	Email       string           `json:"email"`
	Amount      *decimal.Decimal `json:"amount"`
	State       string           `json:"state"`
	Country     string           `json:"country"`
}

// ValidatedPaymentRequest is a CreatePaymentRequest whose fields are all
// present, trimmed, and whose amount is strictly positive.
type ValidatedPaymentRequest struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	Amount      decimal.Decimal
	State       string
	Country     string
}

func (r ValidatedPaymentRequest) CustomerName() string {
	return r.FirstName + " " + r.LastName
}

type InitiatedPayment struct {
	ID               string `json:"id"`
	AuthorizationURL string `json:"authorization_url"`
}

// PaymentSummary is the view of a payment returned by the status endpoint.
type PaymentSummary struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
}

func (p *Payment) Summary() PaymentSummary {
	return PaymentSummary{
		ID:            p.ID,
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		Amount:        p.Amount.InexactFloat64(),
		Status:        p.Status,
	}
}
