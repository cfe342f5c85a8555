package models

import "time"

const (
	EventPaymentInitiated     = "payment.initiated"
	EventPaymentStatusChanged = "payment.status.changed"
)

type PaymentEvent struct {
	Type             string        `json:"type"`
	PaymentID        string        `json:"payment_id"`
	GatewayReference string        `json:"gateway_reference"`
	Amount           string        `json:"amount"`
	Status           PaymentStatus `json:"status"`
	PreviousStatus   PaymentStatus `json:"previous_status,omitempty"`
	GatewayStatus    string        `json:"gateway_status,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}
