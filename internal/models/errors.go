package models

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrValidation               = errors.New("validation failed")
	ErrGatewayRejected          = errors.New("gateway rejected the request")
	ErrGatewayMalformedResponse = errors.New("malformed gateway response")
	ErrGatewayUnavailable       = errors.New("payment gateway unavailable")
	ErrInvalidGatewayReference  = errors.New("invalid gateway reference in payment record")
	ErrNotFound                 = errors.New("payment not found")
	ErrDuplicateKey             = errors.New("duplicate key")
)

type ValidationReason string

const (
	MissingField  ValidationReason = "missing_field"
	InvalidAmount ValidationReason = "invalid_amount"
)

// ValidationError reports a rejected request. Message, when set, replaces
// the default text for Reason.
type ValidationError struct {
	Reason  ValidationReason
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Reason {
	case InvalidAmount:
		return "Amount must be positive"
	default:
		if len(e.Fields) == 0 {
			return "Missing required fields"
		}
		return "Missing required fields: " + strings.Join(e.Fields, ", ")
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// GatewayRejectedError is returned when the gateway answers with an
// unsuccessful status. Raw holds the gateway body for diagnostics.
type GatewayRejectedError struct {
	Message string
	Raw     json.RawMessage
}

func (e *GatewayRejectedError) Error() string {
	if e.Message == "" {
		return "Failed to initialize gateway transaction"
	}
	return e.Message
}

func (e *GatewayRejectedError) Unwrap() error { return ErrGatewayRejected }

// GatewayMalformedError is returned when a gateway response does not have
// the shape the adapter requires.
type GatewayMalformedError struct {
	Message string
	Raw     json.RawMessage
}

func (e *GatewayMalformedError) Error() string {
	if e.Message == "" {
		return "Invalid response from payment gateway"
	}
	return e.Message
}

func (e *GatewayMalformedError) Unwrap() error { return ErrGatewayMalformedResponse }
