package models

import "github.com/shopspring/decimal"

// InitiateParams is what the service hands the gateway adapter. Amount is in
// major units; the adapter converts it to the gateway's minor units.
type InitiateParams struct {
	Email    string
	Amount   decimal.Decimal
	Metadata map[string]string
}

type InitiateResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Gateway-reported transaction statuses the reconciliation mapping knows
// about. Any other string is forwarded verbatim.
const (
	GatewayStatusSuccess   = "success"
	GatewayStatusFailed    = "failed"
	GatewayStatusAbandoned = "abandoned"
)
