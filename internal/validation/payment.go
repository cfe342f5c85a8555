// Package validation checks inbound payment requests. It performs no I/O.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// MaxAmount is the exclusive upper bound on a payment amount: 16 integer
// digits, the range of the stored NUMERIC(20,4) column.
var MaxAmount = decimal.New(1, 16)

// ValidatePaymentRequest returns the trimmed request, or a
// *models.ValidationError naming every missing field. The amount range is
// only checked once all fields are present.
func ValidatePaymentRequest(req *models.CreatePaymentRequest) (models.ValidatedPaymentRequest, error) {
	if req == nil {
		return models.ValidatedPaymentRequest{}, &models.ValidationError{Reason: models.MissingField}
	}

	out := models.ValidatedPaymentRequest{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
		State:       strings.TrimSpace(req.State),
		Country:     strings.TrimSpace(req.Country),
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"first_name", out.FirstName},
		{"last_name", out.LastName},
		{"phone_number", out.PhoneNumber},
		{"email", out.Email},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if req.Amount == nil {
		missing = append(missing, "amount")
	}
	if out.State == "" {
		missing = append(missing, "state")
	}
	if out.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return models.ValidatedPaymentRequest{}, &models.ValidationError{Reason: models.MissingField, Fields: missing}
	}

	if !req.Amount.IsPositive() {
		return models.ValidatedPaymentRequest{}, &models.ValidationError{Reason: models.InvalidAmount, Fields: []string{"amount"}}
	}
	if req.Amount.GreaterThanOrEqual(MaxAmount) {
		return models.ValidatedPaymentRequest{}, &models.ValidationError{
			Reason:  models.InvalidAmount,
			Fields:  []string{"amount"},
			Message: "Amount is too large",
		}
	}
	out.Amount = *req.Amount

	return out, nil
}
