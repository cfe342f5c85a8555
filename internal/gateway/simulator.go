package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

// Simulator is an in-process gateway for local runs and tests. Every
// transaction starts with the default outcome, which can be overridden per
// reference.
type Simulator struct {
	mu             sync.Mutex
	checkoutURL    string
	defaultOutcome string
	outcomes       map[string]string
	rejectNext     string
}

func NewSimulator(checkoutURL string) *Simulator {
	if checkoutURL == "" {
		checkoutURL = "https://checkout.simulated.local"
	}
	return &Simulator{
		checkoutURL:    strings.TrimRight(checkoutURL, "/"),
		defaultOutcome: models.GatewayStatusSuccess,
		outcomes:       make(map[string]string),
	}
}

func (s *Simulator) Initiate(ctx context.Context, params models.InitiateParams) (*models.InitiateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("initiate: %w: %v", models.ErrGatewayUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.rejectNext; msg != "" {
		s.rejectNext = ""
		return nil, &models.GatewayRejectedError{Message: msg}
	}
	if !ToMinorUnits(params.Amount).IsPositive() {
		return nil, &models.GatewayRejectedError{Message: "Invalid amount"}
	}

	ref := "sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.outcomes[ref] = s.defaultOutcome
	return &models.InitiateResult{
		Reference:        ref,
		AuthorizationURL: s.checkoutURL + "/" + ref,
		AccessCode:       ref[len(ref)-10:],
	}, nil
}

func (s *Simulator) Verify(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("verify: %w: %v", models.ErrGatewayUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.outcomes[reference]
	if !ok {
		return "", &models.GatewayMalformedError{Message: "Transaction reference not found"}
	}
	return status, nil
}

// SetOutcome sets the status Verify reports for reference.
func (s *Simulator) SetOutcome(reference, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[reference] = status
}

// SetDefaultOutcome sets the status assigned to newly initiated transactions.
func (s *Simulator) SetDefaultOutcome(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultOutcome = status
}

// RejectNext makes the next Initiate call fail with message.
func (s *Simulator) RejectNext(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectNext = message
}
