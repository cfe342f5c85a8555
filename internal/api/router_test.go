package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/akylbek/payment-system/payments-api/internal/gateway"
	"github.com/akylbek/payment-system/payments-api/internal/models"
	"github.com/akylbek/payment-system/payments-api/internal/repository"
	"github.com/akylbek/payment-system/payments-api/internal/service"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

const validBody = `{"first_name":"Test","last_name":"User","phone_number":"1234567890","email":"test@example.com","amount":100,"state":"Lagos","country":"NG"}`

type PaymentAPITestSuite struct {
	suite.Suite
	repo   *repository.MemoryPaymentRepository
	sim    *gateway.Simulator
	router *gin.Engine
}

func (s *PaymentAPITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()

	s.repo = repository.NewMemoryPaymentRepository()
	s.sim = gateway.NewSimulator("https://checkout.test")
	svc := service.NewPaymentService(s.repo, s.sim, service.Options{
		Metrics: telemetry.NewMetrics(reg),
	})
	s.router = NewRouter(svc, RouterConfig{
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func (s *PaymentAPITestSuite) request(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (s *PaymentAPITestSuite) initiate() string {
	w, body := s.request(http.MethodPost, "/api/v1/payments", validBody)
	s.Require().Equal(http.StatusCreated, w.Code)
	return body["payment"].(map[string]any)["id"].(string)
}

func (s *PaymentAPITestSuite) TestInitiatePayment() {
	w, body := s.request(http.MethodPost, "/api/v1/payments", validBody)

	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal("success", body["status"])
	payment := body["payment"].(map[string]any)
	id, _ := payment["id"].(string)
	s.NotEmpty(id)
	s.NotEmpty(payment["authorization_url"])

	stored, err := s.repo.FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.True(stored.Amount.Equal(decimal.NewFromInt(100)))
	s.Equal(models.StatusPending, stored.Status)
	s.NotEmpty(stored.GatewayReference)
	s.Equal("Lagos", stored.State)
	s.Equal("NG", stored.Country)
}

func (s *PaymentAPITestSuite) TestInitiateEmptyBody() {
	w, body := s.request(http.MethodPost, "/api/v1/payments", `{}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("error", body["status"])
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestInitiateMissingEachField() {
	for _, field := range []string{"first_name", "last_name", "phone_number", "email", "amount", "state", "country"} {
		var req map[string]any
		s.Require().NoError(json.Unmarshal([]byte(validBody), &req))
		delete(req, field)
		raw, _ := json.Marshal(req)

		w, _ := s.request(http.MethodPost, "/api/v1/payments", string(raw))
		s.Equal(http.StatusBadRequest, w.Code, field)
	}
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestInitiateNonPositiveAmount() {
	for _, amount := range []string{"0", "-10", "-0.5"} {
		body := `{"first_name":"Test","last_name":"User","phone_number":"1","email":"a@b.c","amount":` + amount + `,"state":"Lagos","country":"NG"}`
		w, decoded := s.request(http.MethodPost, "/api/v1/payments", body)
		s.Equal(http.StatusBadRequest, w.Code, amount)
		s.Equal("Amount must be positive", decoded["message"])
	}
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestInitiateAmountTooLarge() {
	body := `{"first_name":"Test","last_name":"User","phone_number":"1","email":"a@b.c","amount":184467440737095517.16,"state":"Lagos","country":"NG"}`
	w, decoded := s.request(http.MethodPost, "/api/v1/payments", body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Amount is too large", decoded["message"])
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestGatewayUnavailableIsInternalError() {
	down := &stubGateway{
		InitiateFunc: func(context.Context, models.InitiateParams) (*models.InitiateResult, error) {
			return nil, fmt.Errorf("initiate: %w: dial tcp: connection refused", models.ErrGatewayUnavailable)
		},
		VerifyFunc: func(context.Context, string) (string, error) {
			return "", fmt.Errorf("verify: %w: context deadline exceeded", models.ErrGatewayUnavailable)
		},
	}
	s.router = NewRouter(service.NewPaymentService(s.repo, down, service.Options{}), RouterConfig{})

	w, body := s.request(http.MethodPost, "/api/v1/payments", validBody)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Internal server error", body["message"])
	s.Equal(0, s.repo.Len())

	s.Require().NoError(s.repo.Create(context.Background(), &models.Payment{
		ID:               "pay_down",
		Amount:           decimal.NewFromInt(10),
		Status:           models.StatusPending,
		GatewayReference: "ref_down",
	}))
	w, body = s.request(http.MethodGet, "/api/v1/payments/pay_down", "")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Internal server error", body["message"])
}

func (s *PaymentAPITestSuite) TestInitiateGatewayRejected() {
	s.sim.RejectNext("Invalid Email Address Passed")

	w, body := s.request(http.MethodPost, "/api/v1/payments", validBody)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid Email Address Passed", body["message"])
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestVerifyCompletedPayment() {
	id := s.initiate()

	w, body := s.request(http.MethodGet, "/api/v1/payments/"+id, "")
	s.Require().Equal(http.StatusOK, w.Code)
	payment := body["payment"].(map[string]any)
	s.Equal(id, payment["id"])
	s.Equal("completed", payment["status"])
	s.Equal("Test User", payment["customerName"])
	s.Equal("test@example.com", payment["customerEmail"])
	s.Equal(100.0, payment["amount"])
}

func (s *PaymentAPITestSuite) TestVerifyIsIdempotent() {
	id := s.initiate()

	_, first := s.request(http.MethodGet, "/api/v1/payments/"+id, "")
	_, second := s.request(http.MethodGet, "/api/v1/payments/"+id, "")
	s.Equal(first["payment"], second["payment"])
}

func (s *PaymentAPITestSuite) TestVerifyGatewayStatuses() {
	tests := map[string]string{
		"success":   "completed",
		"failed":    "failed",
		"abandoned": "abandoned",
		"ongoing":   "ongoing",
	}
	for gatewayStatus, want := range tests {
		id := s.initiate()
		stored, err := s.repo.FindByID(context.Background(), id)
		s.Require().NoError(err)
		s.sim.SetOutcome(stored.GatewayReference, gatewayStatus)

		w, body := s.request(http.MethodGet, "/api/v1/payments/"+id, "")
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal(want, body["payment"].(map[string]any)["status"], gatewayStatus)
	}
}

func (s *PaymentAPITestSuite) TestVerifyUnknownPayment() {
	w, body := s.request(http.MethodGet, "/api/v1/payments/does-not-exist", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Payment not found", body["message"])
	s.Equal(0, s.repo.Len())
}

func (s *PaymentAPITestSuite) TestHealthAndMetrics() {
	w, body := s.request(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", body["status"])

	s.initiate()
	w, _ = s.request(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `payments_initiated_total{outcome="success"} 1`)
}

func (s *PaymentAPITestSuite) TestUnknownRoute() {
	w, body := s.request(http.MethodGet, "/api/v2/payments", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("error", body["status"])
}

func TestPaymentAPITestSuite(t *testing.T) {
	suite.Run(t, new(PaymentAPITestSuite))
}

type stubGateway struct {
	InitiateFunc func(ctx context.Context, params models.InitiateParams) (*models.InitiateResult, error)
	VerifyFunc   func(ctx context.Context, reference string) (string, error)
}

func (g *stubGateway) Initiate(ctx context.Context, params models.InitiateParams) (*models.InitiateResult, error) {
	return g.InitiateFunc(ctx, params)
}

func (g *stubGateway) Verify(ctx context.Context, reference string) (string, error) {
	return g.VerifyFunc(ctx, reference)
}
