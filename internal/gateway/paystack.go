package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/models"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

// minorUnitsPerMajor is the gateway's amount multiplier (kobo per naira).
var minorUnitsPerMajor = decimal.NewFromInt(100)

const maxResponseBytes = 1 << 20

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

type PaystackClient struct {
	cfg     PaystackConfig
	http    *http.Client
	metrics *telemetry.Metrics
}

func NewPaystackClient(cfg PaystackConfig, metrics *telemetry.Metrics) *PaystackClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PaystackClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: metrics,
	}
}

// ToMinorUnits converts a major-unit amount to the gateway's integer
// minor units, rounding half away from zero. The result stays a decimal so
// it is never truncated to a machine integer on the way to the gateway.
func ToMinorUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(minorUnitsPerMajor).Round(0)
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      string            `json:"amount"`
	Reference   string            `json:"reference,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// envelope is the outer shape shared by every Paystack response. Pointer
// fields distinguish absent keys from zero values.
type envelope struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL *string `json:"authorization_url"`
	AccessCode       string  `json:"access_code"`
	Reference        *string `json:"reference"`
}

type verifyData struct {
	Status    *string `json:"status"`
	Reference string  `json:"reference"`
}

func (c *PaystackClient) Initiate(ctx context.Context, params models.InitiateParams) (*models.InitiateResult, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       params.Email,
		Amount:      ToMinorUnits(params.Amount).String(),
		CallbackURL: c.cfg.CallbackURL,
		Metadata:    params.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode initialize request: %w", err)
	}

	raw, err := c.do(ctx, "initiate", http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if !*env.Status {
		return nil, &models.GatewayRejectedError{Message: env.Message, Raw: rawJSON(raw)}
	}

	var data initializeData
	if err := decodeObject(env.Data, &data); err != nil {
		return nil, &models.GatewayMalformedError{Message: "Invalid initialization data from payment gateway", Raw: rawJSON(raw)}
	}
	if data.Reference == nil || strings.TrimSpace(*data.Reference) == "" {
		return nil, &models.GatewayMalformedError{Message: "Payment gateway returned no transaction reference", Raw: rawJSON(raw)}
	}
	if data.AuthorizationURL == nil || *data.AuthorizationURL == "" {
		return nil, &models.GatewayMalformedError{Message: "Payment gateway returned no authorization URL", Raw: rawJSON(raw)}
	}

	return &models.InitiateResult{
		Reference:        *data.Reference,
		AuthorizationURL: *data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (string, error) {
	raw, err := c.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return "", err
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return "", err
	}
	if !*env.Status {
		msg := env.Message
		if msg == "" {
			msg = "Invalid response from payment gateway during verification"
		}
		return "", &models.GatewayMalformedError{Message: msg, Raw: rawJSON(raw)}
	}

	var data verifyData
	if err := decodeObject(env.Data, &data); err != nil || data.Status == nil || *data.Status == "" {
		return "", &models.GatewayMalformedError{
			Message: "Invalid response from payment gateway during verification",
			Raw:     rawJSON(raw),
		}
	}

	return *data.Status, nil
}

// do performs the request and returns the body. Any HTTP status is
// accepted; the gateway reports failures in the body. Only transport
// failures are returned as errors here.
func (c *PaystackClient) do(ctx context.Context, operation, method, path string, body []byte) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "paystack."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method)),
	)
	defer span.End()

	started := time.Now()
	outcome := "error"
	defer func() { c.metrics.ObserveGatewayCall(operation, outcome, started) }()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		telemetry.Logger.Error("Payment gateway request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w: %v", operation, models.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: read response: %w: %v", operation, models.ErrGatewayUnavailable, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	outcome = "success"
	if resp.StatusCode >= 400 {
		outcome = "rejected"
	}

	telemetry.Logger.Debug("Payment gateway responded",
		zap.String("operation", operation),
		zap.Int("status_code", resp.StatusCode),
	)
	return raw, nil
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := decodeObject(raw, &env); err != nil || env.Status == nil {
		return nil, &models.GatewayMalformedError{Raw: rawJSON(raw)}
	}
	return &env, nil
}

// decodeObject unmarshals raw into dst only when raw is a JSON object.
func decodeObject(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("not a JSON object")
	}
	return json.Unmarshal(trimmed, dst)
}

func rawJSON(raw []byte) json.RawMessage {
	if !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}
