package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *PaystackClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaystackClient(PaystackConfig{
		SecretKey: "sk_test_secret",
		BaseURL:   srv.URL + "/",
		Timeout:   2 * time.Second,
	}, nil)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := map[string]string{
		"100":                   "10000",
		"0.5":                   "50",
		"12.34":                 "1234",
		"10.005":                "1001",
		"184467440737095517.16": "18446744073709551716",
		"9999999999999999.9999": "1000000000000000000",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToMinorUnits(decimal.RequireFromString(in)).String(), in)
	}
}

func TestInitiate_LargeAmountSentExactly(t *testing.T) {
	var got initializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(http.StatusOK, `{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/big","access_code":"big","reference":"ref_big"}}`)(w, r)
	})

	_, err := client.Initiate(context.Background(), models.InitiateParams{
		Email:  "test@example.com",
		Amount: decimal.RequireFromString("184467440737095517.16"),
	})
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551716", got.Amount)
}

func TestInitiate_Success(t *testing.T) {
	var got initializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(http.StatusOK, `{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_123"}}`)(w, r)
	})

	res, err := client.Initiate(context.Background(), models.InitiateParams{
		Email:    "test@example.com",
		Amount:   decimal.NewFromInt(100),
		Metadata: map[string]string{"customer_name": "Test User"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ref_123", res.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	assert.Equal(t, "abc", res.AccessCode)

	assert.Equal(t, "test@example.com", got.Email)
	assert.Equal(t, "10000", got.Amount)
	assert.Equal(t, "Test User", got.Metadata["customer_name"])
}

func TestInitiate_Rejected(t *testing.T) {
	client := newTestClient(t, respond(http.StatusBadRequest, `{"status":false,"message":"Invalid Email Address Passed"}`))

	_, err := client.Initiate(context.Background(), models.InitiateParams{Email: "x", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, models.ErrGatewayRejected)

	var rejected *models.GatewayRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "Invalid Email Address Passed", rejected.Message)
	assert.JSONEq(t, `{"status":false,"message":"Invalid Email Address Passed"}`, string(rejected.Raw))
}

func TestInitiate_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `<html>bad gateway</html>`,
		"array":             `[1,2,3]`,
		"no status":         `{"message":"ok"}`,
		"status not bool":   `{"status":"yes","data":{}}`,
		"data not object":   `{"status":true,"data":"ref_123"}`,
		"missing reference": `{"status":true,"data":{"authorization_url":"https://x"}}`,
		"empty reference":   `{"status":true,"data":{"authorization_url":"https://x","reference":"  "}}`,
		"reference number":  `{"status":true,"data":{"authorization_url":"https://x","reference":42}}`,
		"missing url":       `{"status":true,"data":{"reference":"ref_1"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, respond(http.StatusOK, body))
			_, err := client.Initiate(context.Background(), models.InitiateParams{Email: "a@b.c", Amount: decimal.NewFromInt(1)})
			assert.ErrorIs(t, err, models.ErrGatewayMalformedResponse)
		})
	}
}

func TestVerify_Statuses(t *testing.T) {
	for _, status := range []string{"success", "failed", "abandoned", "ongoing", "reversed"} {
		t.Run(status, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/transaction/verify/ref_123", r.URL.Path)
				respond(http.StatusOK, `{"status":true,"message":"Verification successful","data":{"status":"`+status+`","reference":"ref_123"}}`)(w, r)
			})

			got, err := client.Verify(context.Background(), "ref_123")
			require.NoError(t, err)
			assert.Equal(t, status, got)
		})
	}
}

func TestVerify_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty body":         ``,
		"null":               `null`,
		"status false":       `{"status":false,"message":"Transaction reference not found"}`,
		"no data":            `{"status":true}`,
		"data null":          `{"status":true,"data":null}`,
		"data missing state": `{"status":true,"data":{"reference":"ref_123"}}`,
		"state not string":   `{"status":true,"data":{"status":1}}`,
		"state empty":        `{"status":true,"data":{"status":""}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, respond(http.StatusOK, body))
			_, err := client.Verify(context.Background(), "ref_123")
			assert.ErrorIs(t, err, models.ErrGatewayMalformedResponse)
		})
	}
}

func TestVerify_CarriesGatewayMessage(t *testing.T) {
	client := newTestClient(t, respond(http.StatusBadRequest, `{"status":false,"message":"Transaction reference not found"}`))

	_, err := client.Verify(context.Background(), "ref_404")
	var malformed *models.GatewayMalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "Transaction reference not found", malformed.Message)
}

func TestGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewPaystackClient(PaystackConfig{SecretKey: "k", BaseURL: srv.URL, Timeout: time.Second}, nil)

	_, err := client.Verify(context.Background(), "ref")
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)

	_, err = client.Initiate(context.Background(), models.InitiateParams{Email: "a@b.c", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}
