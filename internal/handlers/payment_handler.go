package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/models"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

const internalErrorMessage = "Internal server error"

type PaymentHandler struct {
	service interfaces.PaymentService
}

func NewPaymentHandler(service interfaces.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Invalid payment request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Request body is missing"})
		return
	}

	payment, err := h.service.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Payment initiated successfully",
		"payment": payment,
	})
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.service.VerifyPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Payment details retrieved successfully",
		"payment": payment.Summary(),
	})
}

// RespondError maps service errors onto HTTP responses. Anything it does not
// recognise becomes a generic 500 and is logged in full.
func RespondError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		rejectedErr   *models.GatewayRejectedError
		malformedErr  *models.GatewayMalformedError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": validationErr.Error()})
	case errors.As(err, &rejectedErr):
		c.JSON(http.StatusBadRequest, withGatewayResponse(rejectedErr.Error(), rejectedErr.Raw))
	case errors.As(err, &malformedErr):
		c.JSON(http.StatusBadRequest, withGatewayResponse(malformedErr.Error(), malformedErr.Raw))
	case errors.Is(err, models.ErrInvalidGatewayReference):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid gateway reference in payment record"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Payment not found"})
	case errors.Is(err, models.ErrGatewayUnavailable):
		telemetry.Logger.Error("Payment gateway unavailable",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": internalErrorMessage})
	default:
		telemetry.Logger.Error("Unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": internalErrorMessage})
	}
}

func withGatewayResponse(message string, raw json.RawMessage) gin.H {
	body := gin.H{"status": "error", "message": message}
	if len(raw) > 0 {
		body["gateway_response"] = raw
	}
	return body
}

// Recovery turns panics into the generic 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		telemetry.Logger.Error("Panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": internalErrorMessage})
	})
}
