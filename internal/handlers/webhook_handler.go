package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lexledger/internal/models"
	"lexledger/internal/repositories"
)

// WebhookHandler is the payment-processor bridge: it appends COMPLETED
// payment rows to the ledger and nothing else. The reconciliation
// engine only ever sees the resulting rows.
type WebhookHandler struct {
	Payments *repositories.PaymentRepository
}

func NewWebhookHandler(payments *repositories.PaymentRepository) *WebhookHandler {
	return &WebhookHandler{Payments: payments}
}

type paymentEventRequest struct {
	ID          string `json:"id" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	Date        string `json:"date"` // RFC 3339; defaults to now
	Status      string `json:"status"`
	PaymentLink string `json:"payment_link"`
}

func (h *WebhookHandler) PaymentEvent(c *gin.Context) {
	var req paymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive decimal"})
		return
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.PaymentStatusCompleted
	}
	switch status {
	case models.PaymentStatusCompleted, models.PaymentStatusPending, models.PaymentStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment status"})
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC 3339"})
			return
		}
		date = parsed
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	recorded, err := h.Payments.InsertIfAbsent(&models.Payment{
		ID:          req.ID,
		ClientEmail: req.ClientEmail,
		Amount:      amount.Round(2),
		Currency:    currency,
		Date:        date,
		Status:      status,
		PaymentLink: req.PaymentLink,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Replays answer 200 as well; the processor should not retry.
	c.JSON(http.StatusOK, gin.H{"id": req.ID, "recorded": recorded})
}
