package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusFailed    = "FAILED"
)

// Payment is immutable once recorded. ID doubles as the idempotency
// key for the sync: a payment id already present in the processed set
// is never counted again.
type Payment struct {
	ID          string          `json:"id"`
	ClientEmail string          `json:"client_email"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Status      string          `json:"status"`
	PaymentLink string          `json:"payment_link"`
}
