package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Matter is informational context for invoices. Its value is never
// part of balance math.
type Matter struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	ClientName  string          `json:"client_name"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdated time.Time       `json:"last_updated"`
}
