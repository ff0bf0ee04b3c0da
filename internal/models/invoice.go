package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusDraft = "DRAFT"
	InvoiceStatusSent  = "SENT"
)

// Invoice aggregates one client's time entries for one calendar month.
// (ClientID, Month) is unique: regenerating a month is a no-op.
type Invoice struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	ClientEmail string          `json:"client_email"`
	ClientName  string          `json:"client_name"`
	Month       string          `json:"month"` // YYYY-MM
	TotalHours  decimal.Decimal `json:"total_hours"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LawyerIDs   []string        `json:"lawyer_ids"`
	MatterIDs   []string        `json:"matter_ids"`
	InvoiceDate time.Time       `json:"invoice_date"`
	Status      string          `json:"status"`
}
